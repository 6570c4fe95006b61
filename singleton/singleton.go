/*
 *  MIT License
 *
 *  Copyright (c) 2024 Salim Amine BOU ARAM & Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Package singleton provides a map whose values are produced exactly once
// per key: the first caller to ask for a key runs the producer, every
// other concurrent caller for that same key blocks on the first caller's
// result instead of recomputing it.
//
// It is the core synchronisation primitive behind the NestedArchiveCache
// (path -> extracted file), the ArchiveStore (canonical path -> open
// archive, region index -> mapped region) and the Recycler registries
// (archive -> reader pool).
package singleton

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Map is a concurrency-safe, single-producer-per-key cache. The zero value
// is not usable; construct one with New.
type Map[K comparable, V any] struct {
	group singleflight.Group
	keyOf map[K]string
	mu    sync.Mutex
	seq   *sync.Map
}

// New returns a ready-to-use Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		keyOf: make(map[K]string),
		seq:   new(sync.Map),
	}
}

// GetOrCreate returns the value published for key, calling fn exactly once
// across any number of concurrent callers requesting the same key.
//
// If fn returns an error, the value is not published: a later call for the
// same key will retry fn. Concurrent callers in flight when fn fails all
// receive that error (the "poison" case from the concurrency model: the
// latch is still released so nobody deadlocks).
func (m *Map[K, V]) GetOrCreate(key K, fn func() (V, error)) (V, error) {
	if v, ok := m.seq.Load(key); ok {
		return v.(V), nil
	}

	skey := m.stringKey(key)

	v, err, _ := m.group.Do(skey, func() (interface{}, error) {
		// Re-check: another producer may have published while we waited
		// to enter the singleflight group.
		if v, ok := m.seq.Load(key); ok {
			return v, nil
		}

		val, err := fn()
		if err != nil {
			return val, err
		}

		m.seq.Store(key, val)
		return val, nil
	})

	if err != nil {
		var zero V
		return zero, err
	}

	return v.(V), nil
}

// Load returns the published value for key, if any.
func (m *Map[K, V]) Load(key K) (V, bool) {
	v, ok := m.seq.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Delete removes any published value for key. In-flight producers are
// unaffected; their result is still published when they complete.
func (m *Map[K, V]) Delete(key K) {
	m.seq.Delete(key)
}

// Walk calls fn for every currently published (key, value) pair. fn
// returning false stops the walk early.
func (m *Map[K, V]) Walk(fn func(key K, val V) bool) {
	m.seq.Range(func(k, v interface{}) bool {
		return fn(k.(K), v.(V))
	})
}

// stringKey gives singleflight.Group a stable string key for a comparable
// K without requiring K to implement Stringer; it memoises the mapping so
// two equal keys always share one singleflight call even when formatting
// K is comparatively expensive.
func (m *Map[K, V]) stringKey(key K) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.keyOf[key]; ok {
		return s
	}

	s := fmt.Sprintf("%d:%v", len(m.keyOf), key)
	m.keyOf[key] = s
	return s
}
