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

// Package recycler pools reusable, resettable handles bounded by a fixed
// capacity: one Recycler per physical archive (a pool of opened
// LogicalArchive readers), one per module reference, and so on.
package recycler

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Handle wraps a pooled value of type T. Close returns it to the
// Recycler it came from instead of discarding it; it is safe to call
// Close more than once.
type Handle[T any] struct {
	value    T
	owner    *Recycler[T]
	mu       sync.Mutex
	returned bool
}

// Value returns the pooled instance.
func (h *Handle[T]) Value() T { return h.value }

// Close returns the handle to its Recycler, invoking the Recycler's
// reset hook (if any) first.
func (h *Handle[T]) Close() error {
	h.mu.Lock()
	if h.returned {
		h.mu.Unlock()
		return nil
	}
	h.returned = true
	h.mu.Unlock()

	return h.owner.release(h)
}

// Recycler is a bounded pool of type-T instances, admission-controlled
// by a semaphore so Acquire blocks once capacity outstanding handles are
// in use rather than growing unbounded.
type Recycler[T any] struct {
	newInstance func() (T, error)
	reset       func(T) error

	sem  *semaphore.Weighted
	free chan T

	mu     sync.Mutex
	idle   int
	inUse  int
	closed bool
	live   map[*Handle[T]]struct{}
}

// New returns a Recycler bounded to capacity concurrently outstanding
// handles. reset may be nil if T needs no per-return reset hook.
func New[T any](capacity int64, newInstance func() (T, error), reset func(T) error) *Recycler[T] {
	return &Recycler[T]{
		newInstance: newInstance,
		reset:       reset,
		sem:         semaphore.NewWeighted(capacity),
		free:        make(chan T, capacity),
		live:        make(map[*Handle[T]]struct{}),
	}
}

// Acquire blocks (respecting ctx) until admission is available, then
// returns an idle instance or constructs a new one.
func (r *Recycler[T]) Acquire(ctx context.Context) (*Handle[T], error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	select {
	case v := <-r.free:
		h := &Handle[T]{value: v, owner: r}
		r.mu.Lock()
		r.idle--
		r.inUse++
		r.live[h] = struct{}{}
		r.mu.Unlock()
		return h, nil
	default:
	}

	v, err := r.newInstance()
	if err != nil {
		r.sem.Release(1)
		return nil, err
	}

	h := &Handle[T]{value: v, owner: r}
	r.mu.Lock()
	r.inUse++
	r.live[h] = struct{}{}
	r.mu.Unlock()
	return h, nil
}

// Stats returns the current (inUse, idle) counts, for the "in-use + idle
// never decreases spuriously" invariant.
func (r *Recycler[T]) Stats() (inUse, idle int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inUse, r.idle
}

func (r *Recycler[T]) release(h *Handle[T]) error {
	v := h.value

	r.mu.Lock()
	r.inUse--
	delete(r.live, h)
	closed := r.closed
	r.mu.Unlock()

	defer r.sem.Release(1)

	if r.reset != nil {
		if err := r.reset(v); err != nil {
			closeIfCloser(v)
			return err
		}
	}

	if closed {
		closeIfCloser(v)
		return nil
	}

	select {
	case r.free <- v:
		r.mu.Lock()
		r.idle++
		r.mu.Unlock()
	default:
		// pool is already at capacity in the free channel; this can only
		// happen if capacity was exceeded by a concurrent Close, so just
		// drop the instance rather than block.
		closeIfCloser(v)
	}
	return nil
}

// Close closes every currently idle instance and marks the Recycler
// closed: instances still in use are closed, not recycled, when
// returned, so "idle == 0" holds immediately and "in-use == 0" holds
// once every outstanding Handle is closed.
func (r *Recycler[T]) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	var firstErr error
	for {
		select {
		case v := <-r.free:
			r.mu.Lock()
			r.idle--
			r.mu.Unlock()
			if err := closeIfCloser(v); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}

// ForceClose does everything Close does, and additionally reclaims
// every instance still checked out by a live, unreturned Handle: each
// such Handle is marked returned (so a caller's later Handle.Close is
// a no-op) and its value closed directly, bypassing the reset hook,
// which may not be safe to run concurrently with whatever the
// in-flight holder is doing. Use this to tear down a Recycler whose
// owner (e.g. a cancelled ScanSession) cannot wait for every worker to
// return its handle - a plain Close would leave those instances open
// indefinitely.
func (r *Recycler[T]) ForceClose() error {
	err := r.Close()

	r.mu.Lock()
	live := make([]*Handle[T], 0, len(r.live))
	for h := range r.live {
		live = append(live, h)
	}
	r.mu.Unlock()

	for _, h := range live {
		h.mu.Lock()
		if h.returned {
			h.mu.Unlock()
			continue
		}
		h.returned = true
		h.mu.Unlock()

		if closeErr := closeIfCloser(h.value); closeErr != nil && err == nil {
			err = closeErr
		}

		r.mu.Lock()
		r.inUse--
		delete(r.live, h)
		r.mu.Unlock()
	}

	return err
}

func closeIfCloser(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
