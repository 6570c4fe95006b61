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

package workqueue

import (
	"sync"
	"sync/atomic"
)

// InterruptionState is a shared, cooperatively-polled cancellation flag.
// Unlike the errgroup context alone, it lets code *outside* the worker
// pool (a long manifest-mining loop, say) check "should I stop?" at a
// bounded frequency without needing a context threaded through it.
type InterruptionState struct {
	interrupted atomic.Bool
	mu          sync.Mutex
	err         error
}

// NewInterruptionState returns a fresh, non-interrupted state.
func NewInterruptionState() *InterruptionState {
	return &InterruptionState{}
}

// Interrupt records err as the cause (the first call wins) and flips the
// interrupted flag.
func (s *InterruptionState) Interrupt(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.interrupted.Store(true)
}

// Interrupted reports whether Interrupt has been called.
func (s *InterruptionState) Interrupted() bool {
	return s.interrupted.Load()
}

// Err returns the first error passed to Interrupt, or nil.
func (s *InterruptionState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
