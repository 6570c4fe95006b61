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

// Package workqueue is a shared work queue processed by a fixed-size
// worker pool: units can be added while others are in flight, a
// numRemaining counter tracks queued-plus-in-flight work so new units
// added mid-scan never cause premature termination, and Close is a
// barrier that waits for every worker and surfaces the first error.
package workqueue

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// WorkQueue processes units of type T with a fixed pool of worker
// goroutines, each running process for every unit it dequeues.
type WorkQueue[T any] struct {
	process func(context.Context, T) error

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []T
	remaining int
	closed    bool

	interruption *InterruptionState
	group        *errgroup.Group
	ctx          context.Context
}

// New starts workers goroutines over parent's context, each pulling
// units from the queue and calling process. Workers stop once the queue
// is closed and drained. A worker whose process call returns an error
// stops at once and interrupts the others cooperatively: from then on
// they dequeue remaining units without processing them, and stop when
// the queue is closed and drained.
func New[T any](parent context.Context, workers int, process func(context.Context, T) error) *WorkQueue[T] {
	group, ctx := errgroup.WithContext(parent)

	wq := &WorkQueue[T]{
		process:      process,
		interruption: NewInterruptionState(),
		group:        group,
		ctx:          ctx,
	}
	wq.cond = sync.NewCond(&wq.mu)

	for i := 0; i < workers; i++ {
		group.Go(wq.loop)
	}

	return wq
}

// Interruption returns the shared cancellation state, for components
// outside the pool to poll.
func (wq *WorkQueue[T]) Interruption() *InterruptionState { return wq.interruption }

// AddAll enqueues items, raising numRemaining by len(items) before any
// worker can observe the queue as drained.
func (wq *WorkQueue[T]) AddAll(items []T) {
	if len(items) == 0 {
		return
	}
	wq.mu.Lock()
	wq.queue = append(wq.queue, items...)
	wq.remaining += len(items)
	wq.mu.Unlock()
	wq.cond.Broadcast()
}

// Remaining returns the queued-plus-in-flight unit count.
func (wq *WorkQueue[T]) Remaining() int {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return wq.remaining
}

func (wq *WorkQueue[T]) loop() error {
	for {
		wq.mu.Lock()
		for len(wq.queue) == 0 && !wq.closed {
			wq.cond.Wait()
		}
		if len(wq.queue) == 0 && wq.closed {
			wq.mu.Unlock()
			return nil
		}
		item := wq.queue[0]
		wq.queue = wq.queue[1:]
		wq.mu.Unlock()

		if wq.interruption.Interrupted() {
			wq.mu.Lock()
			wq.remaining--
			wq.mu.Unlock()
			continue
		}

		err := wq.process(wq.ctx, item)

		wq.mu.Lock()
		wq.remaining--
		wq.mu.Unlock()

		if err != nil {
			wq.interruption.Interrupt(err)
			return err
		}
	}
}

// Close is a barrier: it marks the queue closed (no more AddAll calls
// are expected), wakes every worker so it can observe the closed,
// drained state, waits for all of them, and returns the first error any
// of them (or the interruption state) observed, if any.
func (wq *WorkQueue[T]) Close() error {
	wq.mu.Lock()
	wq.closed = true
	wq.mu.Unlock()
	wq.cond.Broadcast()

	var agg *multierror.Error
	if err := wq.group.Wait(); err != nil {
		agg = multierror.Append(agg, err)
	}
	if err := wq.interruption.Err(); err != nil {
		agg = multierror.Append(agg, err)
	}
	return agg.ErrorOrNil()
}
