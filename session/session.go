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

package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/sabouaram/cpscan/archive/zipstore"
	"github.com/sabouaram/cpscan/cplog"
	"github.com/sabouaram/cpscan/nestedcache"
	"github.com/sabouaram/cpscan/recycler"
	"github.com/sabouaram/cpscan/singleton"
	"github.com/sabouaram/cpscan/workqueue"
)

// ScanSession is the construction root of one classpath scan: it owns
// the worker pool, the nested-archive cache, one Recycler per physical
// archive (keyed by canonical path), and the temp-file registry backing
// extraction. Every public constructor elsewhere in this module is meant
// to be scoped to a *ScanSession rather than allocate its own resources.
type ScanSession struct {
	opts Options
	log  cplog.Logger

	tempFiles *nestedcache.TempFileRegistry
	nested    *nestedcache.Cache

	archiveRecyclers *singleton.Map[string, *recycler.Recycler[*zipstore.LogicalArchive]]

	pool *workqueue.WorkQueue[string]

	closeOnce sync.Once
	closeErr  error
}

// New constructs a ScanSession with opts and a pool of opts.Workers
// goroutines each running process over submitted classpath-entry
// strings. The returned session owns every resource it constructs; call
// Close exactly once when the scan is done.
func New(ctx context.Context, opts Options, process func(context.Context, string) error) *ScanSession {
	if opts.Log == nil {
		opts.Log = cplog.NopLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ArchiveRecyclerCapacity <= 0 {
		opts.ArchiveRecyclerCapacity = 1
	}

	s := &ScanSession{
		opts:             opts,
		log:              opts.Log,
		tempFiles:        nestedcache.NewTempFileRegistry(opts.Log.Child("tempfiles")),
		archiveRecyclers: singleton.New[string, *recycler.Recycler[*zipstore.LogicalArchive]](),
	}
	s.nested = nestedcache.New(s.tempFiles, opts.Log.Child("nestedcache"))
	s.pool = workqueue.New(ctx, opts.Workers, process)
	return s
}

// Nested returns the session's nested-archive resolver.
func (s *ScanSession) Nested() *nestedcache.Cache { return s.nested }

// TempFiles returns the session's temp-file registry.
func (s *ScanSession) TempFiles() *nestedcache.TempFileRegistry { return s.tempFiles }

// Submit enqueues items for the worker pool, same semantics as
// workqueue.WorkQueue.AddAll: safe to call again after workers have
// already started draining a prior batch.
func (s *ScanSession) Submit(items []string) {
	s.pool.AddAll(items)
}

// Interruption exposes the pool's cooperative-cancellation state, for
// long-running loops outside the pool (e.g. a manifest-mining pass) that
// need to poll for an in-flight failure.
func (s *ScanSession) Interruption() *workqueue.InterruptionState {
	return s.pool.Interruption()
}

// ArchiveRecycler returns the Recycler of LogicalArchive readers for the
// physical archive at canonicalPath, constructing it (bounded to
// opts.ArchiveRecyclerCapacity concurrently open handles) on first
// request and reusing it for every later request with the same path.
func (s *ScanSession) ArchiveRecycler(canonicalPath string) (*recycler.Recycler[*zipstore.LogicalArchive], error) {
	return s.archiveRecyclers.GetOrCreate(canonicalPath, func() (*recycler.Recycler[*zipstore.LogicalArchive], error) {
		log := s.log.Child("archive")
		return recycler.New(s.opts.ArchiveRecyclerCapacity, func() (*zipstore.LogicalArchive, error) {
			return zipstore.OpenLogicalArchive(canonicalPath, log)
		}, nil), nil
	})
}

// Close releases every resource the session owns, in the order spec'd
// for a scan's lifecycle: recyclers first (each closes its pooled
// archives), then temp files in reverse order of creation, then the
// worker pool, given opts.ShutdownGrace to drain before the pool's own
// errgroup.Wait is allowed to return whatever it returns. Close is safe
// to call more than once; only the first call does any work.
//
// The initial recycler pass is idle-only: a worker still mid-operation
// keeps its checked-out archive reader open. If the pool fails to drain
// within ShutdownGrace, that worker is presumed wedged, and every
// archive recycler is force-closed to reclaim its in-use readers too,
// rather than leaking them for the process's remaining lifetime.
func (s *ScanSession) Close() error {
	s.closeOnce.Do(func() {
		var agg *multierror.Error

		s.archiveRecyclers.Walk(func(_ string, r *recycler.Recycler[*zipstore.LogicalArchive]) bool {
			if err := r.Close(); err != nil {
				agg = multierror.Append(agg, err)
			}
			return true
		})

		if err := s.tempFiles.Close(); err != nil {
			agg = multierror.Append(agg, err)
		}

		done := make(chan error, 1)
		go func() { done <- s.pool.Close() }()

		select {
		case err := <-done:
			if err != nil {
				agg = multierror.Append(agg, err)
			}
		case <-time.After(s.opts.ShutdownGrace):
			s.log.Log("worker pool did not drain within grace period, force-closing archive recyclers")
			s.archiveRecyclers.Walk(func(_ string, r *recycler.Recycler[*zipstore.LogicalArchive]) bool {
				if err := r.ForceClose(); err != nil {
					agg = multierror.Append(agg, err)
				}
				return true
			})
			go func() {
				if err := <-done; err != nil {
					s.log.LogErr("worker pool close finished after grace period with error", err)
				}
			}()
		}

		s.closeErr = agg.ErrorOrNil()
	})
	return s.closeErr
}
