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
	"time"

	"github.com/sabouaram/cpscan/cplog"
)

// Options configures a ScanSession. The zero value is not valid; build
// one with DefaultOptions and override individual fields.
type Options struct {
	// Workers is the fixed size of the worker pool that mines archives
	// and resolves classpath entries.
	Workers int

	// ArchiveRecyclerCapacity bounds how many concurrently open reader
	// handles a single archive's Recycler admits.
	ArchiveRecyclerCapacity int64

	// ShutdownGrace is how long Close waits for in-flight work to drain
	// on its own before the worker pool is abandoned.
	ShutdownGrace time.Duration

	// SystemModulePrefixes classifies module names as system modules for
	// classloader.Order (e.g. "java.", "jdk.").
	SystemModulePrefixes []string

	Log cplog.Logger
}

// DefaultOptions returns sane defaults: a fixed pool of four workers, a
// small per-archive handle cap, a short grace period, and a no-op
// logger.
func DefaultOptions() Options {
	return Options{
		Workers:                 4,
		ArchiveRecyclerCapacity: 4,
		ShutdownGrace:           5 * time.Second,
		SystemModulePrefixes:    []string{"java.", "jdk.", "sun."},
		Log:                     cplog.NopLogger(),
	}
}
