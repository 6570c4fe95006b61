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

package nestedcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/sabouaram/cpscan/cplog"
)

// TempFileRegistry tracks every temp file this package has created so they
// can be removed in reverse creation order on close - last extracted,
// first deleted, so an inner jar is never removed while something still
// might need to reopen its parent.
type TempFileRegistry struct {
	mu    sync.Mutex
	paths []string
	log   cplog.Logger
}

// NewTempFileRegistry returns an empty registry.
func NewTempFileRegistry(log cplog.Logger) *TempFileRegistry {
	if log == nil {
		log = cplog.NopLogger()
	}
	return &TempFileRegistry{log: log}
}

// Create makes a new temp file named "<tool>--<random>---<leaf>" under
// the OS temp directory, registers it, and returns it open for writing.
func (r *TempFileRegistry) Create(tool, leaf string) (*os.File, error) {
	name := fmt.Sprintf("%s--%s---%s", tool, uuid.NewString(), sanitiseLeaf(leaf))

	f, err := os.OpenFile(filepath.Join(os.TempDir(), name), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.paths = append(r.paths, f.Name())
	r.mu.Unlock()

	return f, nil
}

// Paths returns a snapshot of registered paths, last-created first.
func (r *TempFileRegistry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.paths))
	for i, p := range r.paths {
		out[len(r.paths)-1-i] = p
	}
	return out
}

// Close removes every registered temp file in reverse creation order,
// best-effort: it continues past individual removal failures and logs
// each one rather than aborting the sweep.
func (r *TempFileRegistry) Close() error {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	var firstErr error
	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.Remove(paths[i]); err != nil && !os.IsNotExist(err) {
			r.log.LogErr(fmt.Sprintf("removing temp file %q", paths[i]), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func sanitiseLeaf(leaf string) string {
	leaf = filepath.Base(leaf)
	b := make([]rune, 0, len(leaf))
	for _, r := range leaf {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b = append(b, r)
		default:
			b = append(b, '_')
		}
	}
	if len(b) == 0 {
		return "entry"
	}
	return string(b)
}
