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

package zipstore

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/xujiajun/mmap-go"

	"github.com/sabouaram/cpscan/cperrors"
	"github.com/sabouaram/cpscan/singleton"
)

// regionSize bounds every mapped region so that no single mmap call needs
// to address more than 2^32 bytes, working around 32-bit mapping limits on
// some platforms. It is a var, not a const, so tests can shrink it and
// exercise boundary-spanning reads without a multi-gigabyte fixture.
var regionSize int64 = 1 << 32

// PhysicalArchive is one on-disk archive, mapped lazily in regionSize-
// bounded, read-only regions. It implements io.ReaderAt, so any reader
// that only needs raw bytes (including the standard library) can sit on
// top of it without knowing about regions at all.
type PhysicalArchive struct {
	path    string
	file    *os.File
	length  int64
	regions *singleton.Map[int, mmap.MMap]

	mu     sync.Mutex
	closed bool
}

// OpenPhysicalArchive opens path and prepares it for region-bounded
// mapping. The file is not mapped until a region is first accessed.
func OpenPhysicalArchive(path string) (*PhysicalArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cperrors.New(cperrors.KindAccess, path, "open archive", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, cperrors.New(cperrors.KindAccess, path, "stat archive", err)
	}
	if fi.Size() == 0 {
		_ = f.Close()
		return nil, cperrors.New(cperrors.KindStructural, path, "empty archive", nil)
	}

	return &PhysicalArchive{
		path:    path,
		file:    f,
		length:  fi.Size(),
		regions: singleton.New[int, mmap.MMap](),
	}, nil
}

// Path returns the underlying file path.
func (a *PhysicalArchive) Path() string { return a.path }

// Len returns the archive's total byte length.
func (a *PhysicalArchive) Len() int64 { return a.length }

func (a *PhysicalArchive) numRegions() int {
	return int((a.length + regionSize - 1) / regionSize)
}

func (a *PhysicalArchive) getRegion(index int) (mmap.MMap, error) {
	return a.regions.GetOrCreate(index, func() (mmap.MMap, error) {
		a.mu.Lock()
		closed := a.closed
		a.mu.Unlock()
		if closed {
			return nil, cperrors.New(cperrors.KindProgrammer, a.path, "region access on closed archive", nil)
		}

		offset := int64(index) * regionSize
		size := regionSize
		if remaining := a.length - offset; remaining < size {
			size = remaining
		}

		m, err := mmap.MapRegion(a.file, int(size), mmap.RDONLY, 0, offset)
		if err != nil {
			return nil, cperrors.New(cperrors.KindStructural, a.path, fmt.Sprintf("map region %d", index), err)
		}
		return m, nil
	})
}

// ReadAt implements io.ReaderAt over the region-mapped file, transparently
// spanning every region boundary the requested byte range crosses (one
// copy per region touched).
func (a *PhysicalArchive) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > a.length {
		return 0, cperrors.New(cperrors.KindProgrammer, a.path, "ReadAt offset out of range", nil)
	}

	n := 0
	for n < len(p) {
		cur := off + int64(n)
		if cur >= a.length {
			return n, io.EOF
		}

		idx := int(cur / regionSize)
		regionOff := cur % regionSize

		region, err := a.getRegion(idx)
		if err != nil {
			return n, err
		}

		avail := int64(len(region)) - regionOff
		want := int64(len(p) - n)
		if want > avail {
			want = avail
		}
		if want <= 0 {
			return n, io.EOF
		}

		copy(p[n:n+int(want)], region[regionOff:regionOff+want])
		n += int(want)
	}

	return n, nil
}

// Close unmaps every materialised region and closes the underlying file.
// Safe to call once; a second call is a no-op.
func (a *PhysicalArchive) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var firstErr error
	a.regions.Walk(func(_ int, region mmap.MMap) bool {
		if err := region.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})

	if err := a.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
