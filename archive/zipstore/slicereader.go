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
	"unicode/utf8"

	"github.com/sabouaram/cpscan/cperrors"
)

// ArchiveSlice is a contiguous logical byte range of a PhysicalArchive. It
// carries no cursor and is safe to share across goroutines; SliceReader is
// the stateful, single-goroutine view over it.
type ArchiveSlice struct {
	archive *PhysicalArchive
	start   int64
	length  int64
}

// NewArchiveSlice describes the byte range [start, start+length) of a.
func NewArchiveSlice(a *PhysicalArchive, start, length int64) *ArchiveSlice {
	return &ArchiveSlice{archive: a, start: start, length: length}
}

// WholeArchive describes the entire archive as one slice.
func WholeArchive(a *PhysicalArchive) *ArchiveSlice {
	return &ArchiveSlice{archive: a, start: 0, length: a.Len()}
}

// Len returns the slice's length.
func (s *ArchiveSlice) Len() int64 { return s.length }

func (s *ArchiveSlice) readAt(off int64, buf []byte) (int, error) {
	if off < 0 || off > s.length {
		return 0, cperrors.New(cperrors.KindProgrammer, s.archive.path, "slice read out of range", nil)
	}
	if off+int64(len(buf)) > s.length {
		return 0, cperrors.New(cperrors.KindProgrammer, s.archive.path, "slice read past end", nil)
	}
	return s.archive.ReadAt(buf, s.start+off)
}

// SliceReader is a cursor over an ArchiveSlice. It is not safe for
// concurrent use: each worker acquires its own reader (typically from a
// Recycler, see package recycler) rather than sharing one.
type SliceReader struct {
	slice *ArchiveSlice
	pos   int64
}

// NewSliceReader returns a SliceReader positioned at the start of slice.
func NewSliceReader(slice *ArchiveSlice) *SliceReader {
	return &SliceReader{slice: slice}
}

// Reset repositions r onto a new slice at offset 0, so a recycled handle
// can be reused against a different entry without reallocating.
func (r *SliceReader) Reset(slice *ArchiveSlice) {
	r.slice = slice
	r.pos = 0
}

// Seek moves the cursor to an absolute offset within the slice.
func (r *SliceReader) Seek(off int64) { r.pos = off }

// Pos returns the current cursor offset.
func (r *SliceReader) Pos() int64 { return r.pos }

// Read fills buf from the cursor and advances it, transparently spanning a
// region boundary if the read straddles one (handled by PhysicalArchive.
// ReadAt, which this ultimately calls through ArchiveSlice.readAt).
func (r *SliceReader) Read(buf []byte) (int, error) {
	n, err := r.slice.readAt(r.pos, buf)
	r.pos += int64(n)
	return n, err
}

// ReadAt reads len(buf) bytes at an absolute slice offset without moving
// the cursor.
func (r *SliceReader) ReadAt(off int64, buf []byte) (int, error) {
	return r.slice.readAt(off, buf)
}

// U8 reads one byte at off.
func (r *SliceReader) U8(off int64) (uint8, error) {
	var b [1]byte
	if _, err := r.slice.readAt(off, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16le reads a little-endian uint16 at off.
func (r *SliceReader) U16le(off int64) (uint16, error) {
	var b [2]byte
	if _, err := r.slice.readAt(off, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// U32le reads a little-endian uint32 at off.
func (r *SliceReader) U32le(off int64) (uint32, error) {
	var b [4]byte
	if _, err := r.slice.readAt(off, b[:]); err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// U64le reads a little-endian uint64 at off. Every byte is widened to
// uint64 before shifting, so the top bit of the high byte never gets
// sign-extended away the way a naive int-based port of the algorithm can
// (see DESIGN.md's note on the original's getLong defect).
func (r *SliceReader) U64le(off int64) (uint64, error) {
	var b [8]byte
	if _, err := r.slice.readAt(off, b[:]); err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// StringAt reads n bytes at off and returns them as a string, validating
// UTF-8 and falling back to the raw bytes (archive entry names are not
// guaranteed to be valid UTF-8 when the UTF-8 flag bit is unset) when
// validation fails.
func (r *SliceReader) StringAt(off int64, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := r.slice.readAt(off, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return string(buf), nil
	}
	return string(buf), nil
}
