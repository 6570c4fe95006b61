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
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/sabouaram/cpscan/cperrors"
)

// EntryStream is a read-once stream over one ArchiveEntry's data, already
// inflated if the entry is Deflated. It wraps a *SliceReader over the
// underlying mapped regions: Stored bytes are read from them directly,
// while the inflater reads Deflated bytes through its own read buffer.
type EntryStream struct {
	entry  *ArchiveEntry
	raw    *SliceReader
	flate  io.ReadCloser
	source io.Reader
}

func newEntryStream(e *ArchiveEntry, slice *ArchiveSlice) (*EntryStream, error) {
	raw := NewSliceReader(slice)

	s := &EntryStream{entry: e, raw: raw}

	switch e.Method {
	case CompressStore:
		s.source = raw
	case CompressDeflate:
		s.flate = flate.NewReader(raw)
		s.source = s.flate
	default:
		return nil, cperrors.NewEntry(cperrors.KindProtocolOptional, e.archive.path(), e.Name, 0, "unsupported compression method", nil)
	}

	return s, nil
}

// Read implements io.Reader, returning inflated bytes for Deflated
// entries and raw bytes for Stored ones.
func (s *EntryStream) Read(p []byte) (int, error) {
	return s.source.Read(p)
}

// Reset rebinds the stream (and, for Deflated entries, the underlying
// flate.Reader via its raw Reset(io.Reader, []byte) hook) onto a new
// entry's data range, so a Recycler handle can be reused across entries
// without reallocating the inflate window.
func (s *EntryStream) Reset(e *ArchiveEntry, slice *ArchiveSlice) error {
	s.entry = e
	s.raw.Reset(slice)

	switch e.Method {
	case CompressStore:
		s.source = s.raw
		return nil
	case CompressDeflate:
		if s.flate == nil {
			s.flate = flate.NewReader(s.raw)
		} else if err := s.flate.(flate.Resetter).Reset(s.raw, nil); err != nil {
			return cperrors.NewEntry(cperrors.KindProtocolOptional, e.archive.path(), e.Name, 0, "reset inflater", err)
		}
		s.source = s.flate
		return nil
	default:
		return cperrors.NewEntry(cperrors.KindProtocolOptional, e.archive.path(), e.Name, 0, "unsupported compression method", nil)
	}
}

// Close releases the inflater, if any. It does not close the underlying
// mapped regions, which are owned by the PhysicalArchive.
func (s *EntryStream) Close() error {
	if s.flate != nil {
		return s.flate.Close()
	}
	return nil
}
