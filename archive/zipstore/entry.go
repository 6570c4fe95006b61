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
	"sync"

	"github.com/sabouaram/cpscan/archive/sanitize"
	"github.com/sabouaram/cpscan/cperrors"
	"github.com/sabouaram/cpscan/cplog"
)

// ArchiveEntry is one record from the central directory. Its local header
// is not read or validated until the entry's stream is opened: the
// directory scan only ever touches the central directory.
type ArchiveEntry struct {
	archive *LogicalArchive

	Name             string
	Flags            uint16
	Method           uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	localHeaderOff   uint64

	dataOnce   sync.Once
	dataOffset int64
	dataErr    error
}

// Encrypted reports whether the general-purpose flag bit for encryption
// is set; encrypted entries are protocol-optional failures, skipped by
// the caller rather than opened.
func (e *ArchiveEntry) Encrypted() bool {
	return e.Flags&flagEncrypted != 0
}

// Supported reports whether this package knows how to decompress the
// entry (Stored or Deflated, unencrypted).
func (e *ArchiveEntry) Supported() bool {
	return !e.Encrypted() && (e.Method == CompressStore || e.Method == CompressDeflate)
}

// dataRange lazily validates the local file header and computes the data
// offset and length within the archive, caching the result (and any
// error) for subsequent calls.
func (e *ArchiveEntry) dataRange() (int64, error) {
	e.dataOnce.Do(func() {
		r := NewSliceReader(e.archive.slice)

		sig, err := r.U32le(int64(e.localHeaderOff))
		if err != nil {
			e.dataErr = cperrors.NewEntry(cperrors.KindProtocolOptional, e.archive.physical.Path(), e.Name, int64(e.localHeaderOff), "read local header", err)
			return
		}
		if sig != sigLocalFile {
			e.dataErr = cperrors.NewEntry(cperrors.KindProtocolOptional, e.archive.physical.Path(), e.Name, int64(e.localHeaderOff), "bad local file header signature", nil)
			return
		}

		nameLen, err := r.U16le(int64(e.localHeaderOff) + 26)
		if err != nil {
			e.dataErr = err
			return
		}
		extraLen, err := r.U16le(int64(e.localHeaderOff) + 28)
		if err != nil {
			e.dataErr = err
			return
		}

		e.dataOffset = int64(e.localHeaderOff) + localHeaderSize + int64(nameLen) + int64(extraLen)
	})
	return e.dataOffset, e.dataErr
}

// Open returns an inflating (or, for Stored entries, pass-through) reader
// over the entry's data. The returned stream is not safe for concurrent
// use and should be discarded, not reused, after EOF or error; callers
// that need repeated reads should go through a Recycler (package
// recycler).
func (e *ArchiveEntry) Open() (*EntryStream, error) {
	if !e.Supported() {
		return nil, cperrors.NewEntry(cperrors.KindProtocolOptional, e.archive.physical.Path(), e.Name, 0, fmt.Sprintf("unsupported entry (method=%d encrypted=%v)", e.Method, e.Encrypted()), nil)
	}

	off, err := e.dataRange()
	if err != nil {
		return nil, err
	}

	slice := NewArchiveSlice(e.archive.physical, e.archive.slice.start+off, int64(e.CompressedSize))
	return newEntryStream(e, slice)
}

// Slice returns the byte range of e's data within its owning archive's
// PhysicalArchive, without decompressing anything. A Stored entry's
// bytes are, by construction, a valid ZIP/ZIP64 stream when that entry
// is itself a nested archive, so this range can be handed directly to
// OpenLogicalArchiveSlice.
func (e *ArchiveEntry) Slice() (*ArchiveSlice, error) {
	off, err := e.dataRange()
	if err != nil {
		return nil, err
	}
	return NewArchiveSlice(e.archive.physical, e.archive.slice.start+off, int64(e.CompressedSize)), nil
}

// LogicalArchive is a parsed ZIP/ZIP64 central directory over a
// PhysicalArchive.
type LogicalArchive struct {
	physical *PhysicalArchive
	slice    *ArchiveSlice
	entries  []*ArchiveEntry
	log      cplog.Logger

	// shared is true when physical is owned by some other LogicalArchive
	// (a Stored nested archive read in place out of its parent's mapped
	// region): Close must not close a PhysicalArchive it doesn't own.
	shared bool
}

// OpenLogicalArchive mmaps path and parses its central directory.
func OpenLogicalArchive(path string, log cplog.Logger) (*LogicalArchive, error) {
	if log == nil {
		log = cplog.NopLogger()
	}

	phys, err := OpenPhysicalArchive(path)
	if err != nil {
		return nil, err
	}

	la := &LogicalArchive{
		physical: phys,
		slice:    WholeArchive(phys),
		log:      log,
	}

	if err := la.parseCentralDirectory(); err != nil {
		_ = phys.Close()
		return nil, err
	}

	return la, nil
}

// OpenLogicalArchiveSlice parses a central directory directly over slice,
// an already-mapped byte range of some other archive's PhysicalArchive.
// It is how a Stored (uncompressed) nested archive is read in place: the
// nested archive's own central directory lives inside its parent's
// mapped region, so no extraction to a temp file is needed. The returned
// LogicalArchive does not own slice's PhysicalArchive - Close is a no-op,
// since whoever opened the parent archive remains responsible for it.
func OpenLogicalArchiveSlice(slice *ArchiveSlice, log cplog.Logger) (*LogicalArchive, error) {
	if log == nil {
		log = cplog.NopLogger()
	}

	la := &LogicalArchive{
		physical: slice.archive,
		slice:    slice,
		log:      log,
		shared:   true,
	}

	if err := la.parseCentralDirectory(); err != nil {
		return nil, err
	}

	return la, nil
}

// Entries returns every parsed entry, in central-directory order.
func (la *LogicalArchive) Entries() []*ArchiveEntry { return la.entries }

// Physical returns the underlying PhysicalArchive - for a LogicalArchive
// opened with OpenLogicalArchiveSlice, this is the PhysicalArchive of
// whichever outermost real file backs the in-place nested bytes.
func (la *LogicalArchive) Physical() *PhysicalArchive { return la.physical }

// Close closes the underlying PhysicalArchive, unless it is shared with a
// parent LogicalArchive (see OpenLogicalArchiveSlice), in which case
// closing it is the parent's responsibility.
func (la *LogicalArchive) Close() error {
	if la.shared {
		return nil
	}
	return la.physical.Close()
}

func (la *LogicalArchive) path() string { return la.physical.Path() }

// parseCentralDirectory locates the EOCD (and, if present, the ZIP64
// locator/EOCD), resolves sentinel 0xFFFF/0xFFFFFFFF fields against their
// ZIP64 counterparts, then walks the central directory by hand rather
// than trusting the declared entry count: every record actually present
// between the resolved offset and offset+size is collected, so a
// stated count that disagrees with reality (the "manual counting" case)
// can never truncate or overrun the real entry list.
func (la *LogicalArchive) parseCentralDirectory() error {
	r := NewSliceReader(la.slice)

	eocdOff, err := la.findEOCD(r)
	if err != nil {
		return err
	}

	diskNum, _ := r.U16le(eocdOff + 4)
	diskWithCD, _ := r.U16le(eocdOff + 6)
	if diskNum != 0 || diskWithCD != 0 {
		return cperrors.New(cperrors.KindStructural, la.path(), "multi-disk archives are not supported", nil)
	}

	declaredEntries, err := r.U16le(eocdOff + 10)
	if err != nil {
		return err
	}
	cdSize, err := r.U32le(eocdOff + 12)
	if err != nil {
		return err
	}
	cdOffset, err := r.U32le(eocdOff + 16)
	if err != nil {
		return err
	}

	resolvedEntries := uint64(declaredEntries)
	resolvedSize := uint64(cdSize)
	resolvedOffset := uint64(cdOffset)

	if locatorOff := eocdOff - zip64LocatorSize; locatorOff >= 0 {
		sig, _ := r.U32le(locatorOff)
		if sig == sigZIP64Locator {
			zip64Off, err := r.U64le(locatorOff + 8)
			if err != nil {
				return err
			}
			zsig, err := r.U32le(int64(zip64Off))
			if err != nil || zsig != sigZIP64EOCD {
				return cperrors.New(cperrors.KindStructural, la.path(), "bad ZIP64 end-of-central-directory signature", err)
			}

			entries64, err := r.U64le(int64(zip64Off) + 32)
			if err != nil {
				return err
			}
			size64, err := r.U64le(int64(zip64Off) + 40)
			if err != nil {
				return err
			}
			offset64, err := r.U64le(int64(zip64Off) + 48)
			if err != nil {
				return err
			}

			if declaredEntries == sentinel16 {
				resolvedEntries = entries64
			} else if uint64(declaredEntries) != entries64 {
				la.log.Log(fmt.Sprintf("zip64 entry count %d disagrees with EOCD count %d, trusting manual count", entries64, declaredEntries))
				resolvedEntries = entries64
			}
			if cdSize == sentinel32 {
				resolvedSize = size64
			}
			if cdOffset == sentinel32 {
				resolvedOffset = offset64
			}
		}
	}

	if resolvedSize > 0 && resolvedEntries > resolvedSize/centralHeaderSize+1 {
		return cperrors.New(cperrors.KindStructural, la.path(), fmt.Sprintf("declared entry count %d is not plausible for a %d-byte central directory", resolvedEntries, resolvedSize), nil)
	}

	entries, rawCount, err := la.walkCentralDirectory(r, int64(resolvedOffset), int64(resolvedSize))
	if err != nil {
		return err
	}

	if uint64(rawCount) != resolvedEntries {
		la.log.Log(fmt.Sprintf("manual central-directory walk found %d records, declared count was %d", rawCount, resolvedEntries))
	}

	la.entries = entries
	return nil
}

// findEOCD scans backwards from the end of the archive for the EOCD
// signature, verifying the candidate's trailing comment length brings it
// exactly to the end of the file (guarding against the signature bytes
// appearing inside an earlier comment).
func (la *LogicalArchive) findEOCD(r *SliceReader) (int64, error) {
	length := la.slice.Len()
	if length < eocdFixedSize {
		return 0, cperrors.New(cperrors.KindStructural, la.path(), "archive too small to contain an EOCD record", nil)
	}

	maxCommentLen := int64(1<<16 - 1)
	lo := length - eocdFixedSize - maxCommentLen
	if lo < 0 {
		lo = 0
	}

	for p := length - eocdFixedSize; p >= lo; p-- {
		sig, err := r.U32le(p)
		if err != nil {
			continue
		}
		if sig != sigEOCD {
			continue
		}
		commentLen, err := r.U16le(p + 20)
		if err != nil {
			continue
		}
		if p+eocdFixedSize+int64(commentLen) == length {
			return p, nil
		}
	}

	return 0, cperrors.New(cperrors.KindStructural, la.path(), "no end-of-central-directory record found", nil)
}

func (la *LogicalArchive) walkCentralDirectory(r *SliceReader, start, size int64) ([]*ArchiveEntry, int, error) {
	var entries []*ArchiveEntry
	rawCount := 0

	end := start + size
	pos := start
	maxIterations := size/centralHeaderSize + 1

	for i := int64(0); pos < end && i < maxIterations; i++ {
		sig, err := r.U32le(pos)
		if err != nil {
			return nil, rawCount, cperrors.New(cperrors.KindStructural, la.path(), "short read in central directory", err)
		}
		if sig != sigCentralDir {
			break
		}
		rawCount++

		flags, _ := r.U16le(pos + 8)
		method, _ := r.U16le(pos + 10)
		crc32, _ := r.U32le(pos + 16)
		compSize32, _ := r.U32le(pos + 20)
		uncompSize32, _ := r.U32le(pos + 24)
		nameLen, _ := r.U16le(pos + 28)
		extraLen, _ := r.U16le(pos + 30)
		commentLen, _ := r.U16le(pos + 32)
		diskStart16, _ := r.U16le(pos + 34)
		localOffset32, _ := r.U32le(pos + 42)

		rawName, err := r.StringAt(pos+centralHeaderSize, int(nameLen))
		if err != nil {
			return nil, rawCount, err
		}

		compSize := uint64(compSize32)
		uncompSize := uint64(uncompSize32)
		localOffset := uint64(localOffset32)
		diskStart := uint64(diskStart16)

		if compSize32 == sentinel32 || uncompSize32 == sentinel32 || localOffset32 == sentinel32 || diskStart16 == sentinel16 {
			zu, zc, zl, zd, err := readZIP64Extra(r, pos+centralHeaderSize+int64(nameLen), int64(extraLen),
				uncompSize32 == sentinel32, compSize32 == sentinel32, localOffset32 == sentinel32, diskStart16 == sentinel16)
			if err != nil {
				la.log.LogErr(fmt.Sprintf("invalid ZIP64 extra field for %q, ignoring entry", rawName), err)
				pos += centralHeaderSize + int64(nameLen) + int64(extraLen) + int64(commentLen)
				continue
			}
			if uncompSize32 == sentinel32 {
				uncompSize = zu
			}
			if compSize32 == sentinel32 {
				compSize = zc
			}
			if localOffset32 == sentinel32 {
				localOffset = zl
			}
			if diskStart16 == sentinel16 {
				diskStart = zd
			}
		}

		pos += centralHeaderSize + int64(nameLen) + int64(extraLen) + int64(commentLen)
		_ = diskStart

		if sanitize.IsDirectory(rawName) {
			continue
		}
		if flags&flagEncrypted != 0 {
			la.log.Log(fmt.Sprintf("skipping encrypted entry %q", rawName))
			continue
		}
		if method != CompressStore && method != CompressDeflate {
			la.log.Log(fmt.Sprintf("skipping entry %q with unsupported compression method %d", rawName, method))
			continue
		}

		entries = append(entries, &ArchiveEntry{
			Name:             sanitize.EntryName(rawName),
			Flags:            flags,
			Method:           method,
			CRC32:            crc32,
			CompressedSize:   compSize,
			UncompressedSize: uncompSize,
			localHeaderOff:   localOffset,
			archive:          la,
		})
	}

	return entries, rawCount, nil
}

// readZIP64Extra scans an entry's extra-field block for the ZIP64 extra
// (tag 0x0001) and returns the subset of fields the caller asked for, in
// the fixed order the format mandates: uncompressed size, compressed
// size, local header offset, disk start number - only the fields whose
// 32-bit counterpart was the 0xFFFF/0xFFFFFFFF sentinel are present.
func readZIP64Extra(r *SliceReader, off, length int64, wantUncomp, wantComp, wantOffset, wantDisk bool) (uncomp, comp, offset, disk uint64, err error) {
	end := off + length
	for off < end {
		tag, e := r.U16le(off)
		if e != nil {
			return 0, 0, 0, 0, e
		}
		size, e := r.U16le(off + 2)
		if e != nil {
			return 0, 0, 0, 0, e
		}
		fieldStart := off + 4

		if tag == zip64ExtraTag {
			p := fieldStart
			if wantUncomp {
				if uncomp, e = r.U64le(p); e != nil {
					return 0, 0, 0, 0, e
				}
				p += 8
			}
			if wantComp {
				if comp, e = r.U64le(p); e != nil {
					return 0, 0, 0, 0, e
				}
				p += 8
			}
			if wantOffset {
				if offset, e = r.U64le(p); e != nil {
					return 0, 0, 0, 0, e
				}
				p += 8
			}
			if wantDisk {
				var d32 uint32
				if d32, e = r.U32le(p); e != nil {
					return 0, 0, 0, 0, e
				}
				disk = uint64(d32)
			}
			return uncomp, comp, offset, disk, nil
		}

		off = fieldStart + int64(size)
	}

	return 0, 0, 0, 0, cperrors.New(cperrors.KindProtocolOptional, "", "missing ZIP64 extra field for sentinel value", nil)
}
