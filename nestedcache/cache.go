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
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sabouaram/cpscan/archive/sanitize"
	"github.com/sabouaram/cpscan/archive/zipstore"
	"github.com/sabouaram/cpscan/cperrors"
	"github.com/sabouaram/cpscan/cplog"
	"github.com/sabouaram/cpscan/singleton"
)

// Resolution is what a NestedPathKey resolves to: a file plus any
// in-archive directories the caller pinned as package roots along the
// way (the segment after a trailing "!" that names a directory rather
// than a single entry).
//
// File is a real file on disk for a plain path, a download, an extracted
// entry, or a package root inside an archive. For a key that ends at a
// Stored nested archive, File is instead the synthetic
// "parentPath!entryName" chain key under which that archive is cached in
// place; no file exists on disk under that name.
type Resolution struct {
	File              string
	RootRelativePaths []string
}

// Cache resolves NestedPathKey strings (plain paths, HTTP(S) URLs, and
// "left!right" in-archive chains) to files (see Resolution for the one case
// that yields a synthetic chain key), extracting and downloading at most
// once per distinct key even under concurrent access.
type Cache struct {
	resolved *singleton.Map[string, *Resolution]
	archives *singleton.Map[string, *zipstore.LogicalArchive]
	registry *TempFileRegistry
	http     *retryablehttp.Client
	log      cplog.Logger
}

// New returns a Cache backed by registry for temp-file lifecycle and log
// for diagnostics. The HTTP(S) client never retries: per the error model,
// a network failure skips the one classpath element rather than being
// retried inside this module.
func New(registry *TempFileRegistry, log cplog.Logger) *Cache {
	if log == nil {
		log = cplog.NopLogger()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	return &Cache{
		resolved: singleton.New[string, *Resolution](),
		archives: singleton.New[string, *zipstore.LogicalArchive](),
		registry: registry,
		http:     client,
		log:      log,
	}
}

// Resolve returns the canonical file and accumulated package roots for
// key, recursing on the rightmost "!" as needed.
func (c *Cache) Resolve(ctx context.Context, key string) (*Resolution, error) {
	return c.resolved.GetOrCreate(key, func() (*Resolution, error) {
		return c.resolveUncached(ctx, key)
	})
}

func (c *Cache) resolveUncached(ctx context.Context, key string) (*Resolution, error) {
	left, right, hasBang := splitRightmostBang(key)

	if !hasBang {
		return c.resolveLeaf(ctx, key)
	}

	parent, err := c.Resolve(ctx, left)
	if err != nil {
		return nil, err
	}

	if parent.File != left {
		// The parent canonicalised to a different path than the string we
		// recursed on (e.g. a relative path resolved against a base, or a
		// self-extracting prefix stripped off); re-enter with the
		// canonical left side. Canonicalisation is idempotent, so this
		// fixes the key in exactly one extra recursion.
		return c.Resolve(ctx, parent.File+"!"+right)
	}

	la, err := c.openArchive(parent.File)
	if err != nil {
		return nil, err
	}

	if entry := findEntry(la, right); entry != nil {
		if entry.Method == zipstore.CompressStore && !entry.Encrypted() {
			chainKey, err := c.openInPlace(la, parent.File, entry)
			if err != nil {
				return nil, err
			}
			return &Resolution{File: chainKey}, nil
		}

		extracted, err := c.extractEntry(la, parent.File, entry)
		if err != nil {
			return nil, err
		}
		return &Resolution{File: extracted}, nil
	}

	if isDirectoryMember(la, right) {
		return &Resolution{File: la.Physical().Path(), RootRelativePaths: []string{right}}, nil
	}

	return nil, cperrors.NewEntry(cperrors.KindAccess, parent.File, right, 0, "no such entry in archive", nil)
}

// resolveLeaf handles a key with no "!": a plain file, or an HTTP(S) URL
// to download.
func (c *Cache) resolveLeaf(ctx context.Context, key string) (*Resolution, error) {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return c.download(ctx, key)
	}

	info, err := os.Stat(key)
	if err != nil {
		return nil, cperrors.New(cperrors.KindAccess, key, "stat classpath element", err)
	}
	if !info.Mode().IsRegular() {
		return nil, cperrors.New(cperrors.KindAccess, key, "classpath element is not a regular file", nil)
	}

	canonical, err := filepath.Abs(key)
	if err != nil {
		return nil, cperrors.New(cperrors.KindAccess, key, "canonicalise classpath element", err)
	}

	return &Resolution{File: stripSelfExtractingPrefix(c, canonical)}, nil
}

// download streams url to a registered temp file via an atomic
// create-then-rename, so a reader can never observe a partially written
// file under the final name.
func (c *Cache) download(ctx context.Context, url string) (*Resolution, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, cperrors.New(cperrors.KindNetwork, url, "build download request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, cperrors.New(cperrors.KindNetwork, url, "download classpath element", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, cperrors.New(cperrors.KindNetwork, url, "unexpected HTTP status downloading classpath element", nil)
	}

	staging, err := c.registry.Create("download", "staging")
	if err != nil {
		return nil, cperrors.New(cperrors.KindAccess, url, "create download temp file", err)
	}

	if _, err := io.Copy(staging, resp.Body); err != nil {
		_ = staging.Close()
		return nil, cperrors.New(cperrors.KindNetwork, url, "stream download body", err)
	}
	if err := staging.Close(); err != nil {
		return nil, cperrors.New(cperrors.KindAccess, url, "finalise download temp file", err)
	}

	final, err := c.registry.Create("download", url)
	if err != nil {
		return nil, cperrors.New(cperrors.KindAccess, url, "create download temp file", err)
	}
	_ = final.Close()
	if err := os.Rename(staging.Name(), final.Name()); err != nil {
		return nil, cperrors.New(cperrors.KindAccess, url, "rename download temp file", err)
	}

	return &Resolution{File: stripSelfExtractingPrefix(c, final.Name())}, nil
}

func (c *Cache) openArchive(path string) (*zipstore.LogicalArchive, error) {
	return c.archives.GetOrCreate(path, func() (*zipstore.LogicalArchive, error) {
		return zipstore.OpenLogicalArchive(path, c.log.Child("archive"))
	})
}

// openInPlace parses entry (Stored, so its bytes are themselves a valid
// ZIP stream) directly out of la's mapped region, with no extraction.
// The resulting LogicalArchive is cached under the same synthetic key
// ("parentPath!entryName") that the recursive resolver already uses to
// address it, so later lookups for this chain key hit the cache before
// openArchive ever tries (and fails) to mmap it as a literal path.
func (c *Cache) openInPlace(la *zipstore.LogicalArchive, parentPath string, entry *zipstore.ArchiveEntry) (string, error) {
	chainKey := parentPath + "!" + entry.Name

	_, err := c.archives.GetOrCreate(chainKey, func() (*zipstore.LogicalArchive, error) {
		slice, err := entry.Slice()
		if err != nil {
			return nil, err
		}
		return zipstore.OpenLogicalArchiveSlice(slice, c.log.Child("archive"))
	})
	if err != nil {
		return "", err
	}
	return chainKey, nil
}

// extractEntry unzips entry from la (whose canonical path is parentPath)
// into a fresh registered temp file, memoised per (parentPath, entry
// name) so concurrent resolution of the same inner path extracts exactly
// once.
func (c *Cache) extractEntry(la *zipstore.LogicalArchive, parentPath string, entry *zipstore.ArchiveEntry) (string, error) {
	res, err := c.resolved.GetOrCreate("extract:"+parentPath+"!"+entry.Name, func() (*Resolution, error) {
		stream, err := entry.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = stream.Close() }()

		f, err := c.registry.Create("nested", entry.Name)
		if err != nil {
			return nil, cperrors.New(cperrors.KindAccess, parentPath, "create extraction temp file", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := io.Copy(f, stream); err != nil {
			return nil, cperrors.NewEntry(cperrors.KindProtocolOptional, parentPath, entry.Name, 0, "inflate entry to temp file", err)
		}

		return &Resolution{File: f.Name()}, nil
	})
	if err != nil {
		return "", err
	}
	return res.File, nil
}

// stripSelfExtractingPrefix scans for the first "PK" marker in file; if a
// nonzero-length header precedes it (a self-extracting launcher stub),
// the tail from that marker onward is copied into a bare temp archive and
// that path is returned instead. Files that already start with "PK", or
// that contain no "PK" marker at all, are returned unchanged.
func stripSelfExtractingPrefix(c *Cache, file string) string {
	f, err := os.Open(file)
	if err != nil {
		return file
	}
	defer func() { _ = f.Close() }()

	const scanWindow = 1 << 20
	buf := make([]byte, scanWindow)
	n, _ := io.ReadFull(f, buf)
	buf = buf[:n]

	idx := bytes.Index(buf, []byte("PK"))
	if idx <= 0 {
		return file
	}

	if _, err := f.Seek(int64(idx), io.SeekStart); err != nil {
		return file
	}

	out, err := c.registry.Create("stub-stripped", file)
	if err != nil {
		return file
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, f); err != nil {
		return file
	}

	return out.Name()
}

func splitRightmostBang(key string) (left, right string, ok bool) {
	i := strings.LastIndexByte(key, '!')
	if i < 0 {
		return key, "", false
	}
	return key[:i], key[i+1:], true
}

func findEntry(la *zipstore.LogicalArchive, name string) *zipstore.ArchiveEntry {
	for _, e := range la.Entries() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// isDirectoryMember reports whether name should be treated as an
// in-archive directory, either because some entry is literally a
// directory record at that path (already filtered out of Entries() by
// the zipstore walk, so this falls back to suffix-matching), or because
// another entry's name starts with name+"/" - archives commonly omit
// explicit directory records entirely.
func isDirectoryMember(la *zipstore.LogicalArchive, name string) bool {
	prefix := sanitize.EntryName(name)
	if prefix == "" {
		return true
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for _, e := range la.Entries() {
		if strings.HasPrefix(e.Name, prefix) {
			return true
		}
	}
	return false
}

