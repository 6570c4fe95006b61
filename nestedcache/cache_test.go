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

package nestedcache_test

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cpscan/cplog"
	"github.com/sabouaram/cpscan/nestedcache"
)

func buildJar(t *testing.T, path string, nested []byte) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)

	top, err := w.Create("com/acme/Main.class")
	require.NoError(t, err)
	_, err = top.Write([]byte("classbytes"))
	require.NoError(t, err)

	if nested != nil {
		inner, err := w.Create("BOOT-INF/lib/inner.jar")
		require.NoError(t, err)
		_, err = inner.Write(nested)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
}

func buildInnerJarBytes(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inner.jar")
	buildJar(t, path, nil)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// buildJarWithStoredNested writes an outer jar whose BOOT-INF/lib/inner.jar
// member is itself a Stored (uncompressed) nested jar containing pkg/Leaf.class.
func buildJarWithStoredNested(t *testing.T, path string) {
	t.Helper()

	inner := filepath.Join(t.TempDir(), "inner.jar")
	innerF, err := os.Create(inner)
	require.NoError(t, err)
	iw := zip.NewWriter(innerF)
	leaf, err := iw.Create("pkg/Leaf.class")
	require.NoError(t, err)
	_, err = leaf.Write([]byte("leafbytes"))
	require.NoError(t, err)
	require.NoError(t, iw.Close())
	require.NoError(t, innerF.Close())
	innerBytes, err := os.ReadFile(inner)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	top, err := w.Create("com/acme/Main.class")
	require.NoError(t, err)
	_, err = top.Write([]byte("classbytes"))
	require.NoError(t, err)

	hdr := &zip.FileHeader{Name: "BOOT-INF/lib/inner.jar", Method: zip.Store}
	nested, err := w.CreateHeader(hdr)
	require.NoError(t, err)
	_, err = nested.Write(innerBytes)
	require.NoError(t, err)

	require.NoError(t, w.Close())
}

func TestResolve_PlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jar")
	buildJar(t, path, nil)

	c := nestedcache.New(nestedcache.NewTempFileRegistry(cplog.NopLogger()), cplog.NopLogger())
	res, err := c.Resolve(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, filepath.Clean(res.File))
}

func TestResolve_NestedEntry(t *testing.T) {
	dir := t.TempDir()
	outer := filepath.Join(dir, "outer.jar")
	buildJar(t, outer, buildInnerJarBytes(t))

	registry := nestedcache.NewTempFileRegistry(cplog.NopLogger())
	c := nestedcache.New(registry, cplog.NopLogger())

	res, err := c.Resolve(context.Background(), outer+"!com/acme/Main.class")
	require.NoError(t, err)
	require.FileExists(t, res.File)

	res2, err := c.Resolve(context.Background(), outer+"!BOOT-INF/lib/inner.jar")
	require.NoError(t, err)
	require.FileExists(t, res2.File)
	require.NoError(t, registry.Close())
}

func TestResolve_DirectoryMember(t *testing.T) {
	dir := t.TempDir()
	outer := filepath.Join(dir, "outer.jar")
	buildJar(t, outer, buildInnerJarBytes(t))

	c := nestedcache.New(nestedcache.NewTempFileRegistry(cplog.NopLogger()), cplog.NopLogger())
	res, err := c.Resolve(context.Background(), outer+"!com/acme")
	require.NoError(t, err)
	require.Equal(t, outer, res.File)
	require.Contains(t, res.RootRelativePaths, "com/acme")
}

func TestResolve_HTTPDownload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "remote.jar")
	buildJar(t, src, nil)
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	registry := nestedcache.NewTempFileRegistry(cplog.NopLogger())
	c := nestedcache.New(registry, cplog.NopLogger())

	res, err := c.Resolve(context.Background(), srv.URL+"/remote.jar")
	require.NoError(t, err)
	require.FileExists(t, res.File)
	require.NoError(t, registry.Close())
	require.NoFileExists(t, res.File)
}

func TestResolve_StoredNestedArchiveResolvesInPlaceWithoutExtraction(t *testing.T) {
	dir := t.TempDir()
	outer := filepath.Join(dir, "outer.jar")
	buildJarWithStoredNested(t, outer)

	registry := nestedcache.NewTempFileRegistry(cplog.NopLogger())
	c := nestedcache.New(registry, cplog.NopLogger())

	before := len(registry.Paths())

	res, err := c.Resolve(context.Background(), outer+"!BOOT-INF/lib/inner.jar!pkg")
	require.NoError(t, err)
	require.Equal(t, outer, res.File)
	require.Contains(t, res.RootRelativePaths, "pkg")

	require.Len(t, registry.Paths(), before, "resolving a Stored nested archive must not extract a temp file")
	require.NoError(t, registry.Close())
}

func TestResolve_ConcurrentExtractionHappensOnce(t *testing.T) {
	dir := t.TempDir()
	outer := filepath.Join(dir, "outer.jar")
	buildJar(t, outer, buildInnerJarBytes(t))

	registry := nestedcache.NewTempFileRegistry(cplog.NopLogger())
	c := nestedcache.New(registry, cplog.NopLogger())

	key := outer + "!BOOT-INF/lib/inner.jar"

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Resolve(context.Background(), key)
			require.NoError(t, err)
			paths[i] = res.File
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(paths); i++ {
		require.Equal(t, paths[0], paths[i])
	}
}
