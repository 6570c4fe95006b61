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
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestReadAtSpansRegionBoundary shrinks regionSize so a 64KiB fixture
// spans several regions, then asserts a read straddling a boundary
// returns the same bytes as a plain copy from the source file - the
// property spec.md calls out explicitly for archives over the real
// region size.
func TestReadAtSpansRegionBoundary(t *testing.T) {
	old := regionSize
	regionSize = 4096
	defer func() { regionSize = old }()

	data := make([]byte, 64*1024)
	rand.New(rand.NewSource(1)).Read(data)

	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	a, err := OpenPhysicalArchive(path)
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, 16, a.numRegions())

	// An 8KiB read starting 100 bytes before a region boundary spans
	// three regions (it crosses two boundaries).
	start := int64(4096 - 100)
	buf := make([]byte, 8192)
	n, err := a.ReadAt(buf, start)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.True(t, bytes.Equal(buf, data[start:start+8192]))
}

func TestReadAtPastEndReturnsEOF(t *testing.T) {
	old := regionSize
	regionSize = 4096
	defer func() { regionSize = old }()

	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	a, err := OpenPhysicalArchive(path)
	require.NoError(t, err)
	defer a.Close()

	buf := make([]byte, 50)
	n, err := a.ReadAt(buf, 90)
	require.Error(t, err)
	require.Equal(t, 10, n)
}
