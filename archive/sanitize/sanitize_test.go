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

package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cpscan/archive/sanitize"
)

func TestEntryName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "foo/bar.class", "foo/bar.class"},
		{"leading slash", "/foo/bar.class", "foo/bar.class"},
		{"leading dot slash", "./foo/bar.class", "foo/bar.class"},
		{"leading traversal", "../../etc/passwd", "etc/passwd"},
		{"internal traversal", "foo/../../etc/passwd", "etc/passwd"},
		{"internal dot", "foo/./bar.class", "foo/bar.class"},
		{"directory marker kept", "BOOT-INF/classes/", "BOOT-INF/classes/"},
		{"empty", "", ""},
		{"root only", "/", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, sanitize.EntryName(c.in))
		})
	}
}

func TestIsDirectory(t *testing.T) {
	require.True(t, sanitize.IsDirectory("a/b/"))
	require.False(t, sanitize.IsDirectory("a/b"))
}
