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

package classpath_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cpscan/classpath"
	"github.com/sabouaram/cpscan/cplog"
)

func TestOrderBuilder_AddRejectsEmpty(t *testing.T) {
	b := classpath.NewOrderBuilder("", cplog.NopLogger())
	require.False(t, b.Add("", nil))
}

func TestOrderBuilder_AddDropsDuplicates(t *testing.T) {
	b := classpath.NewOrderBuilder("/opt/app", cplog.NopLogger())
	require.True(t, b.Add("lib/a.jar", nil))
	require.False(t, b.Add("lib/a.jar", nil))
	require.Len(t, b.Elements(), 1)
}

func TestOrderBuilder_PreservesInsertionOrder(t *testing.T) {
	b := classpath.NewOrderBuilder("/opt/app", cplog.NopLogger())
	b.Add("c.jar", nil)
	b.Add("a.jar", nil)
	b.Add("b.jar", nil)

	els := b.Elements()
	require.Equal(t, "/opt/app/c.jar", els[0].Resolved)
	require.Equal(t, "/opt/app/a.jar", els[1].Resolved)
	require.Equal(t, "/opt/app/b.jar", els[2].Resolved)
}

func TestOrderBuilder_FilterRejects(t *testing.T) {
	b := classpath.NewOrderBuilder("", cplog.NopLogger(), func(e classpath.Element) bool {
		return e.Resolved != "/blocked.jar"
	})
	require.False(t, b.Add("/blocked.jar", nil))
	require.True(t, b.Add("/ok.jar", nil))
}

func TestOrderBuilder_WildcardDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jar"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jar"), []byte("b"), 0o644))

	b := classpath.NewOrderBuilder("", cplog.NopLogger())
	require.True(t, b.Add(dir+"/*", nil))
	require.Len(t, b.Elements(), 2)
}

func TestOrderBuilder_Merge(t *testing.T) {
	a := classpath.NewOrderBuilder("/opt", cplog.NopLogger())
	a.Add("a.jar", nil)

	b := classpath.NewOrderBuilder("/opt", cplog.NopLogger())
	b.Add("b.jar", nil)

	a.Merge(b)
	els := a.Elements()
	require.Len(t, els, 2)
	require.Equal(t, "/opt/b.jar", els[1].Resolved)
}

func TestSplitPathList_URLAware(t *testing.T) {
	parts := classpath.SplitPathList("/opt/a.zip:/opt/b.zip:http://host/c.jar")
	require.Equal(t, []string{"/opt/a.zip", "/opt/b.zip", "http://host/c.jar"}, parts)
}

// TestSplitPathList_JarSuffixedPathNotMistakenForScheme guards against
// matching a scheme token against an arbitrary trailing slice of the
// whole string: a plain path that happens to end in ".jar" must still
// split normally, and a genuine "jar:file:" chain must still not split.
func TestSplitPathList_JarSuffixedPathNotMistakenForScheme(t *testing.T) {
	parts := classpath.SplitPathList("/a/a.jar:jar:file:/x.jar:http://h/b.jar")
	require.Equal(t, []string{"/a/a.jar", "jar:file:/x.jar", "http://h/b.jar"}, parts)
}

func TestSplitPathList_JarFileSchemeNotSplit(t *testing.T) {
	parts := classpath.SplitPathList("jar:file:/opt/a.zip!entry")
	require.Equal(t, []string{"jar:file:/opt/a.zip!entry"}, parts)
}
