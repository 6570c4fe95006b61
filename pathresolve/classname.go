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

package pathresolve

import "strings"

const classSuffix = ".class"

// ClassNameToPath converts a dotted class name ("foo.bar.Baz") to a slash
// path ("foo/bar/Baz"), optionally appending the ".class" suffix.
func ClassNameToPath(name string, withExtension bool) string {
	p := strings.ReplaceAll(name, ".", "/")
	if withExtension {
		p += classSuffix
	}
	return p
}

// PathToClassName converts a slash path ("foo/bar/Baz.class") back to a
// dotted class name ("foo.bar.Baz"), stripping a trailing ".class" suffix
// if present.
func PathToClassName(path string) string {
	path = strings.TrimSuffix(path, classSuffix)
	path = strings.Trim(path, "/")
	return strings.ReplaceAll(path, "/", ".")
}

// TrimPackageSeparators strips leading/trailing '/' from a package-root
// input, the way an in-archive sub-path (the suffix after '!') must be
// before it is treated as a namespace root.
func TrimPackageSeparators(pkg string) string {
	return strings.Trim(pkg, "/")
}
