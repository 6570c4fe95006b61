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

package classpath

import "strings"

// Element is a normalised entry in the ordered classpath. Equality and
// hashing (its Key) use the resolved string only - everything else is
// metadata carried along for later stages.
type Element struct {
	Raw              string
	Resolved         string
	OriginatingNodes []string
	PackageRoot      string
}

// Key is the identity Element is de-duplicated and looked up by.
func (e Element) Key() string { return e.Resolved }

// splitPackageRoot separates a trailing "!subpath" package-root suffix
// from an otherwise-resolved element string, per the NestedPathKey
// grammar: the rightmost "!" marks descent into an archive, and its
// suffix may itself name an in-archive directory.
func splitPackageRoot(resolved string) (base, root string) {
	i := strings.LastIndexByte(resolved, '!')
	if i < 0 {
		return resolved, ""
	}
	return resolved[:i], resolved[i+1:]
}
