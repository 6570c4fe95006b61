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

const upperhex = "0123456789ABCDEF"

// isURLSafe reports whether b is in the RFC 3986 "unreserved" set plus the
// small set of "extra" characters this module allows unescaped in a
// resolved-path-turned-URL, plus '/' (segment separator, kept literal).
func isURLSafe(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	case b == '!' || b == '$' || b == '&' || b == '\'' || b == '(' || b == ')' ||
		b == '*' || b == '+' || b == ',' || b == ';' || b == '=' || b == ':' || b == '@':
		return true
	case b == '/':
		return true
	default:
		return false
	}
}

// EncodeURLPath percent-encodes path outside of the RFC 3986
// unreserved+sub-delims+':'+'@'+'/' set, for constructing a URL from a
// resolved classpath element path.
func EncodeURLPath(path string) string {
	needsEscape := false
	for i := 0; i < len(path); i++ {
		if !isURLSafe(path[i]) {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return path
	}

	var b []byte
	for i := 0; i < len(path); i++ {
		c := path[i]
		if isURLSafe(c) {
			b = append(b, c)
			continue
		}
		b = append(b, '%', upperhex[c>>4], upperhex[c&0xF])
	}
	return string(b)
}
