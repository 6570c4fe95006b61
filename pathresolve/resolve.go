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

import (
	"regexp"
	"strings"
)

var (
	reDriveLetter = regexp.MustCompile(`^/?[A-Za-z]:`)
	reBangSlashes = regexp.MustCompile(`!/+`)
	reMultiSlash  = regexp.MustCompile(`/{2,}`)
)

// Resolve normalises raw, joining it onto basePath when raw is not itself
// an absolute form. Pass an empty basePath to resolve raw on its own.
func Resolve(basePath, raw string) string {
	if raw == "" {
		return raw
	}

	work := stripJarPrefix(raw)

	if scheme, rest, ok := absoluteScheme(work); ok {
		// HTTP(S) and jrt: locations are opaque beyond their scheme: no
		// percent-decoding, no trailing-separator stripping, no base join.
		return scheme + rest
	}

	work, wasAbsolute := applyFileScheme(work)
	wasAbsolute = wasAbsolute || isWindowsAbsolute(work)

	work = normaliseSeparators(work)
	work = percentDecodeSafe(work)

	if !wasAbsolute && !strings.HasPrefix(work, "/") && basePath != "" {
		return joinBase(basePath, work)
	}

	return work
}

// ResolveNoBase is Resolve with an empty base path.
func ResolveNoBase(raw string) string {
	return Resolve("", raw)
}

func joinBase(basePath, rest string) string {
	base := strings.TrimSuffix(normaliseSeparators(basePath), "/")
	if rest == "" {
		return base
	}
	return base + "/" + rest
}

// stripJarPrefix removes a single leading, case-insensitive "jar:" prefix.
// Archive membership itself is detected via '!', this prefix is vestigial.
func stripJarPrefix(s string) string {
	if len(s) >= 4 && strings.EqualFold(s[:4], "jar:") {
		return s[4:]
	}
	return s
}

func absoluteScheme(s string) (scheme, rest string, ok bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"):
		return s[:8], s[8:], true
	case strings.HasPrefix(lower, "http://"):
		return s[:7], s[7:], true
	case strings.HasPrefix(lower, "jrt:/"):
		return s[:5], s[5:], true
	default:
		return "", s, false
	}
}

// applyFileScheme strips a leading "file:" scheme (case-insensitive) and
// normalises the UNC/local-path forms that can follow it. It reports
// whether the resulting path is absolute.
func applyFileScheme(s string) (string, bool) {
	if len(s) < 5 || !strings.EqualFold(s[:5], "file:") {
		return s, false
	}

	rest := s[5:]

	n := 0
	for n < len(rest) && rest[n] == '/' {
		n++
	}

	switch {
	case n >= 4:
		// file:////host/share -> //host/share
		return "//" + rest[n:], true
	case n == 2:
		// file://host/share -> //host/share (already canonical)
		return rest, true
	case n == 3:
		// file:///opt/app -> /opt/app (no authority, plain local absolute)
		return "/" + rest[n:], true
	default:
		// file:/opt/app (n == 1) or no leading slash at all
		if n == 0 {
			rest = "/" + rest
		}
		return rest, true
	}
}

func isWindowsAbsolute(s string) bool {
	if reDriveLetter.MatchString(s) {
		return true
	}
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, `\\`) {
		return true
	}
	return false
}

// normaliseSeparators replaces backslashes with forward slashes, collapses
// runs of separators (preserving a UNC "//" lead), strips a trailing
// separator (unless the whole value is the root), and strips a leading
// slash immediately following a '!' archive-membership marker so an
// in-archive sub-path is always relative to the archive root.
func normaliseSeparators(s string) string {
	s = strings.ReplaceAll(s, `\`, "/")

	unc := strings.HasPrefix(s, "//")
	if unc {
		rest := reMultiSlash.ReplaceAllString(s[2:], "/")
		s = "//" + rest
	} else {
		s = reMultiSlash.ReplaceAllString(s, "/")
	}

	s = reBangSlashes.ReplaceAllString(s, "!")

	if len(s) > 1 && strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}

	return s
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}

// percentDecodeSafe decodes %HH runs as UTF-8 bytes, except it re-encodes
// '/', '\' and control bytes back to percent form so a directory traversal
// cannot be smuggled in through decoding. Invalid sequences pass through
// literally.
func percentDecodeSafe(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			v := byte(hexVal(s[i+1])*16 + hexVal(s[i+2]))
			if v == '/' || v == '\\' || v < 0x20 {
				b.WriteByte('%')
				b.WriteByte(upperhex[v>>4])
				b.WriteByte(upperhex[v&0xF])
			} else {
				b.WriteByte(v)
			}
			i += 3
			continue
		}
		b.WriteByte(c)
		i++
	}

	return b.String()
}
