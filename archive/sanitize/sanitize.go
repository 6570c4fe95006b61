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

// Package sanitize purely-lexically sanitises archive entry names so no
// entry can escape the root of the archive it was read from.
//
// Archive entry names are always '/'-separated regardless of host OS (the
// ZIP spec mandates it), so unlike a filesystem-path sanitiser this one
// never needs to special-case a platform separator.
package sanitize

import (
	"strings"
)

const pathSeparator = "/"

// EntryName strips a leading '/', collapses leading "./"/"../" prefixes
// and removes internal "/./" and "/../" segments, so the result can be
// joined under an archive root and never traverse outside of it.
//
// A trailing '/' (directory marker) is preserved.
func EntryName(in string) string {
	if in == "" {
		return in
	}

	trailingSlash := strings.HasSuffix(in, pathSeparator)

	clean := cleanSlashPath(in)

	if trailingSlash && clean != "" && !strings.HasSuffix(clean, pathSeparator) {
		clean += pathSeparator
	}

	return clean
}

// cleanSlashPath performs a lexical '/'-clean equivalent to path.Clean,
// but never produces a leading '/' or a ".." segment: it is meant for
// names that come from inside an archive, which have no notion of an
// absolute root of their own.
func cleanSlashPath(in string) string {
	segments := strings.Split(in, pathSeparator)
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			// else: drop the traversal attempt silently, never escape the root
		default:
			out = append(out, seg)
		}
	}

	return strings.Join(out, pathSeparator)
}

// IsDirectory reports whether a (sanitised) entry name denotes a directory,
// i.e. ends in '/'.
func IsDirectory(name string) bool {
	return strings.HasSuffix(name, pathSeparator)
}
