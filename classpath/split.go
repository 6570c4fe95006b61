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

import (
	"runtime"
	"strings"
)

// listSeparator is the platform's classpath-list separator: ';' on
// Windows, ':' everywhere else.
func listSeparator() byte {
	if runtime.GOOS == "windows" {
		return ';'
	}
	return ':'
}

// schemeTokens are the bare (colon-stripped) URL schemes whose trailing
// ':' must not introduce a split - only relevant when the platform
// separator itself is ':'.
var schemeTokens = map[string]bool{
	"jar":   true,
	"file":  true,
	"http":  true,
	"https": true,
}

// SplitPathList splits a delimited classpath-list string on the
// platform's separator, URL-aware: on ':'-separated platforms, a ':'
// that closes out "jar", "file", "http", "https", or an escaped "\:"
// does not introduce a split.
func SplitPathList(s string) []string {
	sep := listSeparator()
	if sep == ';' {
		return splitPlain(s, ';')
	}

	var parts []string
	var cur strings.Builder
	segStart := 0

	for i := 0; i < len(s); i++ {
		if s[i] != ':' {
			cur.WriteByte(s[i])
			continue
		}
		if i > 0 && s[i-1] == '\\' {
			cur.WriteByte(s[i])
			continue
		}
		if schemeTokens[s[segStart:i]] {
			// The segment since the last split or scheme colon is
			// itself a recognised scheme ("jar", "file", ...): this
			// colon belongs to it, not to a list separator. Reset the
			// segment boundary here so a chained scheme like
			// "jar:file:" is matched token by token rather than as
			// one long accreted string.
			cur.WriteByte(s[i])
			segStart = i + 1
			continue
		}
		parts = append(parts, cur.String())
		cur.Reset()
		segStart = i + 1
	}
	parts = append(parts, cur.String())

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitPlain(s string, sep byte) []string {
	var out []string
	for _, p := range strings.Split(s, string(sep)) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
