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

package manifest

import (
	"bufio"
	"io"
	"strings"
)

// attributes is a case-insensitively keyed manifest attribute map: keys
// are stored lower-cased, values keep their original case.
type attributes map[string]string

func (a attributes) get(name string) (string, bool) {
	v, ok := a[strings.ToLower(name)]
	return v, ok
}

// parseAttributes reads a JAR-style manifest: physical lines terminated
// by CR, LF, or CRLF, where a physical line beginning with exactly one
// space continues the previous logical "Name: Value" line (the leading
// space is dropped, the remainder is appended directly).
func parseAttributes(r io.Reader) (attributes, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	scanner.Split(scanPhysicalLine)

	attrs := make(attributes)
	var logical strings.Builder
	haveLogical := false

	flush := func() {
		if !haveLogical {
			return
		}
		line := logical.String()
		if name, value, ok := splitAttributeLine(line); ok {
			attrs[strings.ToLower(name)] = value
		}
		logical.Reset()
		haveLogical = false
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, " ") {
			if haveLogical {
				logical.WriteString(line[1:])
			}
			continue
		}
		flush()
		if line == "" {
			continue
		}
		logical.WriteString(line)
		haveLogical = true
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func splitAttributeLine(line string) (name, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// scanPhysicalLine is a bufio.SplitFunc that splits on a lone CR, a lone
// LF, or a CRLF pair - manifest writers in the wild use all three, unlike
// bufio.ScanLines which does not treat a bare CR as a line terminator.
func scanPhysicalLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// need more data to know if \n follows
			return 0, nil, nil
		}
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
