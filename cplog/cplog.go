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

// Package cplog is the external logger collaborator contract: a small,
// tree-structured sink that classloader handlers, the archive engine and
// the nested-archive cache report diagnostics to. It is never nil-checked
// on hot paths - callers that don't want logging pass NopLogger().
package cplog

// Logger is the external logging collaborator. Implementations must be
// safe for concurrent use: the scan core logs from many worker goroutines
// at once.
type Logger interface {
	// Log reports an informational message.
	Log(msg string)
	// LogErr reports a message together with the error that caused it.
	LogErr(msg string, err error)
	// Child returns a new Logger that labels its own messages with
	// name under its parent's label, forming a tree: e.g. a per-archive
	// child of a per-session logger.
	Child(name string) Logger
}

// NopLogger returns a Logger that discards everything, for callers that
// don't want diagnostics.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Log(string)           {}
func (nopLogger) LogErr(string, error) {}
func (nopLogger) Child(string) Logger  { return nopLogger{} }
