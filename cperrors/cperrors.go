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

// Package cperrors classifies every failure this module can raise into one
// of a small, closed set of kinds, so callers can decide policy (skip the
// element, abort the archive, propagate) without string-matching error
// messages.
package cperrors

import (
	"errors"
	"fmt"
)

// Kind is a closed classification of failure, matching the error-handling
// table: structural defects abort one archive, access/network failures
// skip one element, concurrency failures propagate, protocol-optional
// failures skip one entry, programmer errors fail loudly.
type Kind uint8

const (
	// KindStructural covers bad EOCD/signatures, multi-disk archives,
	// oversized entry counts: the whole archive is abandoned.
	KindStructural Kind = iota + 1
	// KindAccess covers unreadable paths, failed canonicalisation, a
	// path that is not a regular file: the one classpath element is
	// skipped.
	KindAccess
	// KindNetwork covers HTTP(S) fetch failures: the element is skipped,
	// never retried inside this module.
	KindNetwork
	// KindConcurrency covers worker failures and cancellation: it
	// propagates to the work-queue barrier.
	KindConcurrency
	// KindProtocolOptional covers a malformed entry, an invalid extra
	// field, an encrypted entry, an unsupported compression method: the
	// one entry is skipped, the archive scan continues.
	KindProtocolOptional
	// KindProgrammer covers nil/out-of-range arguments: it is a bug in
	// the caller and should fail loudly (typically via panic, not this
	// type), but is classified here for completeness of the table.
	KindProgrammer
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindAccess:
		return "access"
	case KindNetwork:
		return "network"
	case KindConcurrency:
		return "concurrency"
	case KindProtocolOptional:
		return "protocol-optional"
	case KindProgrammer:
		return "programmer"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error carrying enough context (path, an optional
// offset, an optional entry name) to diagnose the failure, as required by
// the error-handling design: "every failure is reported to the logger
// with enough context to diagnose".
type Error struct {
	Kind   Kind
	Path   string
	Entry  string
	Offset int64
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)

	if e.Path != "" {
		s += fmt.Sprintf(" (path=%s", e.Path)
		if e.Entry != "" {
			s += fmt.Sprintf(" entry=%s", e.Entry)
		}
		if e.Offset != 0 {
			s += fmt.Sprintf(" offset=%d", e.Offset)
		}
		s += ")"
	}

	if e.Err != nil {
		s += ": " + e.Err.Error()
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified Error.
func New(kind Kind, path string, msg string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg, Err: cause}
}

// NewEntry builds a classified Error naming the offending archive entry.
func NewEntry(kind Kind, path, entry string, offset int64, msg string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Entry: entry, Offset: offset, Msg: msg, Err: cause}
}

// Is reports whether err (or one of the errors it wraps) is a *Error of
// the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
