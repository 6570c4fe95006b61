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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sabouaram/cpscan/cplog"
	"github.com/sabouaram/cpscan/pathresolve"
)

// Filter rejects an Element before it is inserted; it returns false to
// reject.
type Filter func(Element) bool

// OrderBuilder accumulates classpath elements into one ordered,
// duplicate-free sequence. Iteration order is first-insertion order;
// membership and de-duplication are by Element.Key (resolved string).
type OrderBuilder struct {
	mu       sync.Mutex
	order    []Element
	index    map[string]int
	filters  []Filter
	basePath string
	log      cplog.Logger
}

// NewOrderBuilder returns an empty builder resolving relative elements
// against basePath.
func NewOrderBuilder(basePath string, log cplog.Logger, filters ...Filter) *OrderBuilder {
	if log == nil {
		log = cplog.NopLogger()
	}
	return &OrderBuilder{
		index:    make(map[string]int),
		filters:  filters,
		basePath: basePath,
		log:      log,
	}
}

// Elements returns a snapshot of the accumulated order.
func (b *OrderBuilder) Elements() []Element {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Element, len(b.order))
	copy(out, b.order)
	return out
}

// Add inserts raw (after resolution against the builder's base path),
// tagged with originatingNodes, and reports whether it was accepted: an
// empty element, a filter rejection, or a duplicate all return false.
//
// A trailing "X/*" expands to every file directly under X, added
// individually; a bare "*" is equivalent to "./*".
func (b *OrderBuilder) Add(raw string, originatingNodes []string) bool {
	if raw == "" {
		return false
	}

	if dir, ok := wildcardDir(raw); ok {
		return b.addWildcardDir(dir, originatingNodes)
	}

	resolved := pathresolve.Resolve(b.basePath, raw)
	if resolved == "" {
		return false
	}

	_, root := splitPackageRoot(resolved)
	el := Element{Raw: raw, Resolved: resolved, OriginatingNodes: originatingNodes, PackageRoot: root}

	for _, f := range b.filters {
		if !f(el) {
			return false
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.index[el.Key()]; exists {
		b.log.Log("duplicate classpath element dropped: " + el.Key())
		return false
	}

	b.index[el.Key()] = len(b.order)
	b.order = append(b.order, el)
	return true
}

// AddMany splits delimited on the platform path separator, URL-aware,
// and adds each resulting substring.
func (b *OrderBuilder) AddMany(delimited string, originatingNodes []string) bool {
	ok := false
	for _, part := range SplitPathList(delimited) {
		if b.Add(part, originatingNodes) {
			ok = true
		}
	}
	return ok
}

// AddAny accepts a string, a []string, or a single fmt.Stringer-like
// value, for reflective interop with callers that don't know ahead of
// time which shape they have.
func (b *OrderBuilder) AddAny(v interface{}, originatingNodes []string) bool {
	switch t := v.(type) {
	case string:
		return b.Add(t, originatingNodes)
	case []string:
		ok := false
		for _, s := range t {
			if b.Add(s, originatingNodes) {
				ok = true
			}
		}
		return ok
	case fmt.Stringer:
		return b.Add(t.String(), originatingNodes)
	default:
		return false
	}
}

// Merge appends other's elements, in its insertion order, after this
// builder's current elements.
func (b *OrderBuilder) Merge(other *OrderBuilder) {
	for _, el := range other.Elements() {
		b.Add(el.Raw, el.OriginatingNodes)
	}
}

func (b *OrderBuilder) addWildcardDir(dir string, originatingNodes []string) bool {
	resolvedDir := pathresolve.Resolve(b.basePath, dir)

	entries, err := os.ReadDir(resolvedDir)
	if err != nil {
		b.log.LogErr("expanding wildcard classpath directory "+resolvedDir, err)
		return false
	}

	ok := false
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		if b.Add(filepath.Join(resolvedDir, name), originatingNodes) {
			ok = true
		}
	}
	return ok
}

// wildcardDir reports whether raw ends in "/*" (or is a bare "*",
// equivalent to "./*"), returning the directory to expand.
func wildcardDir(raw string) (string, bool) {
	if raw == "*" {
		return ".", true
	}
	if strings.HasSuffix(raw, "/*") {
		return strings.TrimSuffix(raw, "/*"), true
	}
	return "", false
}
