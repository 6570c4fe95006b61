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

package classloader

import (
	"sync"

	"github.com/sabouaram/cpscan/classpath"
	"github.com/sabouaram/cpscan/cplog"
)

// HandlerSpec carries whatever scan-wide configuration a Handler needs;
// it is opaque to this package and passed through unchanged.
type HandlerSpec interface{}

// Handler produces classpath elements for one classloader's own
// contribution (its own jars/directories), declares the order in which
// its parent should be visited relative to itself, and may expose an
// embedded classloader (the adapter pattern some frameworks use to wrap
// a real loader).
type Handler interface {
	Handle(spec HandlerSpec, loader Node, b *classpath.OrderBuilder, log cplog.Logger) error
	DelegationOrder(loader Node) DelegationOrder
	EmbeddedLoader(loader Node) (Node, bool)
}

// HandlerRegistry is a process-wide, read-mostly table of Handlers keyed
// by fully-qualified classloader class name, matched up the class
// hierarchy, falling back to a default handler when nothing matches. The
// default fallback, when none is supplied, is constructed lazily and
// exactly once, no matter how many goroutines call Lookup concurrently
// before the first registration.
type HandlerRegistry struct {
	table        sync.Map // string -> Handler
	fallbackOnce sync.Once
	fallback     Handler
}

// NewHandlerRegistry returns a registry whose fallback handler is used
// whenever no more specific entry matches. Pass nil to use the built-in
// no-op fallback.
func NewHandlerRegistry(fallback Handler) *HandlerRegistry {
	r := &HandlerRegistry{}
	if fallback != nil {
		r.fallbackOnce.Do(func() { r.fallback = fallback })
	}
	return r
}

// Register associates className (and, by convention, every subclass
// whose hierarchy walk reaches it) with h.
func (r *HandlerRegistry) Register(className string, h Handler) {
	r.table.Store(className, h)
}

// Lookup walks classNames (most-derived first, ending at the root of the
// hierarchy) and returns the first registered Handler found, or the
// fallback if none match.
func (r *HandlerRegistry) Lookup(classNames []string) Handler {
	for _, name := range classNames {
		if v, ok := r.table.Load(name); ok {
			return v.(Handler)
		}
	}

	r.fallbackOnce.Do(func() {
		if r.fallback == nil {
			r.fallback = noopHandler{}
		}
	})
	return r.fallback
}

// noopHandler adds nothing, delegates parent-first, and never claims an
// embedded loader; it is the registry's built-in fallback.
type noopHandler struct{}

func (noopHandler) Handle(HandlerSpec, Node, *classpath.OrderBuilder, cplog.Logger) error {
	return nil
}
func (noopHandler) DelegationOrder(Node) DelegationOrder { return ParentFirst }
func (noopHandler) EmbeddedLoader(Node) (Node, bool)     { return nil, false }
