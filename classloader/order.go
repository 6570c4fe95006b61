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
	"fmt"
	"sort"

	"github.com/sabouaram/cpscan/classpath"
	"github.com/sabouaram/cpscan/cplog"
)

// Order produces a deterministic (orderedLoaders, systemModules,
// nonSystemModules) triple from a seed set of classloaders and a forest
// of module layers.
//
// seed is pruned to its leaves (any classloader that is the transitive
// parent of another seed member is removed - delegation visits ancestors
// during actual class resolution, so keeping them here would duplicate
// work). layers are topologically sorted parent-before-child via a
// depth-first post-order walk, their modules flattened in per-layer
// name order and de-duplicated across layers by module identity
// (name+location), first-wins. A module is partitioned as system when its
// own IsSystem reports true or its name starts with one of
// systemPrefixes, and as non-system otherwise.
func Order(seed []Node, layers []LayerNode, registry *HandlerRegistry, spec HandlerSpec, b *classpath.OrderBuilder, systemPrefixes []string, log cplog.Logger) (ordered []Node, system []ModuleNode, nonSystem []ModuleNode, err error) {
	if log == nil {
		log = cplog.NopLogger()
	}

	leaves := pruneAncestors(seed)

	visited := make(map[string]bool)
	for _, n := range leaves {
		if err := visitWithHandlers(spec, n, registry, b, log, visited, make(map[string]bool)); err != nil {
			return nil, nil, nil, err
		}
	}
	ordered = leaves

	sortedLayers := topoSortLayers(layers)

	seenModule := make(map[string]bool)
	for _, layer := range sortedLayers {
		mods := append([]ModuleNode(nil), layer.Modules()...)
		sort.Slice(mods, func(i, j int) bool { return mods[i].Name() < mods[j].Name() })

		for _, m := range mods {
			key := m.Name() + "@" + m.Location()
			if seenModule[key] {
				continue
			}
			seenModule[key] = true

			if m.IsSystem() || matchesSystemPrefix(m.Name(), systemPrefixes) {
				system = append(system, m)
			} else {
				nonSystem = append(nonSystem, m)
			}
		}
	}

	return ordered, system, nonSystem, nil
}

// pruneAncestors removes every Node that is the transitive parent of
// another member of seed, leaving only the "leaves" of the delegation
// forest: their own parents will be visited as a side effect of normal
// classloader delegation, so listing them separately would be redundant.
func pruneAncestors(seed []Node) []Node {
	byIdentity := make(map[string]Node, len(seed))
	for _, n := range seed {
		byIdentity[n.Identity()] = n
	}

	isAncestor := make(map[string]bool)
	for _, n := range seed {
		for p := n.Parent(); p != nil; p = p.Parent() {
			if _, ok := byIdentity[p.Identity()]; ok {
				isAncestor[p.Identity()] = true
			}
		}
	}

	out := make([]Node, 0, len(seed))
	for _, n := range seed {
		if !isAncestor[n.Identity()] {
			out = append(out, n)
		}
	}
	return out
}

// visitWithHandlers recurses into loader's parent (or embedded loader)
// in the order its Handler declares, calling Handle for loader itself at
// the appropriate point. inStack guards against embedded-classloader
// cycles: a loader already on the current recursion path is skipped and
// logged rather than recursed into again.
func visitWithHandlers(spec HandlerSpec, loader Node, registry *HandlerRegistry, b *classpath.OrderBuilder, log cplog.Logger, visited, inStack map[string]bool) error {
	id := loader.Identity()
	if inStack[id] {
		log.Log(fmt.Sprintf("embedded classloader cycle detected at %q, breaking", id))
		return nil
	}
	if visited[id] {
		return nil
	}
	visited[id] = true
	inStack[id] = true
	defer delete(inStack, id)

	h := registry.Lookup([]string{id})

	visitParent := func() error {
		if p := loader.Parent(); p != nil {
			return visitWithHandlers(spec, p, registry, b, log, visited, inStack)
		}
		if embedded, ok := h.EmbeddedLoader(loader); ok && embedded != nil {
			return visitWithHandlers(spec, embedded, registry, b, log, visited, inStack)
		}
		return nil
	}

	handleSelf := func() error {
		if err := h.Handle(spec, loader, b, log); err != nil {
			log.LogErr(fmt.Sprintf("handler failed for classloader %q, skipping", id), err)
		}
		return nil
	}

	if h.DelegationOrder(loader) == ParentLast {
		if err := handleSelf(); err != nil {
			return err
		}
		return visitParent()
	}

	if err := visitParent(); err != nil {
		return err
	}
	return handleSelf()
}

// topoSortLayers returns layers in parent-before-child order via a
// depth-first post-order walk, so every layer appears after all of its
// parents.
func topoSortLayers(layers []LayerNode) []LayerNode {
	visited := make(map[string]bool)
	var out []LayerNode

	var visit func(l LayerNode)
	visit = func(l LayerNode) {
		id := l.Identity()
		if visited[id] {
			return
		}
		visited[id] = true
		for _, p := range l.Parents() {
			visit(p)
		}
		out = append(out, l)
	}

	for _, l := range layers {
		visit(l)
	}
	return out
}

func matchesSystemPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(name) >= len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}
