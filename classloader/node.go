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

// Node is the opaque identity of a classloader or module-layer node: a
// stable identity for set membership, plus an optional parent for
// delegation-ancestor removal.
type Node interface {
	Parent() Node
	Identity() string
}

// ModuleNode is a module reference from a module layer.
type ModuleNode interface {
	Name() string
	Location() string
	IsSystem() bool
}

// LayerNode is a module layer: a set of modules plus the layers it
// delegates to.
type LayerNode interface {
	Parents() []LayerNode
	Modules() []ModuleNode
	Identity() string
}

// DelegationOrder is the order in which a Handler visits a loader's
// parent relative to the loader itself.
type DelegationOrder uint8

const (
	// ParentFirst visits the parent before the loader itself.
	ParentFirst DelegationOrder = iota + 1
	// ParentLast visits the loader itself before its parent.
	ParentLast
)
