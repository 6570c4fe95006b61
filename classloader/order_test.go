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

package classloader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cpscan/classloader"
	"github.com/sabouaram/cpscan/classpath"
	"github.com/sabouaram/cpscan/cplog"
)

type fakeNode struct {
	id     string
	parent classloader.Node
}

func (n *fakeNode) Parent() classloader.Node { return n.parent }
func (n *fakeNode) Identity() string         { return n.id }

type fakeModule struct {
	name     string
	location string
	system   bool
}

func (m fakeModule) Name() string     { return m.name }
func (m fakeModule) Location() string { return m.location }
func (m fakeModule) IsSystem() bool   { return m.system }

type fakeLayer struct {
	id      string
	parents []classloader.LayerNode
	modules []classloader.ModuleNode
}

func (l *fakeLayer) Identity() string                    { return l.id }
func (l *fakeLayer) Parents() []classloader.LayerNode    { return l.parents }
func (l *fakeLayer) Modules() []classloader.ModuleNode   { return l.modules }

func TestPruneAncestors_OnlyLeavesSurvive(t *testing.T) {
	boot := &fakeNode{id: "boot"}
	platform := &fakeNode{id: "platform", parent: boot}
	app := &fakeNode{id: "app", parent: platform}

	registry := classloader.NewHandlerRegistry(nil)
	b := classpath.NewOrderBuilder("", cplog.NopLogger())

	ordered, _, _, err := classloader.Order(
		[]classloader.Node{boot, platform, app},
		nil, registry, nil, b, nil, cplog.NopLogger(),
	)
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	require.Equal(t, "app", ordered[0].Identity())
}

func TestOrder_ModulesPartitionedSystemVsNonSystem(t *testing.T) {
	layer := &fakeLayer{
		id: "boot-layer",
		modules: []classloader.ModuleNode{
			fakeModule{name: "java.base", location: "/jdk/java.base", system: true},
			fakeModule{name: "com.acme.widgets", location: "/app/widgets", system: false},
		},
	}

	registry := classloader.NewHandlerRegistry(nil)
	b := classpath.NewOrderBuilder("", cplog.NopLogger())

	_, system, nonSystem, err := classloader.Order(
		nil, []classloader.LayerNode{layer}, registry, nil, b,
		[]string{"java.", "jdk."}, cplog.NopLogger(),
	)
	require.NoError(t, err)
	require.Len(t, system, 1)
	require.Equal(t, "java.base", system[0].Name())
	require.Len(t, nonSystem, 1)
	require.Equal(t, "com.acme.widgets", nonSystem[0].Name())
}

func TestOrder_ModulesDeduplicatedAcrossLayers_FirstWins(t *testing.T) {
	shared := fakeModule{name: "com.acme.shared", location: "/app/shared"}

	parentLayer := &fakeLayer{id: "parent", modules: []classloader.ModuleNode{shared}}
	childLayer := &fakeLayer{id: "child", parents: []classloader.LayerNode{parentLayer}, modules: []classloader.ModuleNode{shared}}

	registry := classloader.NewHandlerRegistry(nil)
	b := classpath.NewOrderBuilder("", cplog.NopLogger())

	_, _, nonSystem, err := classloader.Order(
		nil, []classloader.LayerNode{childLayer}, registry, nil, b, nil, cplog.NopLogger(),
	)
	require.NoError(t, err)
	require.Len(t, nonSystem, 1)
}

func TestOrder_LayersTopologicallySorted(t *testing.T) {
	// Module names are chosen so that a plain name sort would put the
	// child's module first: only the parent-before-child layer order
	// puts "z.parent" ahead of "a.child".
	parent := &fakeLayer{id: "parent", modules: []classloader.ModuleNode{fakeModule{name: "z.parent", location: "/p"}}}
	child := &fakeLayer{id: "child", parents: []classloader.LayerNode{parent}, modules: []classloader.ModuleNode{fakeModule{name: "a.child", location: "/c"}}}

	registry := classloader.NewHandlerRegistry(nil)
	b := classpath.NewOrderBuilder("", cplog.NopLogger())

	_, _, nonSystem, err := classloader.Order(nil, []classloader.LayerNode{child, parent}, registry, nil, b, nil, cplog.NopLogger())
	require.NoError(t, err)
	require.Len(t, nonSystem, 2)
	require.Equal(t, "z.parent", nonSystem[0].Name())
	require.Equal(t, "a.child", nonSystem[1].Name())
}

type recordingHandler struct {
	order classloader.DelegationOrder
	calls *[]string
}

func (h recordingHandler) Handle(_ classloader.HandlerSpec, loader classloader.Node, _ *classpath.OrderBuilder, _ cplog.Logger) error {
	*h.calls = append(*h.calls, loader.Identity())
	return nil
}
func (h recordingHandler) DelegationOrder(classloader.Node) classloader.DelegationOrder { return h.order }
func (h recordingHandler) EmbeddedLoader(classloader.Node) (classloader.Node, bool)     { return nil, false }

func TestOrder_DelegationOrderControlsVisitSequence(t *testing.T) {
	boot := &fakeNode{id: "boot"}
	app := &fakeNode{id: "app", parent: boot}

	var calls []string
	registry := classloader.NewHandlerRegistry(recordingHandler{order: classloader.ParentFirst, calls: &calls})
	b := classpath.NewOrderBuilder("", cplog.NopLogger())

	_, _, _, err := classloader.Order([]classloader.Node{app}, nil, registry, nil, b, nil, cplog.NopLogger())
	require.NoError(t, err)
	require.Equal(t, []string{"boot", "app"}, calls)
}

func TestOrder_EmbeddedLoaderCycleIsBroken(t *testing.T) {
	a := &fakeNode{id: "a"}

	registry := classloader.NewHandlerRegistry(nil)
	registry.Register("a", cyclicHandler{})
	b := classpath.NewOrderBuilder("", cplog.NopLogger())

	_, _, _, err := classloader.Order([]classloader.Node{a}, nil, registry, nil, b, nil, cplog.NopLogger())
	require.NoError(t, err)
}

type cyclicHandler struct{}

func (cyclicHandler) Handle(classloader.HandlerSpec, classloader.Node, *classpath.OrderBuilder, cplog.Logger) error {
	return nil
}
func (cyclicHandler) DelegationOrder(classloader.Node) classloader.DelegationOrder { return classloader.ParentFirst }
func (h cyclicHandler) EmbeddedLoader(loader classloader.Node) (classloader.Node, bool) {
	return loader, true
}
