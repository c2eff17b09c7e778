package graph

import (
	"strconv"
	"strings"

	"github.com/sghaida/odigraph/model"
)

// sortContributions resolves contributions through owner, drops
// contributions resolving to an already seen binding and orders the rest so
// that each comes after the contributions it depends on. Ties keep
// declaration order.
func sortContributions(owner *Graph, items []Contribution) []ResolvedContribution {
	resolved := make([]ResolvedContribution, 0, len(items))
	index := map[Binding]int{}
	for _, c := range items {
		b := owner.ResolveBinding(c.Node)
		if _, dup := index[b]; dup {
			continue
		}
		index[b] = len(resolved)
		resolved = append(resolved, ResolvedContribution{Contribution: c, Binding: b})
	}

	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(resolved))
	out := make([]ResolvedContribution, 0, len(resolved))
	var visit func(i int)
	visit = func(i int) {
		if color[i] != white {
			return
		}
		color[i] = gray
		b := resolved[i].Binding
		for _, d := range b.Dependencies() {
			dep := b.Owner().ResolveBinding(d.Node)
			if j, ok := index[dep]; ok && j != i {
				visit(j)
			}
		}
		color[i] = black
		out = append(out, resolved[i])
	}
	for i := range resolved {
		visit(i)
	}
	return out
}

// loopEdges returns the bindings b needs while it is being constructed.
// Lazy and provider requests defer construction and never close a loop.
func loopEdges(b Binding) []Binding {
	var out []Binding
	owner := b.Owner()
	for _, d := range b.Dependencies() {
		switch d.Kind {
		case model.Direct, model.Optional:
			out = append(out, owner.ResolveBinding(d.Node))
		}
	}
	switch b := b.(type) {
	case *MultiBinding:
		if up := b.Upstream(); up != nil && up != Binding(b) {
			out = append(out, up)
		}
	case *MapBinding:
		if up := b.Upstream(); up != nil && up != Binding(b) {
			out = append(out, up)
		}
	}
	return out
}

// findLoops searches dependency loops from every explicit binding and every
// entry point of every graph. Each distinct loop is stored once, on the
// graph owning its canonical first binding.
func findLoops(t *Tree) {
	const (
		white = iota
		gray
		black
	)
	color := map[Binding]int{}
	var path []Binding
	var visit func(b Binding)
	visit = func(b Binding) {
		switch color[b] {
		case black:
			return
		case gray:
			for i := len(path) - 1; i >= 0; i-- {
				if path[i] == b {
					t.recordLoop(path[i:])
					break
				}
			}
			return
		}
		color[b] = gray
		path = append(path, b)
		for _, next := range loopEdges(b) {
			visit(next)
		}
		path = path[:len(path)-1]
		color[b] = black
	}
	for _, g := range t.graphs {
		for _, ep := range g.entryPoints {
			visit(g.ResolveBinding(ep.Dependency.Node))
		}
		for _, b := range g.order {
			visit(g.ResolveBinding(b.Target()))
		}
	}
}

func (t *Tree) recordLoop(cycle []Binding) {
	start := 0
	for i, b := range cycle {
		if bindingLess(b, cycle[start]) {
			start = i
		}
	}
	loop := make([]Binding, 0, len(cycle))
	keys := make([]string, 0, len(cycle))
	for i := range cycle {
		b := cycle[(start+i)%len(cycle)]
		loop = append(loop, b)
		keys = append(keys, strconv.Itoa(int(b.Owner().id))+":"+b.Target().String())
	}
	key := strings.Join(keys, "\x00")
	if _, seen := t.loopKeys[key]; seen {
		return
	}
	t.loopKeys[key] = struct{}{}
	head := loop[0]
	owner := head.Owner()
	owner.loops[head] = append(owner.loops[head], loop)
	t.log.Debug().Str("binding", head.String()).Int("length", len(loop)).Msg("dependency loop")
}

func bindingLess(a, b Binding) bool {
	if a.Owner().id != b.Owner().id {
		return a.Owner().id < b.Owner().id
	}
	return model.Compare(a.Target(), b.Target()) < 0
}
