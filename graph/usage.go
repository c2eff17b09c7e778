package graph

import (
	"github.com/sghaida/odigraph/model"
)

// BindingUsage counts how a binding is requested, per dependency kind.
type BindingUsage struct {
	counts [model.OptionalProvider + 1]int
}

// Count returns how many requests of kind k reach the binding.
func (u BindingUsage) Count(k model.DependencyKind) int { return u.counts[k] }

// Total returns the number of requests of any kind.
func (u BindingUsage) Total() int {
	n := 0
	for _, c := range u.counts {
		n += c
	}
	return n
}

// HasOptional reports whether the binding is ever requested through an
// optional kind. Such bindings check their condition at runtime.
func (u BindingUsage) HasOptional() bool {
	return u.counts[model.Optional]+u.counts[model.OptionalLazy]+u.counts[model.OptionalProvider] > 0
}

func (u *BindingUsage) add(k model.DependencyKind) { u.counts[k]++ }

// LiteralUsage selects when a condition literal is computed.
type LiteralUsage uint8

const (
	// Eager literals are computed when the component is instantiated.
	Eager LiteralUsage = iota
	// Lazy literals are computed on first access and memoized.
	Lazy
)

func (u LiteralUsage) String() string {
	if u == Eager {
		return "eager"
	}
	return "lazy"
}

type usageWalker struct {
	tree       *Tree
	queue      []Binding
	conditions map[Binding]struct{}
}

// computeUsage walks from every graph's entry points and member injectors,
// counting requests per binding in the binding's owner graph. Bindings
// requested optionally register their condition literals; instance-rooted
// literals make their root a further request, so the walk repeats until no
// new binding is reached.
func computeUsage(t *Tree) {
	w := &usageWalker{tree: t, conditions: map[Binding]struct{}{}}
	for _, g := range t.graphs {
		for _, ep := range g.entryPoints {
			w.note(g.ResolveBinding(ep.Dependency.Node), ep.Dependency.Kind)
		}
		for _, mi := range g.memberInjectors {
			for _, m := range mi.Members {
				w.note(g.ResolveBinding(m.Dependency.Node), m.Dependency.Kind)
			}
		}
	}
	for {
		w.drain()
		if !w.registerLiterals() {
			return
		}
	}
}

func (w *usageWalker) note(b Binding, k model.DependencyKind) {
	owner := b.Owner()
	u, seen := owner.usage[b]
	if !seen {
		u = &BindingUsage{}
		owner.usage[b] = u
		w.queue = append(w.queue, b)
	}
	u.add(k)
}

func (w *usageWalker) drain() {
	for len(w.queue) > 0 {
		b := w.queue[0]
		w.queue = w.queue[1:]
		owner := b.Owner()
		for _, d := range b.Dependencies() {
			w.note(owner.ResolveBinding(d.Node), d.Kind)
		}
		switch b := b.(type) {
		case *MultiBinding:
			if up := b.Upstream(); up != nil {
				w.note(up, model.Direct)
			}
		case *MapBinding:
			if up := b.Upstream(); up != nil {
				w.note(up, model.Direct)
			}
		}
	}
}

// registerLiterals records the literals of every optionally used binding
// not processed yet. It reports whether new instance roots were requested.
func (w *usageWalker) registerLiterals() bool {
	requested := false
	for _, g := range w.tree.graphs {
		for _, b := range g.SortedLocalBindings() {
			if !g.usage[b].HasOptional() {
				continue
			}
			if _, done := w.conditions[b]; done {
				continue
			}
			w.conditions[b] = struct{}{}

			own := b.ConditionScope()
			inherited := g.ConditionScope()
			eager := unitLiterals(own.And(inherited))

			host := g
			if p := g.Parent(); p != nil {
				host = p
			}
			for _, l := range inherited.Literals() {
				if w.register(host, l, eager) {
					requested = true
				}
			}
			for _, l := range own.Literals() {
				if w.register(g, l, eager) {
					requested = true
				}
			}
		}
	}
	return requested
}

// register adds l to the literal table of the first graph, starting at g and
// walking up, that already holds it, or to g. Instance roots are requested
// from the graph that holds the literal.
func (w *usageWalker) register(g *Graph, l model.Literal, eager map[model.Literal]struct{}) bool {
	policy := Lazy
	if _, ok := eager[l]; ok && !l.Instance {
		policy = Eager
	}
	for _, cur := range g.Ancestors() {
		if existing, ok := cur.literals[l]; ok {
			if policy == Eager && existing == Lazy {
				cur.literals[l] = Eager
			}
			return false
		}
	}
	g.literals[l] = policy
	if !l.Instance {
		return false
	}
	w.note(g.ResolveBinding(l.Root), model.Direct)
	return true
}

// unitLiterals returns the normalized literals that form a clause of s on
// their own. Literals sharing a clause stay behind the others of that clause
// and are computed lazily.
func unitLiterals(s model.ConditionScope) map[model.Literal]struct{} {
	out := map[model.Literal]struct{}{}
	for _, clause := range s.Clauses() {
		if len(clause) == 1 {
			out[clause[0].Normalized()] = struct{}{}
		}
	}
	return out
}
