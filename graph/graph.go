package graph

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sghaida/odigraph/model"
)

// GraphID indexes a graph inside its Tree.
type GraphID int

const noGraph GraphID = -1

// Tree is the arena holding every graph built in one Build call. Graphs
// refer to their parent and children by id.
type Tree struct {
	graphs []*Graph
	roots  []GraphID
	lookup model.Lookup
	log    zerolog.Logger

	loopKeys map[string]struct{}
	slot     uint32
}

// Graph returns the graph with the given id.
func (t *Tree) Graph(id GraphID) *Graph { return t.graphs[id] }

// Len returns the number of graphs in the tree.
func (t *Tree) Len() int { return len(t.graphs) }

// Roots returns the graphs of the root components, in Build order.
func (t *Tree) Roots() []*Graph {
	out := make([]*Graph, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.graphs[id])
	}
	return out
}

// Root returns the i-th root graph.
func (t *Tree) Root(i int) *Graph { return t.graphs[t.roots[i]] }

// Find returns the first graph whose component has the given name or whose
// path ("App/Session") equals it.
func (t *Tree) Find(name string) (*Graph, bool) {
	for _, g := range t.graphs {
		if g.model.Name == name || g.Path() == name {
			return g, true
		}
	}
	return nil, false
}

// Graph is the binding graph of one component.
//
// Local bindings are fixed by Build. Resolution results are memoized; nodes
// that were never requested during Build may still be resolved later, which
// can materialize injectable or missing bindings under the graph lock.
type Graph struct {
	tree     *Tree
	id       GraphID
	parent   GraphID
	children []GraphID
	model    *model.ComponentModel
	modules  []*model.ModuleModel

	variant    model.Variant
	condition  model.ConditionScope
	variantErr error
	sync       bool

	bindings  map[model.Node]Binding
	order     []Binding
	conflicts map[model.Node][]Binding
	inherited map[model.Node]Binding

	hierarchyLoop bool

	entryPoints     []*EntryPoint
	memberInjectors []*MembersInjector

	mu       sync.Mutex
	raw      map[model.Node]Binding
	resolved map[model.Node]Binding
	loopStub map[string]*EmptyBinding

	usage    map[Binding]*BindingUsage
	literals map[model.Literal]LiteralUsage
	loops    map[Binding][][]Binding
}

// ID returns the graph's index in its tree.
func (g *Graph) ID() GraphID { return g.id }

// Tree returns the arena the graph belongs to.
func (g *Graph) Tree() *Tree { return g.tree }

// Model returns the component declaration.
func (g *Graph) Model() *model.ComponentModel { return g.model }

// Name returns the component name.
func (g *Graph) Name() string { return g.model.Name }

// Parent returns the parent graph, or nil for a root.
func (g *Graph) Parent() *Graph {
	if g.parent == noGraph {
		return nil
	}
	return g.tree.graphs[g.parent]
}

// Children returns the child graphs in declaration order.
func (g *Graph) Children() []*Graph {
	out := make([]*Graph, 0, len(g.children))
	for _, id := range g.children {
		out = append(out, g.tree.graphs[id])
	}
	return out
}

// Ancestors returns g followed by its parents up to the root.
func (g *Graph) Ancestors() []*Graph {
	var out []*Graph
	for cur := g; cur != nil; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}

// Modules returns the modules collected for the component.
func (g *Graph) Modules() []*model.ModuleModel { return g.modules }

// Scopes returns the scopes declared by the component.
func (g *Graph) Scopes() []string { return g.model.Scopes }

// Variant returns the effective variant: parent selections overridden by
// the component's own.
func (g *Graph) Variant() model.Variant { return g.variant }

// ConditionScope is the condition under which the component is available.
func (g *Graph) ConditionScope() model.ConditionScope { return g.condition }

// RequiresSynchronizedAccess reports whether the component, or an ancestor,
// declared multi-threaded access.
func (g *Graph) RequiresSynchronizedAccess() bool { return g.sync }

// EntryPoints returns the entry points of the component.
func (g *Graph) EntryPoints() []*EntryPoint { return g.entryPoints }

// EntryPoint returns the entry point with the given name.
func (g *Graph) EntryPoint(name string) (*EntryPoint, bool) {
	for _, ep := range g.entryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return nil, false
}

// MemberInjectors returns the members injectors of the component.
func (g *Graph) MemberInjectors() []*MembersInjector { return g.memberInjectors }

// MemberInjector returns the members injector with the given name.
func (g *Graph) MemberInjector(name string) (*MembersInjector, bool) {
	for _, mi := range g.memberInjectors {
		if mi.Name == name {
			return mi, true
		}
	}
	return nil, false
}

// LocalBindings returns the bindings owned by this graph that are reachable
// from some root, with their usage.
func (g *Graph) LocalBindings() map[Binding]BindingUsage {
	out := make(map[Binding]BindingUsage, len(g.usage))
	for b, u := range g.usage {
		out[b] = *u
	}
	return out
}

// SortedLocalBindings returns the keys of LocalBindings ordered by target.
func (g *Graph) SortedLocalBindings() []Binding {
	out := make([]Binding, 0, len(g.usage))
	for b := range g.usage {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Binding) int { return model.Compare(a.Target(), b.Target()) })
	return out
}

// Usage returns the usage recorded for b, if b is a reachable local binding.
func (g *Graph) Usage(b Binding) (BindingUsage, bool) {
	u, ok := g.usage[b]
	if !ok {
		return BindingUsage{}, false
	}
	return *u, true
}

// LocalConditionLiterals returns the literals this graph evaluates and
// memoizes, with their evaluation policy.
func (g *Graph) LocalConditionLiterals() map[model.Literal]LiteralUsage {
	out := make(map[model.Literal]LiteralUsage, len(g.literals))
	for l, u := range g.literals {
		out[l] = u
	}
	return out
}

// DeclaredBindings returns the explicit local bindings in declaration order.
func (g *Graph) DeclaredBindings() []Binding { return slices.Clone(g.order) }

// Loops returns the dependency loops found starting at bindings of this graph.
func (g *Graph) Loops() [][]Binding {
	var out [][]Binding
	for _, b := range g.order {
		out = append(out, g.loops[b]...)
	}
	for b, ls := range g.loops {
		if !slices.Contains(g.order, b) {
			out = append(out, ls...)
		}
	}
	return out
}

// Path returns the component names from the root to g joined by "/".
func (g *Graph) Path() string {
	anc := g.Ancestors()
	names := make([]string, 0, len(anc))
	for i := len(anc) - 1; i >= 0; i-- {
		names = append(names, anc[i].model.Name)
	}
	return strings.Join(names, "/")
}

func (g *Graph) String() string { return "graph " + g.Path() }

// ResolveRaw returns the binding for n without following aliases.
//
// Local bindings win, then bindings inherited from ancestors. Otherwise an
// injectable constructor or assisted factory is materialized, and failing
// that a Missing binding is synthesized. The result is memoized per node.
func (g *Graph) ResolveRaw(n model.Node) Binding {
	g.mu.Lock()
	if b, ok := g.raw[n]; ok {
		g.mu.Unlock()
		return b
	}
	g.mu.Unlock()

	b := g.lookupRaw(n)

	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.raw[n]; ok {
		return existing
	}
	g.raw[n] = b
	return b
}

// ResolveBinding returns the binding for n with aliases followed.
//
// An alias chain that returns to one of its members resolves to a shared
// AliasLoop binding. The result is memoized per node.
func (g *Graph) ResolveBinding(n model.Node) Binding {
	g.mu.Lock()
	if b, ok := g.resolved[n]; ok {
		g.mu.Unlock()
		return b
	}
	g.mu.Unlock()

	b := g.ResolveRaw(n)
	var chain []*AliasBinding
	for {
		alias, ok := b.(*AliasBinding)
		if !ok {
			break
		}
		if i := slices.Index(chain, alias); i >= 0 {
			b = aliasLoopStub(chain[i:])
			break
		}
		chain = append(chain, alias)
		b = alias.Owner().ResolveRaw(alias.source)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.resolved[n]; ok {
		return existing
	}
	g.resolved[n] = b
	return b
}

func (g *Graph) lookupRaw(n model.Node) Binding {
	for cur := g; cur != nil; cur = cur.Parent() {
		if b, ok := cur.bindings[n]; ok {
			return b
		}
	}
	if n.IsContribution() || n.Qualifier != "" || n.IsFrameworkType() || g.tree.lookup == nil {
		return g.missing(n)
	}
	if f, ok := g.tree.lookup.AssistedFactory(n.Type); ok {
		return &AssistedFactoryBinding{base: g.base(n, nil), model: f}
	}
	c, ok := g.tree.lookup.InjectConstructor(n.Type)
	if !ok {
		return g.missing(n)
	}
	if len(c.Scopes) == 0 {
		return g.injectable(n, c)
	}
	for _, host := range g.Ancestors() {
		if scopesMatch(c.Scopes, host.model.Scopes) {
			if host == g {
				return g.injectable(n, c)
			}
			return host.ResolveRaw(n)
		}
	}
	m := g.missing(n)
	m.hints = append(m.hints, hintUnmatchedScope(n, c.Scopes))
	return m
}

func (g *Graph) injectable(n model.Node, c *model.InjectConstructorModel) Binding {
	match := model.MatchVariant(c.Conditionals, g.variant)
	g.tree.log.Debug().
		Str("component", g.Path()).
		Str("node", n.String()).
		Msg("materialized injectable constructor")
	return &ProvisionBinding{
		base:       g.base(n, c.Scopes),
		key:        string(c.Type),
		deps:       c.Dependencies,
		cond:       match.Scope(),
		variantErr: match.Err(),
		injectable: true,
	}
}

func (g *Graph) missing(n model.Node) *EmptyBinding {
	b := &EmptyBinding{base: g.base(n, nil), kind: Missing}
	if n.IsFrameworkType() {
		b.hints = append(b.hints, hintFrameworkType(n))
	}
	return b
}

func (g *Graph) base(n model.Node, scopes []string) base {
	return base{target: n, owner: g.id, tree: g.tree, scopes: scopes}
}

// aliasLoopStub returns the binding shared by every entry into the cycle.
func aliasLoopStub(cycle []*AliasBinding) *EmptyBinding {
	start := 0
	for i, a := range cycle {
		if model.Compare(a.target, cycle[start].target) < 0 {
			start = i
		}
	}
	nodes := make([]model.Node, 0, len(cycle)+1)
	keys := make([]string, 0, len(cycle))
	for i := range cycle {
		a := cycle[(start+i)%len(cycle)]
		nodes = append(nodes, a.target)
		keys = append(keys, a.target.String())
	}
	nodes = append(nodes, nodes[0])
	key := strings.Join(keys, "\x00")

	head := cycle[start]
	owner := head.Owner()
	owner.mu.Lock()
	defer owner.mu.Unlock()
	if stub, ok := owner.loopStub[key]; ok {
		return stub
	}
	stub := &EmptyBinding{base: owner.base(head.target, nil), kind: AliasLoop, chain: nodes}
	owner.loopStub[key] = stub
	return stub
}

func scopesMatch(want, have []string) bool {
	for _, s := range want {
		if s == model.ReusableScope || slices.Contains(have, s) {
			return true
		}
	}
	return false
}
