package graph

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/sghaida/odigraph/model"
)

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	lookup model.Lookup
	log    zerolog.Logger
}

// WithLookup sets the source of injectable constructors and assisted factories.
func WithLookup(l model.Lookup) BuildOption {
	return func(o *buildOptions) { o.lookup = l }
}

// WithLogger sets the logger used while building.
func WithLogger(l zerolog.Logger) BuildOption {
	return func(o *buildOptions) { o.log = l }
}

// buildContext lives for one Build call. It interns lookup results so every
// graph of the pass sees the same declaration instances, and tracks the
// component chain to detect hierarchy loops.
type buildContext struct {
	tree  *Tree
	stack []*model.ComponentModel
}

// internedLookup memoizes a Lookup for the lifetime of one tree.
type internedLookup struct {
	inner        model.Lookup
	constructors map[model.Type]*model.InjectConstructorModel
	factories    map[model.Type]*model.AssistedFactoryModel
}

func (l *internedLookup) InjectConstructor(t model.Type) (*model.InjectConstructorModel, bool) {
	if c, ok := l.constructors[t]; ok {
		return c, c != nil
	}
	c, ok := l.inner.InjectConstructor(t)
	if !ok {
		c = nil
	}
	l.constructors[t] = c
	return c, ok
}

func (l *internedLookup) AssistedFactory(t model.Type) (*model.AssistedFactoryModel, bool) {
	if f, ok := l.factories[t]; ok {
		return f, f != nil
	}
	f, ok := l.inner.AssistedFactory(t)
	if !ok {
		f = nil
	}
	l.factories[t] = f
	return f, ok
}

// Build assembles the binding graphs of the given root components and their
// subcomponents, resolves everything reachable from entry points and member
// injectors, and records usage, condition literals and dependency loops.
//
// Build never fails: defects are recorded and reported by validation.
func Build(roots []*model.ComponentModel, opts ...BuildOption) *Tree {
	o := buildOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	t := &Tree{log: o.log, loopKeys: map[string]struct{}{}}
	if o.lookup != nil {
		t.lookup = &internedLookup{
			inner:        o.lookup,
			constructors: map[model.Type]*model.InjectConstructorModel{},
			factories:    map[model.Type]*model.AssistedFactoryModel{},
		}
	}

	ctx := &buildContext{tree: t}
	for _, r := range roots {
		t.roots = append(t.roots, ctx.buildGraph(r, noGraph))
	}
	for _, g := range t.graphs {
		g.markSelfDependent()
	}
	for _, g := range t.graphs {
		g.finalizeCollections()
	}
	computeUsage(t)
	findLoops(t)

	t.log.Debug().Int("graphs", len(t.graphs)).Msg("binding graphs built")
	return t
}

func (ctx *buildContext) buildGraph(c *model.ComponentModel, parent GraphID) GraphID {
	t := ctx.tree
	g := &Graph{
		tree:      t,
		id:        GraphID(len(t.graphs)),
		parent:    parent,
		model:     c,
		modules:   c.AllModules(),
		bindings:  map[model.Node]Binding{},
		conflicts: map[model.Node][]Binding{},
		inherited: map[model.Node]Binding{},
		raw:       map[model.Node]Binding{},
		resolved:  map[model.Node]Binding{},
		loopStub:  map[string]*EmptyBinding{},
		usage:     map[Binding]*BindingUsage{},
		literals:  map[model.Literal]LiteralUsage{},
		loops:     map[Binding][][]Binding{},
	}
	t.graphs = append(t.graphs, g)

	g.variant = model.Variant{}.Merge(c.Variant)
	parentCond := model.Unscoped
	g.sync = c.MultiThreaded
	if p := g.Parent(); p != nil {
		p.children = append(p.children, g.id)
		g.variant = p.variant.Merge(c.Variant)
		parentCond = p.condition
		g.sync = g.sync || p.sync
	}
	match := model.MatchVariant(c.Conditionals, g.variant)
	g.variantErr = match.Err()
	g.condition = parentCond.And(match.Scope())

	if slices.Contains(ctx.stack, c) {
		g.hierarchyLoop = true
		t.log.Warn().Str("component", c.Name).Msg("component hierarchy loop")
		return g.id
	}
	ctx.stack = append(ctx.stack, c)
	defer func() { ctx.stack = ctx.stack[:len(ctx.stack)-1] }()

	g.addBindings()
	g.addEntryPoints()

	seen := map[*model.ComponentModel]struct{}{}
	for _, m := range g.modules {
		for _, sub := range m.Subcomponents {
			if _, ok := seen[sub]; ok || sub == nil {
				continue
			}
			seen[sub] = struct{}{}
			childID := ctx.buildGraph(sub, g.id)
			if sub.Factory == nil || t.graphs[childID].hierarchyLoop {
				continue
			}
			g.register(&SubComponentFactoryBinding{
				base:  g.base(model.NewNode(sub.Factory.Type), nil),
				child: childID,
			})
		}
	}
	t.log.Debug().
		Str("component", g.Path()).
		Int("modules", len(g.modules)).
		Int("bindings", len(g.order)).
		Msg("graph assembled")
	return g.id
}

type collector struct {
	node    model.Node
	kind    model.CollectionKind
	key     model.Type
	value   model.Type
	items   []Contribution
	entries []MapEntry
}

func (g *Graph) addBindings() {
	c := g.model
	g.register(&ComponentInstanceBinding{base: g.base(c.Node(), nil)})

	for _, d := range c.Dependencies {
		g.register(&ComponentDependencyBinding{base: g.base(model.NewNode(d.Type), nil), dependency: d})
		for _, getter := range d.Getters {
			g.register(&ComponentDependencyEntryPointBinding{
				base:       g.base(getter.Node, nil),
				dependency: d,
				getter:     getter,
			})
		}
	}
	if c.Factory != nil {
		for _, in := range c.Factory.Inputs {
			if in.Kind == model.InstanceInput {
				g.register(&InstanceBinding{base: g.base(in.Node, nil), input: in})
			}
		}
	}

	var collections []*collector
	byNode := map[model.Node]*collector{}
	collect := func(n model.Node, kind model.CollectionKind) *collector {
		if col, ok := byNode[n]; ok {
			return col
		}
		col := &collector{node: n, kind: kind}
		byNode[n] = col
		collections = append(collections, col)
		return col
	}

	for _, m := range g.modules {
		for _, p := range m.Provides {
			match := model.MatchVariant(p.Conditionals, g.variant)
			b := &ProvisionBinding{
				base:       g.base(p.Target, p.Scopes),
				key:        p.Key(),
				deps:       p.Dependencies,
				cond:       match.Scope(),
				variantErr: match.Err(),
			}
			if p.RequiresModuleInstance {
				b.module = p.Module
			}
			if p.Collection == nil {
				g.register(b)
				continue
			}
			col := collect(p.Collection.CollectionNode(p.Target), p.Collection.Kind)
			g.tree.slot++
			b.target = model.ContributionNode(col.node, g.tree.slot)
			b.contribution = true
			g.register(b)
			col.add(p.Collection, p.Target, b.target)
		}
		for _, bm := range m.Binds {
			switch {
			case bm.Collection != nil:
				if len(bm.Sources) != 1 {
					continue
				}
				col := collect(bm.Collection.CollectionNode(bm.Target), bm.Collection.Kind)
				col.add(bm.Collection, bm.Target, bm.Sources[0])
			case len(bm.Sources) == 0:
				g.register(&EmptyBinding{base: g.base(bm.Target, bm.Scopes), kind: Explicit})
			case len(bm.Sources) == 1:
				g.register(&AliasBinding{base: g.base(bm.Target, bm.Scopes), source: bm.Sources[0], origin: bm})
			default:
				g.register(&AlternativesBinding{
					base:         g.base(bm.Target, bm.Scopes),
					alternatives: slices.Clone(bm.Sources),
					origin:       bm,
				})
			}
		}
		for _, d := range m.Declared {
			col := collect(d.Node(), d.Kind)
			if d.Kind == model.MapCollection {
				col.key, col.value = d.Key, d.Element
			}
		}
	}

	for _, col := range collections {
		if col.kind != model.MapCollection {
			g.register(&MultiBinding{
				base:          g.base(col.node, nil),
				kind:          col.kind,
				contributions: col.items,
				upstream:      g.upstreamOf(col.node),
			})
			continue
		}
		g.register(&MapBinding{
			base:     g.base(col.node, nil),
			key:      col.key,
			value:    col.value,
			entries:  col.entries,
			upstream: g.upstreamOf(col.node),
		})
		providers := model.Qualified(model.MapOf(col.key, model.ProviderOf(col.value)), col.node.Qualifier)
		g.register(&MapBinding{
			base:      g.base(providers, nil),
			key:       col.key,
			value:     col.value,
			providers: true,
			entries:   col.entries,
			upstream:  g.upstreamOf(providers),
		})
	}
}

func (col *collector) add(ct *model.CollectionTarget, target, source model.Node) {
	if ct.Kind == model.MapCollection {
		col.key, col.value = ct.Key, target.Type
		col.entries = append(col.entries, MapEntry{KeyValue: ct.KeyValue, Node: source})
		return
	}
	col.items = append(col.items, Contribution{Node: source, Flatten: ct.Flatten})
}

// upstreamOf finds the nearest ancestor that assembles the same collection.
func (g *Graph) upstreamOf(n model.Node) GraphID {
	for cur := g.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.bindings[n].(type) {
		case *MultiBinding, *MapBinding:
			return cur.id
		}
	}
	return noGraph
}

// register installs b as a local binding. A second local binding for the same
// node, or a local binding shadowing an inherited one, is a conflict.
func (g *Graph) register(b Binding) {
	n := b.Target()
	if existing, ok := g.bindings[n]; ok {
		if len(g.conflicts[n]) == 0 {
			g.conflicts[n] = []Binding{existing}
		}
		g.conflicts[n] = append(g.conflicts[n], b)
		return
	}
	switch b.(type) {
	case *MultiBinding, *MapBinding:
	default:
		for cur := g.Parent(); cur != nil; cur = cur.Parent() {
			if inherited, ok := cur.bindings[n]; ok {
				g.inherited[n] = inherited
				break
			}
		}
	}
	g.bindings[n] = b
	g.order = append(g.order, b)
}

func (g *Graph) addEntryPoints() {
	for _, ep := range g.model.EntryPoints {
		g.entryPoints = append(g.entryPoints, &EntryPoint{graph: g, Name: ep.Name, Dependency: ep.Dependency})
	}
	for _, mi := range g.model.MembersInjectors {
		g.memberInjectors = append(g.memberInjectors, &MembersInjector{
			graph:   g,
			Name:    mi.Name,
			Target:  mi.Target,
			Members: slices.Clone(mi.Members),
		})
	}
}

// markSelfDependent replaces every local binding that depends on its own
// node with a SelfDependent empty binding.
func (g *Graph) markSelfDependent() {
	for i, b := range g.order {
		switch b.(type) {
		case *MultiBinding, *MapBinding, *AliasBinding:
			continue
		}
		for _, d := range b.Dependencies() {
			if d.Node != b.Target() {
				continue
			}
			stub := &EmptyBinding{base: g.base(b.Target(), nil), kind: SelfDependent, cause: b}
			g.bindings[b.Target()] = stub
			g.order[i] = stub
			g.tree.log.Debug().Str("binding", b.String()).Msg("self-dependent binding")
			break
		}
	}
}

// finalizeCollections resolves and orders collection contributions and
// computes alternatives conditions while the tree is still private to Build.
func (g *Graph) finalizeCollections() {
	for _, b := range g.order {
		switch b := b.(type) {
		case *MultiBinding:
			b.Contributions()
		case *AlternativesBinding:
			b.ConditionScope()
		}
	}
}
