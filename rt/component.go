package rt

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sghaida/odigraph/di"
	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
)

// Option configures Instantiate and InstantiateChild.
type Option func(*options)

type options struct {
	parent    *Component
	instances map[model.Node]any
	deps      map[string]any
	modules   map[string]any
	registry  di.Registry
	log       zerolog.Logger
	metrics   *Metrics
	logSet    bool
}

// WithParent sets the parent component instance.
func WithParent(p *Component) Option {
	return func(o *options) { o.parent = p }
}

// WithInstances supplies the values of the factory's instance inputs, by node.
func WithInstances(v map[model.Node]any) Option {
	return func(o *options) { o.instances = v }
}

// WithComponentDependencies supplies component dependency objects, by type name.
func WithComponentDependencies(v map[string]any) Option {
	return func(o *options) { o.deps = v }
}

// WithModuleInstances supplies module instances, by module name.
func WithModuleInstances(v map[string]any) Option {
	return func(o *options) { o.modules = v }
}

// WithRegistry sets the registry holding provision, literal, getter and
// setter functions. Children default to their parent's registry.
func WithRegistry(r di.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger. Children default to their parent's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log, o.logSet = l, true }
}

// WithMetrics sets the metrics sink. Children default to their parent's.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Component is a running instance of a binding graph.
//
// It owns one access strategy per local binding and one memo slot per local
// condition literal. Bindings owned by an ancestor graph are served by the
// parent instance. A Component is safe for concurrent use when its graph
// requires synchronized access.
type Component struct {
	id       uuid.UUID
	graph    *graph.Graph
	parent   *Component
	registry di.Registry

	instances map[model.Node]any
	deps      map[string]any
	modules   map[string]any

	rawLog  zerolog.Logger
	log     zerolog.Logger
	metrics *Metrics

	strategies sync.Map // graph.Binding -> *strategy
	literals   map[model.Literal]*literalSlot
	extra      sync.Map // model.Literal -> *literalSlot
}

// Instantiate creates an instance of a root graph, or of a child graph when
// WithParent is given. Eager condition literals are computed before it
// returns.
func Instantiate(g *graph.Graph, opts ...Option) (*Component, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parent != nil {
		if o.parent.graph != g.Parent() {
			return nil, fmt.Errorf("%w: %s under %s", ErrWrongParent, g.Path(), o.parent.graph.Path())
		}
		if o.registry == nil {
			o.registry = o.parent.registry
		}
		if o.metrics == nil {
			o.metrics = o.parent.metrics
		}
		if !o.logSet {
			o.log = o.parent.rawLog
		}
	} else if g.Parent() != nil {
		return nil, fmt.Errorf("%w: %s needs an instance of %s", ErrWrongParent, g.Path(), g.Parent().Path())
	}

	c := &Component{
		id:        uuid.New(),
		graph:     g,
		parent:    o.parent,
		registry:  o.registry,
		instances: o.instances,
		deps:      o.deps,
		modules:   o.modules,
		rawLog:    o.log,
		metrics:   o.metrics,
		literals:  map[model.Literal]*literalSlot{},
	}
	c.log = o.log.With().Str("component", g.Path()).Str("id", c.id.String()).Logger()

	local := g.LocalConditionLiterals()
	for l := range local {
		c.literals[l] = &literalSlot{}
	}
	for _, l := range sortedLiterals(local) {
		if local[l] != graph.Eager {
			continue
		}
		if _, err := c.literalValue(l, c.literals[l]); err != nil {
			return nil, err
		}
	}

	c.log.Debug().
		Int("literals", len(local)).
		Bool("synchronized", g.RequiresSynchronizedAccess()).
		Msg("component instantiated")
	return c, nil
}

// InstantiateChild creates an instance of child under parent.
func InstantiateChild(parent *Component, child *graph.Graph, opts ...Option) (*Component, error) {
	return Instantiate(child, append([]Option{WithParent(parent)}, opts...)...)
}

// ChildFactory creates instances of a child component. It is the value of
// a subcomponent factory binding.
type ChildFactory struct {
	parent *Component
	graph  *graph.Graph
}

// Graph returns the child graph.
func (f *ChildFactory) Graph() *graph.Graph { return f.graph }

// Create instantiates a new child component.
func (f *ChildFactory) Create(opts ...Option) (*Component, error) {
	return InstantiateChild(f.parent, f.graph, opts...)
}

// ID returns the instance id.
func (c *Component) ID() uuid.UUID { return c.id }

// Graph returns the graph the component instantiates.
func (c *Component) Graph() *graph.Graph { return c.graph }

// Parent returns the parent instance, or nil.
func (c *Component) Parent() *Component { return c.parent }

// EntryPoint returns the value of the named entry point, shaped by its
// dependency kind.
func (c *Component) EntryPoint(name string) (any, error) {
	ep, ok := c.graph.EntryPoint(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownEntryPoint, name, c.graph.Path())
	}
	return c.Access(ep.Dependency)
}

// Inject sets every member of the named members injector on target by
// calling the "<target>.<member>" setters of the registry.
func (c *Component) Inject(name string, target any) error {
	mi, ok := c.graph.MemberInjector(name)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnknownMembersInjector, name, c.graph.Path())
	}
	if target == nil {
		return &ContractError{Kind: NullInstance, Component: c.graph.Path(), Subject: mi.String()}
	}
	for _, m := range mi.Members {
		v, err := c.Access(m.Dependency)
		if err != nil {
			return err
		}
		key := string(mi.Target) + "." + m.Name
		set, err := c.function(key)
		if err != nil {
			return err
		}
		if _, err := set(target, v); err != nil {
			return wrapConstruction(c, "member "+key, err)
		}
	}
	return nil
}

// Access resolves d through the component's graph and returns its value:
// the value itself for Direct, a *di.Lazy for Lazy, a di.Provider for
// Provider and a di.Optional wrapping one of those for the optional kinds.
func (c *Component) Access(d model.Dependency) (any, error) {
	s, err := c.strategyFor(c.graph.ResolveBinding(d.Node))
	if err != nil {
		return nil, err
	}
	switch d.Kind {
	case model.Direct:
		return s.get()
	case model.Lazy:
		return di.NewLazy(s.get), nil
	case model.Provider:
		return di.NewProvider(s.get), nil
	}

	present, err := s.present()
	if err != nil {
		return nil, err
	}
	if !present {
		return di.Absent(), nil
	}
	switch d.Kind {
	case model.OptionalLazy:
		return di.Present(di.NewLazy(s.construct)), nil
	case model.OptionalProvider:
		return di.Present(di.NewProvider(s.construct)), nil
	}
	v, err := s.construct()
	if err != nil {
		return nil, err
	}
	return di.Present(v), nil
}

// owning returns the instance in c's ancestry that instantiates g.
func (c *Component) owning(g *graph.Graph) (*Component, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.graph == g {
			return cur, true
		}
	}
	return nil, false
}

func (c *Component) function(key string) (di.Func, error) {
	f, err := di.FuncFor(c.registry, key)
	if err != nil {
		return nil, &ContractError{Kind: MissingEntry, Component: c.graph.Path(), Subject: key, Err: err}
	}
	return f, nil
}
