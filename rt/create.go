package rt

import (
	"reflect"
	"time"

	"github.com/sghaida/odigraph/di"
	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
)

// creator constructs binding values inside the component owning them.
type creator struct {
	c *Component
}

var _ graph.Visitor[any] = creator{}

func (c *Component) create(b graph.Binding) (any, error) {
	return graph.Accept[any](b, creator{c: c})
}

func (cr creator) contract(kind ContractKind, subject string) error {
	return &ContractError{Kind: kind, Component: cr.c.graph.Path(), Subject: subject}
}

// args resolves the dependencies of a binding in declaration order.
func (cr creator) args(deps []model.Dependency) ([]any, error) {
	out := make([]any, 0, len(deps))
	for _, d := range deps {
		v, err := cr.c.Access(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// call invokes a registry function and records metrics.
func (cr creator) call(subject, key string, args []any) (any, error) {
	f, err := cr.c.function(key)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	v, err := f(args...)
	cr.c.metrics.observeConstruction(cr.c.graph.Path(), start, err)
	if err != nil {
		cr.c.log.Debug().Err(err).Str("binding", subject).Msg("construction failed")
		return nil, wrapConstruction(cr.c, subject, err)
	}
	cr.c.log.Trace().Str("binding", subject).Dur("took", time.Since(start)).Msg("constructed")
	return v, nil
}

func (cr creator) VisitProvision(b *graph.ProvisionBinding) (any, error) {
	var args []any
	if name := b.ModuleInstance(); name != "" {
		m, ok := cr.c.modules[name]
		if !ok || m == nil {
			return nil, cr.contract(NullInstance, "module "+name+" for "+b.String())
		}
		args = append(args, m)
	}
	deps, err := cr.args(b.Dependencies())
	if err != nil {
		return nil, err
	}
	return cr.call(b.String(), b.Key(), append(args, deps...))
}

func (cr creator) VisitAlias(b *graph.AliasBinding) (any, error) {
	return cr.c.Access(model.On(b.Source()))
}

func (cr creator) VisitAlternatives(b *graph.AlternativesBinding) (any, error) {
	for _, n := range b.Alternatives() {
		v, err := cr.c.Access(model.Dependency{Node: n, Kind: model.Optional})
		if err != nil {
			return nil, err
		}
		if val, ok := v.(di.Optional).Get(); ok {
			return val, nil
		}
	}
	return nil, cr.contract(NotReached, b.String()+" has no present alternative")
}

func (cr creator) VisitAssistedFactory(b *graph.AssistedFactoryBinding) (any, error) {
	m := b.Model()
	return di.NewAssistedFactory(string(m.Type), m.Params, func(assisted []any) (any, error) {
		args, err := cr.args(m.Dependencies)
		if err != nil {
			return nil, err
		}
		return cr.call(b.String(), string(m.Target), append(args, assisted...))
	}), nil
}

func (cr creator) VisitComponentDependency(b *graph.ComponentDependencyBinding) (any, error) {
	name := string(b.Dependency().Type)
	v, ok := cr.c.deps[name]
	if !ok || v == nil {
		return nil, cr.contract(NullInstance, b.String())
	}
	return v, nil
}

func (cr creator) VisitComponentDependencyEntryPoint(b *graph.ComponentDependencyEntryPointBinding) (any, error) {
	dep, err := cr.c.Access(model.On(b.DependencyNode()))
	if err != nil {
		return nil, err
	}
	return cr.call(b.String(), b.Key(), []any{dep})
}

func (cr creator) VisitComponentInstance(*graph.ComponentInstanceBinding) (any, error) {
	return cr.c, nil
}

func (cr creator) VisitSubComponentFactory(b *graph.SubComponentFactoryBinding) (any, error) {
	return &ChildFactory{parent: cr.c, graph: b.Child()}, nil
}

// VisitMulti returns the upstream content followed by the present local
// contributions. Flattened contributions add every element of their slice.
// Sets drop repeated comparable values.
func (cr creator) VisitMulti(b *graph.MultiBinding) (any, error) {
	var out []any
	if up := b.Upstream(); up != nil {
		v, err := cr.c.valueOf(up)
		if err != nil {
			return nil, err
		}
		out = append(out, v.([]any)...)
	}
	for _, rc := range b.Contributions() {
		v, err := cr.c.Access(model.Dependency{Node: rc.Node, Kind: model.Optional})
		if err != nil {
			return nil, err
		}
		val, ok := v.(di.Optional).Get()
		if !ok {
			continue
		}
		if !rc.Flatten {
			out = append(out, val)
			continue
		}
		items, err := flatten(val)
		if err != nil {
			return nil, wrapConstruction(cr.c, b.String(), err)
		}
		out = append(out, items...)
	}
	if b.Kind() == model.SetCollection {
		out = dedupe(out)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

func flatten(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, di.WrongTypeError{Key: "flattened contribution", Want: "slice", GotType: rv.Type().String()}
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out, nil
}

func dedupe(items []any) []any {
	seen := map[any]struct{}{}
	out := items[:0:0]
	for _, v := range items {
		if v != nil && reflect.TypeOf(v).Comparable() {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}

// VisitMap returns the upstream entries overlaid with the present local
// entries, as map[string]any or map[string]di.Provider.
func (cr creator) VisitMap(b *graph.MapBinding) (any, error) {
	var up any
	if u := b.Upstream(); u != nil {
		v, err := cr.c.valueOf(u)
		if err != nil {
			return nil, err
		}
		up = v
	}
	if b.Providers() {
		out := map[string]di.Provider{}
		if up != nil {
			for k, v := range up.(map[string]di.Provider) {
				out[k] = v
			}
		}
		for _, e := range b.Entries() {
			v, err := cr.c.Access(model.Dependency{Node: e.Node, Kind: model.OptionalProvider})
			if err != nil {
				return nil, err
			}
			if p, ok := v.(di.Optional).Get(); ok {
				out[e.KeyValue] = p.(di.Provider)
			}
		}
		return out, nil
	}

	out := map[string]any{}
	if up != nil {
		for k, v := range up.(map[string]any) {
			out[k] = v
		}
	}
	for _, e := range b.Entries() {
		v, err := cr.c.Access(model.Dependency{Node: e.Node, Kind: model.Optional})
		if err != nil {
			return nil, err
		}
		if val, ok := v.(di.Optional).Get(); ok {
			out[e.KeyValue] = val
		}
	}
	return out, nil
}

func (cr creator) VisitInstance(b *graph.InstanceBinding) (any, error) {
	v, ok := cr.c.instances[b.Target()]
	if !ok || v == nil {
		return nil, cr.contract(NullInstance, b.String())
	}
	return v, nil
}

func (cr creator) VisitEmpty(b *graph.EmptyBinding) (any, error) {
	return nil, cr.contract(NotReached, b.String())
}
