package model

import (
	"slices"
	"strconv"

	"github.com/sghaida/odigraph/validation"
)

// ReusableScope marks a binding that may be cached without locking. It
// matches every component and opts out of synchronized access.
const ReusableScope = "Reusable"

// ComponentModel declares one component: what it exposes, which modules
// supply its bindings and how it is created.
type ComponentModel struct {
	Name             string
	Root             bool
	Scopes           []string
	Modules          []*ModuleModel
	Dependencies     []*ComponentDependencyModel
	EntryPoints      []EntryPoint
	MembersInjectors []MembersInjectorModel
	Factory          *ComponentFactoryModel
	Variant          Variant
	MultiThreaded    bool
	Conditionals     []Conditional
}

// Node is the node under which the component instance itself is bound.
func (c *ComponentModel) Node() Node { return NewNode(Type(c.Name)) }

func (c *ComponentModel) String() string { return "component " + c.Name }

// AllModules collects modules breadth-first following includes. Each module
// appears once, at its first encounter.
func (c *ComponentModel) AllModules() []*ModuleModel {
	seen := map[*ModuleModel]struct{}{}
	var out []*ModuleModel
	queue := slices.Clone(c.Modules)
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if m == nil {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		queue = append(queue, m.Includes...)
	}
	return out
}

// Validate checks the shape of the declaration: names, creator inputs and
// the declarations of every collected module.
func (c *ComponentModel) Validate(v *validation.Validator) {
	if c.Name == "" {
		v.Report(validation.Errorf("component has no name"))
	}
	if !c.Root && c.Factory == nil {
		v.Report(validation.Errorf("non-root %s has no factory declaration", c))
	}
	if c.Factory != nil {
		v.Inline(c.Factory)
	}

	given := map[Type]struct{}{}
	modulesGiven := map[string]struct{}{}
	if c.Factory != nil {
		for _, in := range c.Factory.Inputs {
			switch in.Kind {
			case DependencyInput:
				given[in.Node.Type] = struct{}{}
			case ModuleInput:
				modulesGiven[string(in.Node.Type)] = struct{}{}
			}
		}
	}
	for _, d := range c.Dependencies {
		if _, ok := given[d.Type]; !ok {
			v.Report(validation.Errorf("component dependency %s of %s is not an input of its factory",
				strconv.Quote(string(d.Type)), c))
		}
	}
	for _, m := range c.AllModules() {
		if !m.RequiresInstance {
			continue
		}
		if _, ok := modulesGiven[m.Name]; !ok {
			v.Report(validation.Errorf("%s requires an instance but the factory of %s does not accept it", m, c))
		}
	}
	for _, m := range c.AllModules() {
		v.Inline(m)
	}
	for i := range c.MembersInjectors {
		if len(c.MembersInjectors[i].Members) == 0 {
			v.Report(validation.Warnf("members injector %s of %s injects nothing",
				strconv.Quote(c.MembersInjectors[i].Name), c))
		}
	}
}

// ModuleModel is a named group of binding declarations.
type ModuleModel struct {
	Name             string
	Includes         []*ModuleModel
	Subcomponents    []*ComponentModel
	Provides         []*ProvidesModel
	Binds            []*BindsModel
	Declared         []DeclaredCollection
	RequiresInstance bool
}

func (m *ModuleModel) String() string { return "module " + m.Name }

// Validate reports malformed declarations of the module.
func (m *ModuleModel) Validate(v *validation.Validator) {
	for _, p := range m.Provides {
		v.Inline(p)
	}
	for _, b := range m.Binds {
		v.Inline(b)
	}
}

// ProvidesModel declares a provision function. Its registry key is
// "<module>.<name>".
type ProvidesModel struct {
	Module       string
	Name         string
	Target       Node
	Dependencies []Dependency
	Scopes       []string
	Conditionals []Conditional
	Collection   *CollectionTarget
	// RequiresModuleInstance passes the module instance as the first argument.
	RequiresModuleInstance bool
}

// Key returns the registry key of the provision function.
func (p *ProvidesModel) Key() string { return p.Module + "." + p.Name }

func (p *ProvidesModel) String() string { return "provision " + p.Key() }

// Validate reports malformed provision declarations.
func (p *ProvidesModel) Validate(v *validation.Validator) {
	if p.Target.IsFrameworkType() {
		v.Report(validation.Errorf("%s provides framework type %s", p, p.Target))
	}
	if p.Collection != nil {
		p.Collection.check(v, p.String())
	}
}

// BindsModel declares an alias (one source), alternatives (several sources)
// or an explicitly absent binding (no sources).
type BindsModel struct {
	Module     string
	Name       string
	Target     Node
	Sources    []Node
	Scopes     []string
	Collection *CollectionTarget
}

func (b *BindsModel) String() string { return "binds " + b.Module + "." + b.Name }

// Validate reports malformed binds declarations.
func (b *BindsModel) Validate(v *validation.Validator) {
	if b.Target.IsFrameworkType() {
		v.Report(validation.Errorf("%s binds framework type %s", b, b.Target))
	}
	if b.Collection != nil {
		if len(b.Sources) != 1 {
			v.Report(validation.Errorf("%s contributes to a collection and must have exactly one source, got %d",
				b, len(b.Sources)))
		}
		b.Collection.check(v, b.String())
	}
}

// CollectionKind selects the collection a declaration contributes to.
type CollectionKind uint8

const (
	ListCollection CollectionKind = iota
	SetCollection
	MapCollection
)

func (k CollectionKind) String() string {
	switch k {
	case ListCollection:
		return "list"
	case SetCollection:
		return "set"
	case MapCollection:
		return "map"
	}
	return "collection(" + strconv.Itoa(int(k)) + ")"
}

// CollectionTarget marks a declaration as a contribution to a collection.
//
// For lists and sets Element is the element type; when empty the declared
// target type is the element. Flatten contributes every element of a target
// that is itself a list of Element. Map contributions use Key as the key
// type and KeyValue as the entry key; the value type is the target type.
type CollectionTarget struct {
	Kind     CollectionKind
	Flatten  bool
	Element  Type
	Key      Type
	KeyValue string
}

// CollectionNode returns the node of the collection that target contributes to.
func (c *CollectionTarget) CollectionNode(target Node) Node {
	switch c.Kind {
	case MapCollection:
		return Qualified(MapOf(c.Key, target.Type), target.Qualifier)
	case SetCollection:
		return Qualified(SetOf(c.element(target)), target.Qualifier)
	default:
		return Qualified(ListOf(c.element(target)), target.Qualifier)
	}
}

func (c *CollectionTarget) element(target Node) Type {
	if c.Element != "" {
		return c.Element
	}
	return target.Type
}

func (c *CollectionTarget) check(v *validation.Validator, owner string) {
	switch c.Kind {
	case MapCollection:
		if c.Flatten {
			v.Report(validation.Errorf("%s can not flatten into a map", owner))
		}
		if c.Key == "" || c.KeyValue == "" {
			v.Report(validation.Errorf("%s contributes to a map without a key", owner))
		}
	case ListCollection, SetCollection:
		if c.Key != "" || c.KeyValue != "" {
			v.Report(validation.Errorf("%s declares a map key for a %s contribution", owner, c.Kind))
		}
		if c.Flatten && c.Element == "" {
			v.Report(validation.Errorf("%s flattens a collection without naming its element type", owner))
		}
	}
}

// DeclaredCollection declares a collection that may legitimately be empty.
type DeclaredCollection struct {
	Kind      CollectionKind
	Element   Type
	Key       Type
	Qualifier string
}

// Node returns the collection node being declared.
func (d DeclaredCollection) Node() Node {
	switch d.Kind {
	case MapCollection:
		return Qualified(MapOf(d.Key, d.Element), d.Qualifier)
	case SetCollection:
		return Qualified(SetOf(d.Element), d.Qualifier)
	default:
		return Qualified(ListOf(d.Element), d.Qualifier)
	}
}

// InjectConstructorModel is a type that can be constructed without an explicit
// binding. Its registry key is the type name.
type InjectConstructorModel struct {
	Type         Type
	Dependencies []Dependency
	Scopes       []string
	Conditionals []Conditional
}

// AssistedFactoryModel is a factory type producing Target from assisted
// arguments plus injected Dependencies. The target's registry key is the
// target type name and receives the injected values first.
type AssistedFactoryModel struct {
	Type         Type
	Target       Type
	Params       []string
	Dependencies []Dependency
}

// Getter is an accessor exposed by a component dependency.
type Getter struct {
	Name string
	Node Node
}

// ComponentDependencyModel is an external object whose getters are bindable.
// Getter registry keys are "<type>.<getter>".
type ComponentDependencyModel struct {
	Type    Type
	Getters []Getter
}

// InputKind classifies factory inputs.
type InputKind uint8

const (
	InstanceInput InputKind = iota
	DependencyInput
	ModuleInput
)

func (k InputKind) String() string {
	switch k {
	case InstanceInput:
		return "instance"
	case DependencyInput:
		return "dependency"
	case ModuleInput:
		return "module"
	}
	return "input(" + strconv.Itoa(int(k)) + ")"
}

// FactoryInput is one parameter of a component factory. Instance inputs bind
// Node; dependency and module inputs name the dependency type or module in
// Node.Type.
type FactoryInput struct {
	Name string
	Kind InputKind
	Node Node
}

// ComponentFactoryModel declares how a component is created.
type ComponentFactoryModel struct {
	Type   Type
	Inputs []FactoryInput
}

func (f *ComponentFactoryModel) String() string { return "factory " + string(f.Type) }

// Validate reports malformed factory inputs.
func (f *ComponentFactoryModel) Validate(v *validation.Validator) {
	names := map[string]struct{}{}
	nodes := map[Node]struct{}{}
	for _, in := range f.Inputs {
		if _, dup := names[in.Name]; dup {
			v.Report(validation.Errorf("%s declares input %s more than once", f, strconv.Quote(in.Name)))
		}
		names[in.Name] = struct{}{}
		if in.Kind != InstanceInput {
			continue
		}
		if _, dup := nodes[in.Node]; dup {
			v.Report(validation.Errorf("%s binds instance %s more than once", f, in.Node))
		}
		nodes[in.Node] = struct{}{}
	}
}

// EntryPoint is a named dependency exposed by a component.
type EntryPoint struct {
	Name       string
	Dependency Dependency
}

// Member is one injectable member of a members-injector target. Its setter
// registry key is "<target>.<name>".
type Member struct {
	Name       string
	Dependency Dependency
}

// MembersInjectorModel injects members into an existing Target value.
type MembersInjectorModel struct {
	Name    string
	Target  Type
	Members []Member
}

// Lookup gives the graph builder access to declarations that are
// materialized on demand rather than listed in modules.
type Lookup interface {
	InjectConstructor(t Type) (*InjectConstructorModel, bool)
	AssistedFactory(t Type) (*AssistedFactoryModel, bool)
}

// Catalog is a map-backed Lookup.
type Catalog struct {
	constructors map[Type]*InjectConstructorModel
	factories    map[Type]*AssistedFactoryModel
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		constructors: map[Type]*InjectConstructorModel{},
		factories:    map[Type]*AssistedFactoryModel{},
	}
}

// AddConstructor registers an injectable constructor and returns the catalog
// for chaining.
func (c *Catalog) AddConstructor(m *InjectConstructorModel) *Catalog {
	c.constructors[m.Type] = m
	return c
}

// AddAssistedFactory registers an assisted factory and returns the catalog
// for chaining.
func (c *Catalog) AddAssistedFactory(m *AssistedFactoryModel) *Catalog {
	c.factories[m.Type] = m
	return c
}

// InjectConstructor implements Lookup.
func (c *Catalog) InjectConstructor(t Type) (*InjectConstructorModel, bool) {
	m, ok := c.constructors[t]
	return m, ok
}

// AssistedFactory implements Lookup.
func (c *Catalog) AssistedFactory(t Type) (*AssistedFactoryModel, bool) {
	m, ok := c.factories[t]
	return m, ok
}
