package graph

import (
	"fmt"
	"slices"

	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/validation"
)

// Binding is the decided way to produce a value for a node.
//
// The set of implementations is closed; consumers dispatch with Accept and a
// Visitor. A binding belongs to exactly one graph and reaches other bindings
// only by resolving nodes through that graph.
type Binding interface {
	validation.Validatable

	Target() model.Node
	Owner() *Graph
	Scopes() []string
	ConditionScope() model.ConditionScope
	Dependencies() []model.Dependency

	binding()
}

type base struct {
	target model.Node
	owner  GraphID
	tree   *Tree
	scopes []string
}

func (b *base) Target() model.Node { return b.target }
func (b *base) Owner() *Graph      { return b.tree.graphs[b.owner] }
func (b *base) Scopes() []string   { return b.scopes }
func (b *base) binding()           {}

// ProvisionBinding calls a registered function. It covers module provisions
// and injectable constructors.
type ProvisionBinding struct {
	base
	key          string
	deps         []model.Dependency
	cond         model.ConditionScope
	variantErr   error
	module       string
	injectable   bool
	contribution bool
}

// Key returns the registry key of the provision function.
func (b *ProvisionBinding) Key() string { return b.key }

// ModuleInstance names the module whose instance is passed as the first
// argument, or "" when the function needs none.
func (b *ProvisionBinding) ModuleInstance() string { return b.module }

// Injectable reports whether the binding was materialized from an
// injectable constructor.
func (b *ProvisionBinding) Injectable() bool { return b.injectable }

func (b *ProvisionBinding) ConditionScope() model.ConditionScope { return b.cond }
func (b *ProvisionBinding) Dependencies() []model.Dependency     { return b.deps }

func (b *ProvisionBinding) String() string {
	if b.injectable {
		return "inject-constructor " + string(b.target.Type)
	}
	return "provision " + b.key + " -> " + b.target.String()
}

// AliasBinding redirects a node to another node.
type AliasBinding struct {
	base
	source model.Node
	origin *model.BindsModel
}

// Source is the node the alias redirects to.
func (b *AliasBinding) Source() model.Node { return b.source }

func (b *AliasBinding) ConditionScope() model.ConditionScope {
	return b.Owner().ResolveBinding(b.target).ConditionScope()
}

func (b *AliasBinding) Dependencies() []model.Dependency {
	return []model.Dependency{model.On(b.source)}
}

func (b *AliasBinding) String() string {
	return "alias " + b.target.String() + " -> " + b.source.String()
}

// AlternativesBinding picks the first alternative whose condition holds.
type AlternativesBinding struct {
	base
	alternatives []model.Node
	origin       *model.BindsModel

	cond      *model.ConditionScope
	computing bool
}

// Alternatives returns the candidate nodes in declaration order.
func (b *AlternativesBinding) Alternatives() []model.Node { return b.alternatives }

// ConditionScope is the disjunction of every alternative's condition. It is
// computed while the tree is built and never changes afterwards.
func (b *AlternativesBinding) ConditionScope() model.ConditionScope {
	if b.cond != nil {
		return *b.cond
	}
	if b.computing {
		return model.Never
	}
	b.computing = true
	s := model.Never
	owner := b.Owner()
	for _, alt := range b.alternatives {
		s = s.Or(owner.ResolveBinding(alt).ConditionScope())
	}
	b.computing = false
	b.cond = &s
	return s
}

// Dependencies requests every alternative optionally: absent alternatives
// are skipped at runtime.
func (b *AlternativesBinding) Dependencies() []model.Dependency {
	out := make([]model.Dependency, 0, len(b.alternatives))
	for _, n := range b.alternatives {
		out = append(out, model.Dependency{Node: n, Kind: model.Optional})
	}
	return out
}

func (b *AlternativesBinding) String() string {
	return fmt.Sprintf("alternatives %s -> %v", b.target, b.alternatives)
}

// AssistedFactoryBinding produces a factory combining assisted arguments
// with injected dependencies.
type AssistedFactoryBinding struct {
	base
	model *model.AssistedFactoryModel
}

// Model returns the assisted factory declaration.
func (b *AssistedFactoryBinding) Model() *model.AssistedFactoryModel { return b.model }

func (b *AssistedFactoryBinding) ConditionScope() model.ConditionScope { return model.Unscoped }
func (b *AssistedFactoryBinding) Dependencies() []model.Dependency     { return b.model.Dependencies }

func (b *AssistedFactoryBinding) String() string {
	return "assisted-factory " + string(b.model.Type) + " -> " + string(b.model.Target)
}

// ComponentDependencyBinding exposes an object given to the component factory.
type ComponentDependencyBinding struct {
	base
	dependency *model.ComponentDependencyModel
}

// Dependency returns the component dependency declaration.
func (b *ComponentDependencyBinding) Dependency() *model.ComponentDependencyModel {
	return b.dependency
}

func (b *ComponentDependencyBinding) ConditionScope() model.ConditionScope { return model.Unscoped }
func (b *ComponentDependencyBinding) Dependencies() []model.Dependency     { return nil }

func (b *ComponentDependencyBinding) String() string {
	return "component-dependency " + string(b.dependency.Type)
}

// ComponentDependencyEntryPointBinding exposes a getter of a component dependency.
type ComponentDependencyEntryPointBinding struct {
	base
	dependency *model.ComponentDependencyModel
	getter     model.Getter
}

// Key returns the registry key of the getter.
func (b *ComponentDependencyEntryPointBinding) Key() string {
	return string(b.dependency.Type) + "." + b.getter.Name
}

// DependencyNode is the node of the component dependency the getter is called on.
func (b *ComponentDependencyEntryPointBinding) DependencyNode() model.Node {
	return model.NewNode(b.dependency.Type)
}

func (b *ComponentDependencyEntryPointBinding) ConditionScope() model.ConditionScope {
	return model.Unscoped
}

func (b *ComponentDependencyEntryPointBinding) Dependencies() []model.Dependency {
	return []model.Dependency{model.On(b.DependencyNode())}
}

func (b *ComponentDependencyEntryPointBinding) String() string {
	return "component-dependency-getter " + b.Key() + " -> " + b.target.String()
}

// ComponentInstanceBinding yields the component instance itself.
type ComponentInstanceBinding struct {
	base
}

func (b *ComponentInstanceBinding) ConditionScope() model.ConditionScope { return model.Unscoped }
func (b *ComponentInstanceBinding) Dependencies() []model.Dependency     { return nil }
func (b *ComponentInstanceBinding) String() string {
	return "component-instance " + b.target.String()
}

// SubComponentFactoryBinding yields a factory for a child component.
type SubComponentFactoryBinding struct {
	base
	child GraphID
}

// Child returns the graph of the created component.
func (b *SubComponentFactoryBinding) Child() *Graph { return b.tree.graphs[b.child] }

// ConditionScope is the child component's activation condition.
func (b *SubComponentFactoryBinding) ConditionScope() model.ConditionScope {
	return b.Child().ConditionScope()
}

func (b *SubComponentFactoryBinding) Dependencies() []model.Dependency { return nil }

func (b *SubComponentFactoryBinding) String() string {
	return "child-factory " + b.target.String()
}

// Contribution is one declared element of a collection.
type Contribution struct {
	Node    model.Node
	Flatten bool
}

// ResolvedContribution is a contribution with its alias-resolved binding.
type ResolvedContribution struct {
	Contribution
	Binding Binding
}

// MultiBinding assembles a list or set from contributions of this graph,
// after the content of the same collection in the nearest ancestor.
type MultiBinding struct {
	base
	kind          model.CollectionKind
	contributions []Contribution
	upstream      GraphID

	resolved []ResolvedContribution
}

// Kind reports whether the collection is a list or a set.
func (b *MultiBinding) Kind() model.CollectionKind { return b.kind }

// Upstream returns the ancestor binding for the same collection, or nil.
func (b *MultiBinding) Upstream() Binding {
	if b.upstream == noGraph {
		return nil
	}
	return b.tree.graphs[b.upstream].ResolveBinding(b.target)
}

// Contributions returns the local contributions, alias-resolved,
// deduplicated by resolved target and ordered so that a contribution comes
// after the contributions it depends on.
func (b *MultiBinding) Contributions() []ResolvedContribution {
	if b.resolved == nil {
		b.resolved = sortContributions(b.Owner(), b.contributions)
	}
	return b.resolved
}

func (b *MultiBinding) ConditionScope() model.ConditionScope { return model.Unscoped }

// Dependencies requests every contribution optionally: contributions whose
// condition does not hold are skipped.
func (b *MultiBinding) Dependencies() []model.Dependency {
	out := make([]model.Dependency, 0, len(b.contributions))
	for _, c := range b.contributions {
		out = append(out, model.Dependency{Node: c.Node, Kind: model.Optional})
	}
	return out
}

func (b *MultiBinding) String() string {
	return b.kind.String() + "-binding " + b.target.String()
}

// MapEntry is one declared map contribution.
type MapEntry struct {
	KeyValue string
	Node     model.Node
}

// ResolvedMapEntry is a map entry with its alias-resolved binding.
type ResolvedMapEntry struct {
	MapEntry
	Binding Binding
}

// MapBinding assembles a map from keyed contributions of this graph, after
// the entries of the same map in the nearest ancestor. When Providers is set
// the values are providers of the contributions instead of the values.
type MapBinding struct {
	base
	key       model.Type
	value     model.Type
	providers bool
	entries   []MapEntry
	upstream  GraphID
}

// KeyType returns the declared key type.
func (b *MapBinding) KeyType() model.Type { return b.key }

// ValueType returns the declared value type.
func (b *MapBinding) ValueType() model.Type { return b.value }

// Providers reports whether values are exposed as providers.
func (b *MapBinding) Providers() bool { return b.providers }

// Upstream returns the ancestor binding for the same map, or nil.
func (b *MapBinding) Upstream() Binding {
	if b.upstream == noGraph {
		return nil
	}
	return b.tree.graphs[b.upstream].ResolveBinding(b.target)
}

// Entries returns the local entries in declaration order, alias-resolved.
func (b *MapBinding) Entries() []ResolvedMapEntry {
	owner := b.Owner()
	out := make([]ResolvedMapEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, ResolvedMapEntry{MapEntry: e, Binding: owner.ResolveBinding(e.Node)})
	}
	return out
}

// AllEntries returns upstream entries followed by local entries.
func (b *MapBinding) AllEntries() []ResolvedMapEntry {
	var out []ResolvedMapEntry
	if up, ok := b.Upstream().(*MapBinding); ok && up != b {
		out = append(out, up.AllEntries()...)
	}
	return append(out, b.Entries()...)
}

func (b *MapBinding) ConditionScope() model.ConditionScope { return model.Unscoped }

func (b *MapBinding) Dependencies() []model.Dependency {
	kind := model.Optional
	if b.providers {
		kind = model.OptionalProvider
	}
	out := make([]model.Dependency, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, model.Dependency{Node: e.Node, Kind: kind})
	}
	return out
}

func (b *MapBinding) String() string {
	return "map-binding " + b.target.String()
}

// InstanceBinding yields a value given to the component factory.
type InstanceBinding struct {
	base
	input model.FactoryInput
}

// Input returns the factory input that supplies the instance.
func (b *InstanceBinding) Input() model.FactoryInput { return b.input }

func (b *InstanceBinding) ConditionScope() model.ConditionScope { return model.Unscoped }
func (b *InstanceBinding) Dependencies() []model.Dependency     { return nil }
func (b *InstanceBinding) String() string {
	return "instance " + b.input.Name + " -> " + b.target.String()
}

// EmptyKind classifies empty bindings.
type EmptyKind uint8

const (
	// Missing: nothing binds the node.
	Missing EmptyKind = iota
	// Explicit: declared absent with a binds declaration without sources.
	Explicit
	// AliasLoop: an alias chain returns to itself.
	AliasLoop
	// SelfDependent: a binding depends on its own node.
	SelfDependent
)

func (k EmptyKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Explicit:
		return "explicit-absent"
	case AliasLoop:
		return "alias-loop"
	case SelfDependent:
		return "self-dependent"
	}
	return fmt.Sprintf("empty(%d)", uint8(k))
}

// EmptyBinding never produces a value. Its condition scope is Never.
type EmptyBinding struct {
	base
	kind  EmptyKind
	cause Binding
	chain []model.Node
	hints []string
}

// Kind returns the reason the binding is empty.
func (b *EmptyBinding) Kind() EmptyKind { return b.kind }

// Cause returns the offending binding of a SelfDependent binding.
func (b *EmptyBinding) Cause() Binding { return b.cause }

// Chain returns the alias cycle of an AliasLoop binding.
func (b *EmptyBinding) Chain() []model.Node { return slices.Clone(b.chain) }

func (b *EmptyBinding) ConditionScope() model.ConditionScope { return model.Never }
func (b *EmptyBinding) Dependencies() []model.Dependency     { return nil }

func (b *EmptyBinding) String() string {
	return "[" + b.kind.String() + "] " + b.target.String()
}

// Visitor dispatches over every binding kind.
type Visitor[R any] interface {
	VisitProvision(*ProvisionBinding) (R, error)
	VisitAlias(*AliasBinding) (R, error)
	VisitAlternatives(*AlternativesBinding) (R, error)
	VisitAssistedFactory(*AssistedFactoryBinding) (R, error)
	VisitComponentDependency(*ComponentDependencyBinding) (R, error)
	VisitComponentDependencyEntryPoint(*ComponentDependencyEntryPointBinding) (R, error)
	VisitComponentInstance(*ComponentInstanceBinding) (R, error)
	VisitSubComponentFactory(*SubComponentFactoryBinding) (R, error)
	VisitMulti(*MultiBinding) (R, error)
	VisitMap(*MapBinding) (R, error)
	VisitInstance(*InstanceBinding) (R, error)
	VisitEmpty(*EmptyBinding) (R, error)
}

// Accept calls the visitor method matching b's kind.
func Accept[R any](b Binding, v Visitor[R]) (R, error) {
	switch b := b.(type) {
	case *ProvisionBinding:
		return v.VisitProvision(b)
	case *AliasBinding:
		return v.VisitAlias(b)
	case *AlternativesBinding:
		return v.VisitAlternatives(b)
	case *AssistedFactoryBinding:
		return v.VisitAssistedFactory(b)
	case *ComponentDependencyBinding:
		return v.VisitComponentDependency(b)
	case *ComponentDependencyEntryPointBinding:
		return v.VisitComponentDependencyEntryPoint(b)
	case *ComponentInstanceBinding:
		return v.VisitComponentInstance(b)
	case *SubComponentFactoryBinding:
		return v.VisitSubComponentFactory(b)
	case *MultiBinding:
		return v.VisitMulti(b)
	case *MapBinding:
		return v.VisitMap(b)
	case *InstanceBinding:
		return v.VisitInstance(b)
	case *EmptyBinding:
		return v.VisitEmpty(b)
	}
	panic(fmt.Sprintf("graph: unknown binding type %T", b))
}
