package decl

// Document is the YAML form of a set of declarations.
//
// Nodes are written "Type" or "Type@qualifier". Dependencies prefix the node
// with an optional kind: "lazy Heater", "optional-provider Pump@primary".
// Conditions are written in conjunctive form, for example
// "Features#espresso && (Features#milk || !@Config#beta)"; "@" marks a
// literal rooted at an instance resolved from the graph.
type Document struct {
	APIVersion string          `yaml:"apiVersion"`
	Modules    []ModuleSpec    `yaml:"modules"`
	Components []ComponentSpec `yaml:"components"`
	Catalog    CatalogSpec     `yaml:"catalog"`
}

// ConditionalSpec is one alternative of a conditional declaration.
type ConditionalSpec struct {
	When   string              `yaml:"when"`
	OnlyIn map[string][]string `yaml:"onlyIn"`
}

// Gate is embedded by every conditional declaration. When is shorthand for a
// single alternative without variant constraints.
type Gate struct {
	When         string            `yaml:"when"`
	Conditionals []ConditionalSpec `yaml:"conditionals"`
}

// IntoSpec marks a provision or binds declaration as a collection
// contribution.
type IntoSpec struct {
	Kind    string `yaml:"kind"` // list | set | map
	Flatten bool   `yaml:"flatten"`
	Element string `yaml:"element"`
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
}

type ProvidesSpec struct {
	Gate           `yaml:",inline"`
	Name           string    `yaml:"name"`
	Type           string    `yaml:"type"`
	Deps           []string  `yaml:"deps"`
	Scopes         []string  `yaml:"scopes"`
	ModuleInstance bool      `yaml:"moduleInstance"`
	Into           *IntoSpec `yaml:"into"`
}

type BindsSpec struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Sources []string  `yaml:"sources"`
	Scopes  []string  `yaml:"scopes"`
	Into    *IntoSpec `yaml:"into"`
}

// DeclareSpec declares a collection that may be empty.
type DeclareSpec struct {
	Kind      string `yaml:"kind"`
	Element   string `yaml:"element"`
	Key       string `yaml:"key"`
	Qualifier string `yaml:"qualifier"`
}

type ModuleSpec struct {
	Name             string         `yaml:"name"`
	Includes         []string       `yaml:"includes"`
	Subcomponents    []string       `yaml:"subcomponents"`
	RequiresInstance bool           `yaml:"requiresInstance"`
	Provides         []ProvidesSpec `yaml:"provides"`
	Binds            []BindsSpec    `yaml:"binds"`
	Declares         []DeclareSpec  `yaml:"declares"`
}

type GetterSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type DependencySpec struct {
	Type    string       `yaml:"type"`
	Getters []GetterSpec `yaml:"getters"`
}

type InputSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // instance | dependency | module
	Type string `yaml:"type"`
}

type FactorySpec struct {
	Type   string      `yaml:"type"`
	Inputs []InputSpec `yaml:"inputs"`
}

type EntryPointSpec struct {
	Name string `yaml:"name"`
	Dep  string `yaml:"dep"`
}

type MemberSpec struct {
	Name string `yaml:"name"`
	Dep  string `yaml:"dep"`
}

type MembersInjectorSpec struct {
	Name    string       `yaml:"name"`
	Target  string       `yaml:"target"`
	Members []MemberSpec `yaml:"members"`
}

type ComponentSpec struct {
	Gate             `yaml:",inline"`
	Name             string                `yaml:"name"`
	Root             bool                  `yaml:"root"`
	Scopes           []string              `yaml:"scopes"`
	MultiThreaded    bool                  `yaml:"multiThreaded"`
	Variant          map[string]string     `yaml:"variant"`
	Modules          []string              `yaml:"modules"`
	Dependencies     []DependencySpec      `yaml:"dependencies"`
	Factory          *FactorySpec          `yaml:"factory"`
	EntryPoints      []EntryPointSpec      `yaml:"entryPoints"`
	MembersInjectors []MembersInjectorSpec `yaml:"membersInjectors"`
}

type ConstructorSpec struct {
	Gate   `yaml:",inline"`
	Type   string   `yaml:"type"`
	Deps   []string `yaml:"deps"`
	Scopes []string `yaml:"scopes"`
}

type AssistedFactorySpec struct {
	Type   string   `yaml:"type"`
	Target string   `yaml:"target"`
	Params []string `yaml:"params"`
	Deps   []string `yaml:"deps"`
}

// CatalogSpec lists types materialized on demand by the graph builder.
type CatalogSpec struct {
	Constructors      []ConstructorSpec     `yaml:"constructors"`
	AssistedFactories []AssistedFactorySpec `yaml:"assistedFactories"`
}
