package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/odigraph/validation"
)

//
// -----------------------------------------------------------------------------
// Node / Dependency
// -----------------------------------------------------------------------------

// TestNode_Identity verifies equality, ordering and qualifier handling.
func TestNode_Identity(t *testing.T) {
	t.Parallel()

	a := NewNode("Heater")
	q := Qualified("Heater", "electric")

	assert.Equal(t, a, NewNode("Heater"))
	assert.NotEqual(t, a, q)
	assert.Equal(t, a, q.DropQualifier())
	assert.Equal(t, `@"electric" Heater`, q.String())
	assert.Negative(t, Compare(a, q))
	assert.Zero(t, Compare(q, Qualified("Heater", "electric")))
}

// TestNode_Contribution verifies contribution nodes never collide with plain nodes.
func TestNode_Contribution(t *testing.T) {
	t.Parallel()

	list := NewNode(ListOf("Plugin"))
	c1 := ContributionNode(list, 1)
	c2 := ContributionNode(list, 2)

	assert.NotEqual(t, list, c1)
	assert.NotEqual(t, c1, c2)
	assert.True(t, c1.IsContribution())
	assert.False(t, list.IsContribution())
	assert.Equal(t, list, c1.Plain())
	assert.Equal(t, "[contribution #1] []Plugin", c1.String())
	assert.Negative(t, Compare(c1, c2))
}

// TestNode_FrameworkType verifies wrapper types are recognised.
func TestNode_FrameworkType(t *testing.T) {
	t.Parallel()

	assert.True(t, NewNode(ProviderOf("Heater")).IsFrameworkType())
	assert.True(t, NewNode("di.Lazy[Heater]").IsFrameworkType())
	assert.True(t, NewNode("di.Optional[Heater]").IsFrameworkType())
	assert.False(t, NewNode("Heater").IsFrameworkType())
	assert.Equal(t, Type("map[string]Pump"), MapOf("string", "Pump"))
	assert.Equal(t, Type("set[Pump]"), SetOf("Pump"))
}

// TestDependencyKind verifies parsing and optional mapping.
func TestDependencyKind(t *testing.T) {
	t.Parallel()

	for k := Direct; k <= OptionalProvider; k++ {
		got, err := ParseDependencyKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseDependencyKind("")
	require.NoError(t, err)
	assert.Equal(t, Direct, got)

	_, err = ParseDependencyKind("eventually")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDependencyKind))

	assert.True(t, OptionalLazy.IsOptional())
	assert.False(t, Provider.IsOptional())
	assert.Equal(t, Lazy, OptionalLazy.NonOptional())
	assert.Equal(t, Direct, Direct.NonOptional())
	assert.Equal(t, "lazy Heater", On(NewNode("Heater")).WithKind(Lazy).String())
}

//
// -----------------------------------------------------------------------------
// Variant
// -----------------------------------------------------------------------------

// TestMatchVariant verifies single, missing, ambiguous and unconditional matches.
func TestMatchVariant(t *testing.T) {
	t.Parallel()

	debug := FromLiteral(lit("debug"))
	release := FromLiteral(lit("release"))
	conds := []Conditional{
		{Features: debug, OnlyIn: map[string][]string{"build": {"debug"}}},
		{Features: release, OnlyIn: map[string][]string{"build": {"release", "beta"}}},
	}

	m := MatchVariant(nil, Variant{"build": "debug"})
	require.True(t, m.Matched())
	assert.True(t, m.Scope().IsUnscoped())

	m = MatchVariant(conds, Variant{"build": "beta"})
	require.True(t, m.Matched())
	assert.True(t, m.Scope().Equal(release))

	m = MatchVariant(conds, Variant{"build": "nightly"})
	require.False(t, m.Matched())
	assert.True(t, m.Scope().IsNever())
	var none NoMatchingAlternativeError
	assert.ErrorAs(t, m.Err(), &none)

	m = MatchVariant(conds, Variant{"platform": "x86"})
	var missing MissingDimensionError
	require.ErrorAs(t, m.Err(), &missing)
	assert.Equal(t, "build", missing.Dimension)

	ambiguous := append(conds, Conditional{Features: Unscoped, OnlyIn: map[string][]string{"build": {"debug"}}})
	m = MatchVariant(ambiguous, Variant{"build": "debug"})
	var amb AmbiguousAlternativesError
	require.ErrorAs(t, m.Err(), &amb)
	assert.Equal(t, []int{0, 2}, amb.Matched)

	m = MatchVariant([]Conditional{{Features: debug}}, Variant{})
	require.True(t, m.Matched())
	assert.True(t, m.Scope().Equal(debug))
}

// TestVariant_Merge verifies child selections override parent ones.
func TestVariant_Merge(t *testing.T) {
	t.Parallel()

	parent := Variant{"build": "debug", "os": "linux"}
	merged := parent.Merge(Variant{"build": "release"})

	assert.Equal(t, Variant{"build": "release", "os": "linux"}, merged)
	assert.Equal(t, "debug", parent["build"])
	assert.Equal(t, "{build=release, os=linux}", merged.String())
}

//
// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

// TestAllModules_BreadthFirstDedup verifies module collection order.
func TestAllModules_BreadthFirstDedup(t *testing.T) {
	t.Parallel()

	d := &ModuleModel{Name: "D"}
	b := &ModuleModel{Name: "B", Includes: []*ModuleModel{d}}
	c := &ModuleModel{Name: "C", Includes: []*ModuleModel{d, b}}
	a := &ModuleModel{Name: "A", Includes: []*ModuleModel{b, c}}
	comp := &ComponentModel{Name: "App", Root: true, Modules: []*ModuleModel{a, c}}

	var names []string
	for _, m := range comp.AllModules() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"A", "C", "B", "D"}, names)
}

// TestComponentModel_Validate verifies creator and collection shape checks.
func TestComponentModel_Validate(t *testing.T) {
	t.Parallel()

	mod := &ModuleModel{
		Name:             "Net",
		RequiresInstance: true,
		Provides: []*ProvidesModel{{
			Module: "Net", Name: "route", Target: NewNode("Route"),
			Collection: &CollectionTarget{Kind: MapCollection, Key: "string"},
		}},
		Binds: []*BindsModel{{
			Module: "Net", Name: "all", Target: NewNode("Route"),
			Collection: &CollectionTarget{Kind: ListCollection},
		}},
	}
	child := &ComponentModel{
		Name:         "Session",
		Modules:      []*ModuleModel{mod},
		Dependencies: []*ComponentDependencyModel{{Type: "Clock"}},
		Factory: &ComponentFactoryModel{Type: "Session.Factory", Inputs: []FactoryInput{
			{Name: "user", Kind: InstanceInput, Node: NewNode("User")},
			{Name: "user", Kind: InstanceInput, Node: NewNode("User")},
		}},
	}

	res := validation.Validate(child)
	var texts []string
	for _, m := range res.Errors() {
		texts = append(texts, m.Text)
	}
	assert.ElementsMatch(t, []string{
		`factory Session.Factory declares input "user" more than once`,
		`factory Session.Factory binds instance User more than once`,
		`component dependency "Clock" of component Session is not an input of its factory`,
		`module Net requires an instance but the factory of component Session does not accept it`,
		`provision Net.route contributes to a map without a key`,
		`binds Net.all contributes to a collection and must have exactly one source, got 0`,
	}, texts)

	orphan := &ComponentModel{Name: "Orphan"}
	res = validation.Validate(orphan)
	require.Len(t, res.Errors(), 1)
	assert.Equal(t, "non-root component Orphan has no factory declaration", res.Errors()[0].Text)
}

// TestCollectionTarget_Node verifies collection node derivation.
func TestCollectionTarget_Node(t *testing.T) {
	t.Parallel()

	target := Qualified("Plugin", "core")
	assert.Equal(t, Qualified(ListOf("Plugin"), "core"), (&CollectionTarget{}).CollectionNode(target))
	assert.Equal(t, Qualified(SetOf("Plugin"), "core"), (&CollectionTarget{Kind: SetCollection}).CollectionNode(target))
	assert.Equal(t, Qualified(MapOf("string", "Plugin"), "core"),
		(&CollectionTarget{Kind: MapCollection, Key: "string", KeyValue: "a"}).CollectionNode(target))
	assert.Equal(t, NewNode(ListOf("Plugin")),
		(&CollectionTarget{Flatten: true, Element: "Plugin"}).CollectionNode(NewNode(ListOf("Plugin"))))
	assert.Equal(t, Qualified(MapOf("string", "Plugin"), "x"),
		DeclaredCollection{Kind: MapCollection, Key: "string", Element: "Plugin", Qualifier: "x"}.Node())
}

// TestCatalog verifies the map-backed Lookup.
func TestCatalog(t *testing.T) {
	t.Parallel()

	var l Lookup = NewCatalog().
		AddConstructor(&InjectConstructorModel{Type: "Pump"}).
		AddAssistedFactory(&AssistedFactoryModel{Type: "CupFactory", Target: "Cup"})

	_, ok := l.InjectConstructor("Pump")
	assert.True(t, ok)
	_, ok = l.InjectConstructor("Heater")
	assert.False(t, ok)
	f, ok := l.AssistedFactory("CupFactory")
	require.True(t, ok)
	assert.Equal(t, Type("Cup"), f.Target)
}
