package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/validation"
)

//
// -----------------------------------------------------------------------------
// Conditions
// -----------------------------------------------------------------------------

func espressoModule() *model.ModuleModel {
	espresso := provides("Bar", "espresso", "Espresso")
	espresso.Conditionals = []model.Conditional{{Features: model.FromLiteral(flag("espresso"))}}

	cafe := provides("Bar", "cafe", "Cafe")
	cafe.Dependencies = []model.Dependency{{Node: node("Espresso"), Kind: model.Optional}}

	return &model.ModuleModel{
		Name: "Bar",
		Provides: []*model.ProvidesModel{
			espresso,
			provides("Bar", "tea", "Tea"),
			provides("Bar", "counter", "Counter", "Espresso"),
			cafe,
		},
		Binds: []*model.BindsModel{binds("Bar", "Drink", "Espresso", "Tea")},
	}
}

// TestConditions_IncompatibleDirectDependency verifies a direct request on a
// conditional binding fails while an optional one is accepted.
func TestConditions_IncompatibleDirectDependency(t *testing.T) {
	t.Parallel()

	c := root("App", espressoModule())
	c.EntryPoints = []model.EntryPoint{
		entry("counter", model.On(node("Counter"))),
		entry("cafe", model.On(node("Cafe"))),
		entry("drink", model.On(node("Drink"))),
	}
	g := Build([]*model.ComponentModel{c}).Root(0)

	res := validation.Validate(g)
	require.Len(t, res.Errors(), 1, errorTexts(res))
	msg := res.Errors()[0]
	assert.Equal(t,
		"provision Bar.counter -> Counter with condition <unscoped> requires Espresso with incompatible condition Features.espresso",
		msg.Text)
}

// TestConditions_AlternativesScope verifies alternatives take the disjunction
// of their sources' conditions.
func TestConditions_AlternativesScope(t *testing.T) {
	t.Parallel()

	g := Build([]*model.ComponentModel{root("App", espressoModule())}).Root(0)

	alt, ok := g.ResolveBinding(node("Drink")).(*AlternativesBinding)
	require.True(t, ok)
	assert.True(t, alt.ConditionScope().IsUnscoped())
	assert.Equal(t, []model.Node{node("Espresso"), node("Tea")}, alt.Alternatives())

	espresso := g.ResolveBinding(node("Espresso"))
	assert.True(t, espresso.ConditionScope().Equal(model.FromLiteral(flag("espresso"))))
}

// TestConditions_UsageAndLiterals verifies optional usage registers literals
// with eager policy for a literal forming a clause on its own.
func TestConditions_UsageAndLiterals(t *testing.T) {
	t.Parallel()

	gated := provides("M", "gated", "Gated")
	gated.Conditionals = []model.Conditional{{
		Features: model.Scope([]model.Literal{flag("a"), flag("b")}, []model.Literal{flag("c").Not()}),
	}}
	m := &model.ModuleModel{Name: "M", Provides: []*model.ProvidesModel{gated}}
	c := root("App", m)
	c.EntryPoints = []model.EntryPoint{
		entry("gated", model.Dependency{Node: node("Gated"), Kind: model.OptionalLazy}),
	}
	g := Build([]*model.ComponentModel{c}).Root(0)

	usage, ok := g.Usage(g.ResolveBinding(node("Gated")))
	require.True(t, ok)
	assert.True(t, usage.HasOptional())
	assert.Equal(t, 1, usage.Count(model.OptionalLazy))

	assert.Equal(t, map[model.Literal]LiteralUsage{
		flag("a"): Lazy,
		flag("b"): Lazy,
		flag("c"): Eager,
	}, g.LocalConditionLiterals())
}

// TestConditions_EagerOnlyForUnitClauses verifies a literal is eager only
// when it forms a clause by itself; literals sharing a clause stay lazy.
func TestConditions_EagerOnlyForUnitClauses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		scope model.ConditionScope
		want  map[model.Literal]LiteralUsage
	}{
		{
			name:  "single_literal",
			scope: model.FromLiteral(flag("a")),
			want:  map[model.Literal]LiteralUsage{flag("a"): Eager},
		},
		{
			name:  "negated_single_literal",
			scope: model.FromLiteral(flag("a").Not()),
			want:  map[model.Literal]LiteralUsage{flag("a"): Eager},
		},
		{
			name:  "one_disjunction",
			scope: model.Scope([]model.Literal{flag("a"), flag("b")}),
			want:  map[model.Literal]LiteralUsage{flag("a"): Lazy, flag("b"): Lazy},
		},
		{
			name:  "disjunction_then_unit",
			scope: model.Scope([]model.Literal{flag("a"), flag("b")}, []model.Literal{flag("c")}),
			want:  map[model.Literal]LiteralUsage{flag("a"): Lazy, flag("b"): Lazy, flag("c"): Eager},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gated := provides("M", "gated", "Gated")
			gated.Conditionals = []model.Conditional{{Features: tt.scope}}
			c := root("App", &model.ModuleModel{Name: "M", Provides: []*model.ProvidesModel{gated}})
			c.EntryPoints = []model.EntryPoint{
				entry("gated", model.Dependency{Node: node("Gated"), Kind: model.Optional}),
			}
			g := Build([]*model.ComponentModel{c}).Root(0)
			assert.Equal(t, tt.want, g.LocalConditionLiterals())
		})
	}
}

// TestConditions_InstanceLiteralRequestsRoot verifies instance-rooted literals
// make their root binding used.
func TestConditions_InstanceLiteralRequestsRoot(t *testing.T) {
	t.Parallel()

	config := model.Literal{Root: node("Config"), Path: "beta", Instance: true}
	gated := provides("M", "gated", "Gated")
	gated.Conditionals = []model.Conditional{{Features: model.FromLiteral(config)}}
	m := &model.ModuleModel{Name: "M", Provides: []*model.ProvidesModel{gated, provides("M", "config", "Config")}}
	c := root("App", m)
	c.EntryPoints = []model.EntryPoint{entry("gated", model.Dependency{Node: node("Gated"), Kind: model.Optional})}
	g := Build([]*model.ComponentModel{c}).Root(0)

	assert.Equal(t, map[model.Literal]LiteralUsage{config: Lazy}, g.LocalConditionLiterals())
	usage, ok := g.Usage(g.ResolveBinding(node("Config")))
	require.True(t, ok)
	assert.Equal(t, 1, usage.Count(model.Direct))
}

// TestConditions_VariantSelection verifies flavor constraints against the
// component variant.
func TestConditions_VariantSelection(t *testing.T) {
	t.Parallel()

	debugOnly := provides("M", "logger", "Logger")
	debugOnly.Conditionals = []model.Conditional{{OnlyIn: map[string][]string{"build": {"debug"}}}}
	bad := provides("M", "tracer", "Tracer")
	bad.Conditionals = []model.Conditional{{OnlyIn: map[string][]string{"platform": {"arm"}}}}

	c := root("App", &model.ModuleModel{Name: "M", Provides: []*model.ProvidesModel{debugOnly, bad}})
	c.Variant = model.Variant{"build": "release"}
	g := Build([]*model.ComponentModel{c}).Root(0)

	assert.True(t, g.ResolveBinding(node("Logger")).ConditionScope().IsNever())

	res := validation.Validate(g)
	msg := requireErrorContaining(t, res, "provision M.logger -> Logger: variant: no conditional alternative")
	assert.Contains(t, msg.Text, "{build=release}")
	requireErrorContaining(t, res, `dimension "platform" is not declared`)
}

//
// -----------------------------------------------------------------------------
// Loops
// -----------------------------------------------------------------------------

// TestLoops_ReportedOnce verifies a dependency cycle is reported once and lazy
// edges break cycles.
func TestLoops_ReportedOnce(t *testing.T) {
	t.Parallel()

	lazyD := provides("M", "c", "C")
	lazyD.Dependencies = []model.Dependency{{Node: node("D"), Kind: model.Lazy}}

	m := &model.ModuleModel{Name: "M", Provides: []*model.ProvidesModel{
		provides("M", "a", "A", "B"),
		provides("M", "b", "B", "Z"),
		provides("M", "z", "Z", "A"),
		lazyD,
		provides("M", "d", "D", "C"),
	}}
	c := root("App", m)
	c.EntryPoints = []model.EntryPoint{
		entry("a", model.On(node("A"))),
		entry("b", model.On(node("B"))),
		entry("c", model.On(node("C"))),
	}
	g := Build([]*model.ComponentModel{c}).Root(0)

	require.Len(t, g.Loops(), 1)
	assert.Len(t, g.Loops()[0], 3)

	res := validation.Validate(g)
	require.Equal(t, 1, countErrorsContaining(res, "dependency loop"), errorTexts(res))
	msg := requireErrorContaining(t, res, "dependency loop")
	assert.Equal(t,
		"dependency loop: provision M.a -> A -> provision M.b -> B -> provision M.z -> Z -> provision M.a -> A",
		msg.Text)
	assert.Len(t, res.Errors(), 1)
}

// TestLoops_SelfDependent verifies a binding requesting its own node is replaced.
func TestLoops_SelfDependent(t *testing.T) {
	t.Parallel()

	m := &model.ModuleModel{Name: "M", Provides: []*model.ProvidesModel{provides("M", "self", "Self", "Self")}}
	c := root("App", m)
	c.EntryPoints = []model.EntryPoint{entry("self", model.On(node("Self")))}
	g := Build([]*model.ComponentModel{c}).Root(0)

	stub, ok := g.ResolveBinding(node("Self")).(*EmptyBinding)
	require.True(t, ok)
	assert.Equal(t, SelfDependent, stub.Kind())
	assert.Equal(t, "M.self", stub.Cause().(*ProvisionBinding).Key())

	res := validation.Validate(g)
	require.Len(t, res.Errors(), 1)
	assert.Equal(t, "provision M.self -> Self depends on its own target Self", res.Errors()[0].Text)
}

//
// -----------------------------------------------------------------------------
// Structure
// -----------------------------------------------------------------------------

// TestConflicts verifies local and inherited conflicts.
func TestConflicts(t *testing.T) {
	t.Parallel()

	session := child("Session", &model.ModuleModel{Name: "S", Provides: []*model.ProvidesModel{provides("S", "heater", "Heater")}})
	app := root("App", &model.ModuleModel{
		Name: "M",
		Provides: []*model.ProvidesModel{
			provides("M", "heater", "Heater"),
			provides("M", "heater2", "Heater"),
		},
		Subcomponents: []*model.ComponentModel{session},
	})
	res := validation.Validate(Build([]*model.ComponentModel{app}).Root(0))

	msg := requireErrorContaining(t, res, "conflicting bindings for Heater")
	assert.Equal(t, []string{
		"bound by provision M.heater -> Heater",
		"bound by provision M.heater2 -> Heater",
	}, msg.Notes)
	requireErrorContaining(t, res, "Heater is already bound in App by provision M.heater -> Heater")
	assert.Len(t, res.Errors(), 2)
}

// TestScopes verifies scope matching, duplicate scopes and scoped alias warnings.
func TestScopes(t *testing.T) {
	t.Parallel()

	scopedPump := provides("S", "pump", "Pump")
	scopedPump.Scopes = []string{"Activity"}
	reusable := provides("S", "cup", "Cup")
	reusable.Scopes = []string{model.ReusableScope}
	alias := binds("S", "Machine", "Pump")
	alias.Scopes = []string{"Singleton"}

	session := child("Session", &model.ModuleModel{
		Name:     "S",
		Provides: []*model.ProvidesModel{scopedPump, reusable},
		Binds:    []*model.BindsModel{alias},
	})
	session.Scopes = []string{"Singleton"}
	app := root("App", &model.ModuleModel{Name: "M", Subcomponents: []*model.ComponentModel{session}})
	app.Scopes = []string{"Singleton"}

	res := validation.Validate(Build([]*model.ComponentModel{app}).Root(0))

	requireErrorContaining(t, res, "provision S.pump -> Pump is scoped to [Activity]")
	dup := requireErrorContaining(t, res, `scope "Singleton" of App/Session is already declared by its ancestor`)
	assert.Equal(t, []string{"declared by App", "declared by App/Session"}, dup.Notes)
	assert.Len(t, res.Errors(), 2)

	warnings := res.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, validation.MandatoryWarning, warnings[0].Kind)
	assert.Contains(t, warnings[0].Text, "alias Machine -> Pump declares scopes [Singleton]")
}

// TestHierarchyLoop verifies a component nested in itself is reported.
func TestHierarchyLoop(t *testing.T) {
	t.Parallel()

	loopModule := &model.ModuleModel{Name: "Loop"}
	session := child("Session", loopModule)
	loopModule.Subcomponents = []*model.ComponentModel{session}
	app := root("App", &model.ModuleModel{Name: "M", Subcomponents: []*model.ComponentModel{session}})

	tree := Build([]*model.ComponentModel{app})
	assert.Equal(t, 3, tree.Len())

	res := validation.Validate(tree.Root(0))
	requireErrorContaining(t, res, "component Session includes itself through its subcomponents: App/Session/Session")
}
