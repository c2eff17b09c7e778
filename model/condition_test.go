package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(name string) Literal {
	return Literal{Root: NewNode("Flags"), Path: name}
}

func evalWith(values map[string]bool, calls *[]string) func(Literal) (bool, error) {
	return func(l Literal) (bool, error) {
		if calls != nil {
			*calls = append(*calls, l.String())
		}
		return values[l.Path] != l.Negated, nil
	}
}

//
// -----------------------------------------------------------------------------
// Literal
// -----------------------------------------------------------------------------

// TestLiteral_NormalizedAndKey verifies negation is stripped for the memo key.
func TestLiteral_NormalizedAndKey(t *testing.T) {
	t.Parallel()

	a := lit("a")
	notA := a.Not()

	assert.True(t, notA.Negated)
	assert.Equal(t, a, notA.Normalized())
	assert.Equal(t, "Flags.a", notA.Key())
	assert.Equal(t, "!Flags.a", notA.String())
	assert.Equal(t, a, notA.Not())
	assert.Negative(t, CompareLiterals(a, notA))
	assert.Negative(t, CompareLiterals(a, lit("b")))
}

//
// -----------------------------------------------------------------------------
// Evaluate
// -----------------------------------------------------------------------------

// TestEvaluate_ClauseSemantics verifies (A || B) && C truth values.
func TestEvaluate_ClauseSemantics(t *testing.T) {
	t.Parallel()

	s := Scope([]Literal{lit("A"), lit("B")}, []Literal{lit("C")})

	tests := []struct {
		name    string
		a, b, c bool
		want    bool
	}{
		{"A=false,B=true,C=true", false, true, true, true},
		{"A=false,B=false,C=true", false, false, true, false},
		{"A=true,B=false,C=true", true, false, true, true},
		{"A=true,B=true,C=false", true, true, false, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := s.Evaluate(evalWith(map[string]bool{"A": tt.a, "B": tt.b, "C": tt.c}, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEvaluate_ShortCircuits verifies the first true literal of a clause wins
// and the first false clause stops evaluation.
func TestEvaluate_ShortCircuits(t *testing.T) {
	t.Parallel()

	s := Scope([]Literal{lit("A"), lit("B")}, []Literal{lit("C")}, []Literal{lit("D")})

	var calls []string
	got, err := s.Evaluate(evalWith(map[string]bool{"A": true, "C": false}, &calls))
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, []string{"Flags.A", "Flags.C"}, calls)
}

// TestEvaluate_Negation verifies negated literals flip the computed value.
func TestEvaluate_Negation(t *testing.T) {
	t.Parallel()

	s := FromLiteral(lit("A").Not())
	got, err := s.Evaluate(evalWith(map[string]bool{"A": false}, nil))
	require.NoError(t, err)
	assert.True(t, got)
}

// TestEvaluate_PropagatesError verifies literal errors abort evaluation.
func TestEvaluate_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := FromLiteral(lit("A")).Evaluate(func(Literal) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
}

// TestEvaluate_Constants verifies Unscoped and Never.
func TestEvaluate_Constants(t *testing.T) {
	t.Parallel()

	never := func(Literal) (bool, error) { panic("must not evaluate") }

	u, err := Unscoped.Evaluate(never)
	require.NoError(t, err)
	assert.True(t, u)

	n, err := Never.Evaluate(never)
	require.NoError(t, err)
	assert.False(t, n)
}

//
// -----------------------------------------------------------------------------
// Algebra
// -----------------------------------------------------------------------------

// TestScope_Normalization verifies tautologies, duplicates and absorption.
func TestScope_Normalization(t *testing.T) {
	t.Parallel()

	a, b := lit("a"), lit("b")

	assert.True(t, Scope([]Literal{a, a.Not()}).IsUnscoped())
	assert.True(t, Scope([]Literal{}).IsNever())
	assert.Equal(t, [][]Literal{{a}}, Scope([]Literal{a, a}).Clauses())
	assert.Equal(t, [][]Literal{{a}}, Scope([]Literal{a, b}, []Literal{a}).Clauses())
	assert.Equal(t, [][]Literal{{a}}, Scope([]Literal{a}, []Literal{a}).Clauses())
}

// TestAndOr verifies identities and distribution.
func TestAndOr(t *testing.T) {
	t.Parallel()

	a, b, c := FromLiteral(lit("a")), FromLiteral(lit("b")), FromLiteral(lit("c"))

	assert.True(t, a.And(Never).IsNever())
	assert.True(t, a.Or(Unscoped).IsUnscoped())
	assert.True(t, a.And(Unscoped).Equal(a))
	assert.True(t, a.Or(Never).Equal(a))
	assert.True(t, a.Or(FromLiteral(lit("a").Not())).IsUnscoped())

	// (a && b) || c == (a || c) && (b || c)
	got := a.And(b).Or(c)
	want := Scope([]Literal{lit("a"), lit("c")}, []Literal{lit("b"), lit("c")})
	assert.True(t, got.Equal(want), got.String())
	assert.Equal(t, "(Flags.a || Flags.c) && (Flags.b || Flags.c)", got.String())
}

// TestImplies verifies semantic implication.
func TestImplies(t *testing.T) {
	t.Parallel()

	a, b := FromLiteral(lit("a")), FromLiteral(lit("b"))

	assert.True(t, a.And(b).Implies(a))
	assert.True(t, a.Implies(a.Or(b)))
	assert.False(t, a.Implies(b))
	assert.False(t, a.Or(b).Implies(a))
	assert.True(t, Never.Implies(a))
	assert.True(t, a.Implies(Unscoped))
	assert.False(t, Unscoped.Implies(a))
	assert.False(t, a.Implies(Never))
	assert.True(t, a.Implies(a))
}

// TestImplies_SyntacticFallback verifies large scopes fall back to clause containment.
func TestImplies_SyntacticFallback(t *testing.T) {
	t.Parallel()

	var all []Literal
	for i := 0; i < maxTruthTableVars+2; i++ {
		all = append(all, Literal{Root: NewNode("Flags"), Path: string(rune('a' + i))})
	}
	big := AllOf(all...)

	assert.True(t, big.Implies(FromLiteral(all[0])))
	assert.False(t, FromLiteral(all[0]).Implies(big))
}

// TestLiterals_SortedNormalized verifies Literals dedups negations.
func TestLiterals_SortedNormalized(t *testing.T) {
	t.Parallel()

	s := Scope([]Literal{lit("b"), lit("a").Not()}, []Literal{lit("a")})
	assert.Equal(t, []Literal{lit("a"), lit("b")}, s.Literals())
	assert.Empty(t, Unscoped.Literals())
	assert.Equal(t, "<unscoped>", Unscoped.String())
	assert.Equal(t, "<never>", Never.String())
}

// TestAnyOfAllOf verifies the builders.
func TestAnyOfAllOf(t *testing.T) {
	t.Parallel()

	assert.True(t, AnyOf().IsNever())
	assert.True(t, AllOf().IsUnscoped())
	assert.Len(t, AnyOf(lit("a"), lit("b")).Clauses(), 1)
	assert.Len(t, AllOf(lit("a"), lit("b")).Clauses(), 2)
}
