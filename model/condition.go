package model

import (
	"slices"
	"strings"
)

// Literal is a boolean-valued member access used as a feature flag.
//
// Root names the type the access path starts from. When Instance is false the
// root is static and the path is evaluated without a receiver; otherwise the
// root node is resolved from the graph first. Path is the dotted member path.
type Literal struct {
	Root     Node
	Path     string
	Instance bool
	Negated  bool
}

// Normalized returns the literal with negation stripped. Normalized literals
// are the memoization keys; negation is applied at evaluation time.
func (l Literal) Normalized() Literal {
	l.Negated = false
	return l
}

// Not returns the negated literal.
func (l Literal) Not() Literal {
	l.Negated = !l.Negated
	return l
}

// Key is the registry key for the member access this literal performs.
func (l Literal) Key() string {
	return string(l.Root.Type) + "." + l.Path
}

func (l Literal) String() string {
	if l.Negated {
		return "!" + l.Key()
	}
	return l.Key()
}

// CompareLiterals orders literals deterministically.
func CompareLiterals(a, b Literal) int {
	if c := Compare(a.Root, b.Root); c != 0 {
		return c
	}
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if a.Instance != b.Instance {
		if !a.Instance {
			return -1
		}
		return 1
	}
	if a.Negated != b.Negated {
		if !a.Negated {
			return -1
		}
		return 1
	}
	return 0
}

// ConditionScope is a boolean expression in conjunctive form: the scope holds
// iff every clause holds, and a clause holds iff any of its literals holds.
//
// The zero value is Unscoped (always true). Never is represented by a single
// empty clause. Values are immutable; every operation returns a new scope.
type ConditionScope struct {
	clauses [][]Literal
}

var (
	// Unscoped is the always-true scope.
	Unscoped = ConditionScope{}

	// Never is the always-false scope.
	Never = ConditionScope{clauses: [][]Literal{{}}}
)

// maxTruthTableVars bounds the exhaustive implication check.
const maxTruthTableVars = 16

// Scope builds a normalized scope from clauses.
//
// Duplicate literals inside a clause are dropped, tautological clauses
// (containing both L and !L) are dropped, duplicate and absorbed clauses are
// dropped. Literal order inside a clause is preserved.
func Scope(clauses ...[]Literal) ConditionScope {
	out := make([][]Literal, 0, len(clauses))
	for _, clause := range clauses {
		c, tautology := normalizeClause(clause)
		if tautology {
			continue
		}
		if len(c) == 0 {
			return Never
		}
		out = append(out, c)
	}
	return ConditionScope{clauses: absorb(out)}
}

// FromLiteral returns the single-literal scope.
func FromLiteral(l Literal) ConditionScope {
	return ConditionScope{clauses: [][]Literal{{l}}}
}

// AnyOf returns the scope holding iff any of the literals holds.
func AnyOf(literals ...Literal) ConditionScope {
	if len(literals) == 0 {
		return Never
	}
	return Scope(literals)
}

// AllOf returns the scope holding iff every literal holds.
func AllOf(literals ...Literal) ConditionScope {
	clauses := make([][]Literal, 0, len(literals))
	for _, l := range literals {
		clauses = append(clauses, []Literal{l})
	}
	return Scope(clauses...)
}

// Clauses returns a copy of the clause list.
func (s ConditionScope) Clauses() [][]Literal {
	out := make([][]Literal, len(s.clauses))
	for i, c := range s.clauses {
		out[i] = slices.Clone(c)
	}
	return out
}

// IsUnscoped reports whether the scope is always true.
func (s ConditionScope) IsUnscoped() bool { return len(s.clauses) == 0 }

// IsNever reports whether the scope is always false.
func (s ConditionScope) IsNever() bool {
	for _, c := range s.clauses {
		if len(c) == 0 {
			return true
		}
	}
	return false
}

// And returns the conjunction of s and o.
func (s ConditionScope) And(o ConditionScope) ConditionScope {
	switch {
	case s.IsNever() || o.IsNever():
		return Never
	case s.IsUnscoped():
		return o
	case o.IsUnscoped():
		return s
	}
	all := make([][]Literal, 0, len(s.clauses)+len(o.clauses))
	all = append(all, s.clauses...)
	all = append(all, o.clauses...)
	return Scope(all...)
}

// Or returns the disjunction of s and o, distributed back into conjunctive form.
func (s ConditionScope) Or(o ConditionScope) ConditionScope {
	switch {
	case s.IsUnscoped() || o.IsUnscoped():
		return Unscoped
	case s.IsNever():
		return o
	case o.IsNever():
		return s
	}
	all := make([][]Literal, 0, len(s.clauses)*len(o.clauses))
	for _, a := range s.clauses {
		for _, b := range o.clauses {
			merged := make([]Literal, 0, len(a)+len(b))
			merged = append(merged, a...)
			merged = append(merged, b...)
			all = append(all, merged)
		}
	}
	return Scope(all...)
}

// Literals returns the distinct normalized literals of the scope in
// deterministic order.
func (s ConditionScope) Literals() []Literal {
	seen := map[Literal]struct{}{}
	var out []Literal
	for _, c := range s.clauses {
		for _, l := range c {
			n := l.Normalized()
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	slices.SortFunc(out, CompareLiterals)
	return out
}

// Evaluate computes the scope using eval for each literal (negation included).
//
// Clauses are evaluated in order; within a clause the first true literal wins
// and the remaining literals are not evaluated. The first all-false clause
// makes the scope false.
func (s ConditionScope) Evaluate(eval func(Literal) (bool, error)) (bool, error) {
	for _, clause := range s.clauses {
		value := false
		for _, l := range clause {
			v, err := eval(l)
			if err != nil {
				return false, err
			}
			if v {
				value = true
				break
			}
		}
		if !value {
			return false, nil
		}
	}
	return true, nil
}

// Implies reports whether s being true guarantees o being true.
func (s ConditionScope) Implies(o ConditionScope) bool {
	if s.IsNever() || o.IsUnscoped() {
		return true
	}
	vars := unionLiterals(s.Literals(), o.Literals())
	if len(vars) > maxTruthTableVars {
		return s.impliesSyntactically(o)
	}
	index := make(map[Literal]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}
	for mask := uint32(0); mask < 1<<len(vars); mask++ {
		eval := func(l Literal) (bool, error) {
			v := mask&(1<<index[l.Normalized()]) != 0
			return v != l.Negated, nil
		}
		if sv, _ := s.Evaluate(eval); !sv {
			continue
		}
		if ov, _ := o.Evaluate(eval); !ov {
			return false
		}
	}
	return true
}

// impliesSyntactically holds when every clause of o contains some clause of s.
func (s ConditionScope) impliesSyntactically(o ConditionScope) bool {
	for _, oc := range o.clauses {
		found := false
		for _, sc := range s.clauses {
			if subset(sc, oc) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Equal reports structural equality of the normalized forms.
func (s ConditionScope) Equal(o ConditionScope) bool {
	return s.canonical() == o.canonical()
}

func (s ConditionScope) String() string {
	switch {
	case s.IsUnscoped():
		return "<unscoped>"
	case s.IsNever():
		return "<never>"
	}
	var b strings.Builder
	for i, c := range s.clauses {
		if i > 0 {
			b.WriteString(" && ")
		}
		if len(c) > 1 {
			b.WriteString("(")
		}
		for j, l := range c {
			if j > 0 {
				b.WriteString(" || ")
			}
			b.WriteString(l.String())
		}
		if len(c) > 1 {
			b.WriteString(")")
		}
	}
	return b.String()
}

func (s ConditionScope) canonical() string {
	keys := make([]string, 0, len(s.clauses))
	for _, c := range s.clauses {
		keys = append(keys, clauseKey(c))
	}
	slices.Sort(keys)
	return strings.Join(keys, "&")
}

func normalizeClause(clause []Literal) (out []Literal, tautology bool) {
	seen := make(map[Literal]struct{}, len(clause))
	out = make([]Literal, 0, len(clause))
	for _, l := range clause {
		if _, ok := seen[l.Not()]; ok {
			return nil, true
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, false
}

// absorb drops duplicate clauses and clauses that are supersets of another.
func absorb(clauses [][]Literal) [][]Literal {
	out := make([][]Literal, 0, len(clauses))
	keys := map[string]struct{}{}
	for i, c := range clauses {
		k := clauseKey(c)
		if _, dup := keys[k]; dup {
			continue
		}
		absorbed := false
		for j, other := range clauses {
			if i == j || len(other) >= len(c) {
				continue
			}
			if subset(other, c) {
				absorbed = true
				break
			}
		}
		if absorbed {
			continue
		}
		keys[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

func unionLiterals(a, b []Literal) []Literal {
	out := slices.Clone(a)
	for _, l := range b {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

func subset(a, b []Literal) bool {
	for _, l := range a {
		if !slices.Contains(b, l) {
			return false
		}
	}
	return true
}

func clauseKey(c []Literal) string {
	parts := make([]string, 0, len(c))
	for _, l := range c {
		parts = append(parts, l.String())
	}
	slices.Sort(parts)
	return strings.Join(parts, "|")
}
