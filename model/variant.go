package model

import (
	"slices"
	"strconv"
	"strings"
)

// Variant selects one flavor per dimension for a component.
type Variant map[string]string

// Merge returns a new variant with child selections layered over v.
func (v Variant) Merge(child Variant) Variant {
	out := make(Variant, len(v)+len(child))
	for d, f := range v {
		out[d] = f
	}
	for d, f := range child {
		out[d] = f
	}
	return out
}

func (v Variant) String() string {
	dims := make([]string, 0, len(v))
	for d := range v {
		dims = append(dims, d)
	}
	slices.Sort(dims)
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, d+"="+v[d])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Conditional is one alternative of a conditional declaration: the feature
// scope that gates it and, per dimension, the flavors it is restricted to.
type Conditional struct {
	Features ConditionScope
	OnlyIn   map[string][]string
}

// MissingDimensionError is reported when a conditional constrains a dimension
// the component variant does not declare.
type MissingDimensionError struct{ Dimension string }

func (e MissingDimensionError) Error() string {
	return "variant: dimension " + strconv.Quote(e.Dimension) + " is not declared in the component variant"
}

// NoMatchingAlternativeError is reported when no conditional alternative
// accepts the component variant.
type NoMatchingAlternativeError struct{ Variant Variant }

func (e NoMatchingAlternativeError) Error() string {
	return "variant: no conditional alternative matches variant " + e.Variant.String()
}

// AmbiguousAlternativesError is reported when several alternatives accept the
// component variant.
type AmbiguousAlternativesError struct {
	Variant Variant
	Matched []int
}

func (e AmbiguousAlternativesError) Error() string {
	idx := make([]string, 0, len(e.Matched))
	for _, i := range e.Matched {
		idx = append(idx, strconv.Itoa(i))
	}
	return "variant: alternatives [" + strings.Join(idx, ", ") + "] all match variant " + e.Variant.String()
}

// VariantMatch is the outcome of matching conditionals against a variant:
// either Matched with a condition scope, or an error.
type VariantMatch struct {
	scope ConditionScope
	err   error
}

// Matched reports whether exactly one alternative applied.
func (m VariantMatch) Matched() bool { return m.err == nil }

// Scope returns the matched condition scope. An erroneous match is Never.
func (m VariantMatch) Scope() ConditionScope {
	if m.err != nil {
		return Never
	}
	return m.scope
}

// Err returns the match error, if any.
func (m VariantMatch) Err() error { return m.err }

// MatchVariant selects the conditional alternative that applies to variant.
func MatchVariant(conditionals []Conditional, variant Variant) VariantMatch {
	if len(conditionals) == 0 {
		return VariantMatch{scope: Unscoped}
	}
	var matched []int
	for i, c := range conditionals {
		ok := true
		for _, dim := range sortedDims(c.OnlyIn) {
			flavor, declared := variant[dim]
			if !declared {
				return VariantMatch{err: MissingDimensionError{Dimension: dim}}
			}
			if !slices.Contains(c.OnlyIn[dim], flavor) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, i)
		}
	}
	switch len(matched) {
	case 0:
		return VariantMatch{err: NoMatchingAlternativeError{Variant: variant}}
	case 1:
		return VariantMatch{scope: conditionals[matched[0]].Features}
	default:
		return VariantMatch{err: AmbiguousAlternativesError{Variant: variant, Matched: matched}}
	}
}

func sortedDims(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
