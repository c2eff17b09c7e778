package model

import (
	"strconv"
	"strings"
)

// Type names an injectable type as the declaration front-end spells it.
//
// The core never interprets a Type beyond equality, ordering and the few
// wrapper shapes produced by ListOf/SetOf/MapOf/ProviderOf.
type Type string

// Framework wrapper prefixes. Nodes of these types are requested through a
// DependencyKind instead and can never be bound directly.
const (
	lazyPrefix     = "di.Lazy["
	providerPrefix = "di.Provider["
	optionalPrefix = "di.Optional["
)

// ListOf returns the type of a list multi-binding over t.
func ListOf(t Type) Type { return Type("[]" + string(t)) }

// SetOf returns the type of a set multi-binding over t.
func SetOf(t Type) Type { return Type("set[" + string(t) + "]") }

// MapOf returns the type of a map multi-binding from k to v.
func MapOf(k, v Type) Type { return Type("map[" + string(k) + "]" + string(v)) }

// ProviderOf returns the framework provider wrapper type for t.
func ProviderOf(t Type) Type { return Type(providerPrefix + string(t) + "]") }

// Node is the identity of something that can be requested for injection.
//
// Two nodes are equal iff their type and qualifier are equal. The zero slot
// is used by every node a user can name; non-zero slots identify internal
// multi-binding contributions that must not collide with the plain binding
// of the same type.
type Node struct {
	Type      Type
	Qualifier string

	slot uint32
}

// NewNode returns an unqualified node for t.
func NewNode(t Type) Node { return Node{Type: t} }

// Qualified returns a node for t with qualifier q.
func Qualified(t Type, q string) Node { return Node{Type: t, Qualifier: q} }

// ContributionNode returns the synthetic node used to register one
// multi-binding contribution for target.
func ContributionNode(target Node, slot uint32) Node {
	return Node{Type: target.Type, Qualifier: target.Qualifier, slot: slot}
}

// IsContribution reports whether n is a synthetic contribution node.
func (n Node) IsContribution() bool { return n.slot != 0 }

// Plain strips the contribution slot, returning the node users would name.
func (n Node) Plain() Node { return Node{Type: n.Type, Qualifier: n.Qualifier} }

// DropQualifier returns the unqualified counterpart of n.
//
// It is used for diagnostics ("a binding with another qualifier exists"),
// never for resolution.
func (n Node) DropQualifier() Node {
	if n.Qualifier == "" {
		return n
	}
	return Node{Type: n.Type, slot: n.slot}
}

// IsFrameworkType reports whether n names a framework wrapper type that can
// not be satisfied by any binding.
func (n Node) IsFrameworkType() bool {
	t := string(n.Type)
	return strings.HasPrefix(t, lazyPrefix) ||
		strings.HasPrefix(t, providerPrefix) ||
		strings.HasPrefix(t, optionalPrefix)
}

// String renders the node as `@qualifier Type`.
func (n Node) String() string {
	var b strings.Builder
	if n.slot != 0 {
		b.WriteString("[contribution #")
		b.WriteString(strconv.FormatUint(uint64(n.slot), 10))
		b.WriteString("] ")
	}
	if n.Qualifier != "" {
		b.WriteString("@")
		b.WriteString(strconv.Quote(n.Qualifier))
		b.WriteString(" ")
	}
	b.WriteString(string(n.Type))
	return b.String()
}

// Compare orders nodes by type, then qualifier, then slot.
func Compare(a, b Node) int {
	if c := strings.Compare(string(a.Type), string(b.Type)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Qualifier, b.Qualifier); c != 0 {
		return c
	}
	switch {
	case a.slot < b.slot:
		return -1
	case a.slot > b.slot:
		return 1
	}
	return 0
}
