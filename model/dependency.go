package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DependencyKind selects how a node is requested.
type DependencyKind uint8

const (
	Direct DependencyKind = iota
	Lazy
	Provider
	Optional
	OptionalLazy
	OptionalProvider
)

// ErrUnknownDependencyKind is returned by ParseDependencyKind.
var ErrUnknownDependencyKind = errors.New("model: unknown dependency kind")

var kindNames = [...]string{
	Direct:           "direct",
	Lazy:             "lazy",
	Provider:         "provider",
	Optional:         "optional",
	OptionalLazy:     "optional-lazy",
	OptionalProvider: "optional-provider",
}

// IsOptional reports whether a missing or condition-excluded binding yields
// an absent value instead of an error for this kind.
func (k DependencyKind) IsOptional() bool {
	return k == Optional || k == OptionalLazy || k == OptionalProvider
}

// NonOptional maps an optional kind to its non-optional counterpart.
func (k DependencyKind) NonOptional() DependencyKind {
	switch k {
	case Optional:
		return Direct
	case OptionalLazy:
		return Lazy
	case OptionalProvider:
		return Provider
	}
	return k
}

func (k DependencyKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseDependencyKind parses the names produced by DependencyKind.String.
// An empty string parses as Direct.
func ParseDependencyKind(s string) (DependencyKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Direct, nil
	}
	for i, name := range kindNames {
		if name == s {
			return DependencyKind(i), nil
		}
	}
	return Direct, fmt.Errorf("%w: %q", ErrUnknownDependencyKind, s)
}

// Dependency is a request for a node with a specific kind.
type Dependency struct {
	Node Node
	Kind DependencyKind
}

// On returns a direct dependency on n.
func On(n Node) Dependency { return Dependency{Node: n} }

// WithKind returns a copy of d requesting kind k.
func (d Dependency) WithKind(k DependencyKind) Dependency {
	return Dependency{Node: d.Node, Kind: k}
}

func (d Dependency) String() string {
	if d.Kind == Direct {
		return d.Node.String()
	}
	return d.Kind.String() + " " + d.Node.String()
}
