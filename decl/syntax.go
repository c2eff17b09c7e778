package decl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sghaida/odigraph/model"
)

// ErrSyntax is wrapped by every malformed node, dependency or condition.
var ErrSyntax = errors.New("decl: syntax error")

func syntaxErr(what, s string) error {
	return fmt.Errorf("%w: %s %s", ErrSyntax, what, strconv.Quote(s))
}

// ParseNode parses "Type" or "Type@qualifier".
func ParseNode(s string) (model.Node, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return model.Node{}, syntaxErr("node", s)
	}
	t, q, found := strings.Cut(s, "@")
	if t == "" || (found && q == "") {
		return model.Node{}, syntaxErr("node", s)
	}
	return model.Qualified(model.Type(t), q), nil
}

// ParseDependency parses "[kind ]node", where kind is one of the names of
// model.DependencyKind.
func ParseDependency(s string) (model.Dependency, error) {
	fields := strings.Fields(s)
	var kind, n string
	switch len(fields) {
	case 1:
		n = fields[0]
	case 2:
		kind, n = fields[0], fields[1]
	default:
		return model.Dependency{}, syntaxErr("dependency", s)
	}
	k, err := model.ParseDependencyKind(kind)
	if err != nil {
		return model.Dependency{}, fmt.Errorf("%w: dependency %s: %w", ErrSyntax, strconv.Quote(s), err)
	}
	node, err := ParseNode(n)
	if err != nil {
		return model.Dependency{}, err
	}
	return model.Dependency{Node: node, Kind: k}, nil
}

// ParseLiteral parses "[!][@]Root#path".
func ParseLiteral(s string) (model.Literal, error) {
	raw := s
	s = strings.TrimSpace(s)
	var l model.Literal
	if strings.HasPrefix(s, "!") {
		l.Negated = true
		s = strings.TrimSpace(s[1:])
	}
	if strings.HasPrefix(s, "@") {
		l.Instance = true
		s = s[1:]
	}
	root, path, ok := strings.Cut(s, "#")
	if !ok || path == "" {
		return model.Literal{}, syntaxErr("literal", raw)
	}
	n, err := ParseNode(root)
	if err != nil {
		return model.Literal{}, syntaxErr("literal", raw)
	}
	l.Root, l.Path = n, path
	return l, nil
}

// ParseCondition parses a scope written as clauses joined by "&&", each a
// literal or a parenthesized list of literals joined by "||". The empty
// string is Unscoped and "never" is Never.
func ParseCondition(s string) (model.ConditionScope, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return model.Unscoped, nil
	case "never":
		return model.Never, nil
	}
	var clauses [][]model.Literal
	for _, part := range strings.Split(s, "&&") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "(") {
			if !strings.HasSuffix(part, ")") {
				return model.ConditionScope{}, syntaxErr("condition", s)
			}
			part = part[1 : len(part)-1]
		}
		if strings.ContainsAny(part, "()") {
			return model.ConditionScope{}, syntaxErr("condition", s)
		}
		var clause []model.Literal
		for _, lit := range strings.Split(part, "||") {
			l, err := ParseLiteral(lit)
			if err != nil {
				return model.ConditionScope{}, err
			}
			clause = append(clause, l)
		}
		clauses = append(clauses, clause)
	}
	return model.Scope(clauses...), nil
}

func parseCollectionKind(s string) (model.CollectionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "list":
		return model.ListCollection, nil
	case "set":
		return model.SetCollection, nil
	case "map":
		return model.MapCollection, nil
	}
	return 0, syntaxErr("collection kind", s)
}

func parseInputKind(s string) (model.InputKind, error) {
	for _, k := range []model.InputKind{model.InstanceInput, model.DependencyInput, model.ModuleInput} {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, syntaxErr("input kind", s)
}
