package graph

import (
	"fmt"
	"strings"

	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/validation"
)

// Message catalogue for graph validation.

func errMissingBinding(n model.Node) validation.Message {
	return validation.Errorf("missing binding for %s", n)
}

func errConflictingBindings(n model.Node) validation.Message {
	return validation.Errorf("conflicting bindings for %s", n)
}

func errShadowsInherited(n model.Node, inherited Binding) validation.Message {
	return validation.Errorf("%s is already bound in %s by %s", n, inherited.Owner().Path(), inherited)
}

func errDependencyLoop(loop []Binding) validation.Message {
	parts := make([]string, 0, len(loop)+1)
	for _, b := range loop {
		parts = append(parts, b.String())
	}
	parts = append(parts, loop[0].String())
	return validation.Errorf("dependency loop: %s", strings.Join(parts, " -> "))
}

func errAliasLoop(chain []model.Node) validation.Message {
	parts := make([]string, 0, len(chain))
	for _, n := range chain {
		parts = append(parts, n.String())
	}
	return validation.Errorf("alias loop: %s", strings.Join(parts, " -> "))
}

func errSelfDependent(cause Binding) validation.Message {
	return validation.Errorf("%s depends on its own target %s", cause, cause.Target())
}

func errDuplicateMapKey(key string, n model.Node) validation.Message {
	return validation.Errorf("duplicate key %q in %s", key, n)
}

func errIncompatibleCondition(subject fmt.Stringer, sc model.ConditionScope, dep model.Dependency, target Binding, tc model.ConditionScope) validation.Message {
	return validation.Errorf("%s with condition %s requires %s with incompatible condition %s",
		subject, sc, dep, tc).WithNote(fmt.Sprintf("request %s optionally or align the conditions of %s", dep.Node, target))
}

func errNoMatchingScope(b Binding, scopes []string) validation.Message {
	return validation.Errorf("%s is scoped to %v but no component in %s declares any of these scopes",
		b, scopes, b.Owner().Path())
}

func errDuplicateComponentScope(scope string, g, ancestor *Graph) validation.Message {
	return validation.Errorf("scope %q of %s is already declared by its ancestor", scope, g.Path()).
		WithNote("declared by " + ancestor.Path()).
		WithNote("declared by " + g.Path())
}

func errHierarchyLoop(g *Graph) validation.Message {
	return validation.Errorf("component %s includes itself through its subcomponents: %s", g.Name(), g.Path())
}

func errVariant(subject fmt.Stringer, err error) validation.Message {
	return validation.Errorf("%s: %v", subject, err)
}

func warnScopedAlias(a *AliasBinding) validation.Message {
	return validation.MandatoryWarnf("%s declares scopes %v; an alias can not rebind a scope, the scopes are ignored",
		a, a.scopes)
}

func hintFrameworkType(n model.Node) string {
	return fmt.Sprintf("%s is a framework type and can not be bound; request the wrapped type with a dependency kind", n)
}

func hintOtherQualifier(other Binding) string {
	return fmt.Sprintf("a binding with a different qualifier exists: %s", other)
}

func hintUnmatchedScope(n model.Node, scopes []string) string {
	return fmt.Sprintf("%s has an injectable constructor scoped to %v, but no component in the hierarchy declares it", n.Type, scopes)
}
