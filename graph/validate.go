package graph

import (
	"slices"
	"strings"

	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/validation"
)

// EntryPoint is a named request exposed by a component.
type EntryPoint struct {
	graph      *Graph
	Name       string
	Dependency model.Dependency
}

// Graph returns the graph exposing the entry point.
func (e *EntryPoint) Graph() *Graph { return e.graph }

// Binding resolves the requested node.
func (e *EntryPoint) Binding() Binding { return e.graph.ResolveBinding(e.Dependency.Node) }

func (e *EntryPoint) String() string { return "entry-point " + e.Name + ": " + e.Dependency.String() }

// Validate checks the requested binding and its condition.
func (e *EntryPoint) Validate(v *validation.Validator) {
	checkRequest(v, e, e.graph.ConditionScope(), e.graph, e.Dependency)
}

// MembersInjector injects members into an existing value.
type MembersInjector struct {
	graph   *Graph
	Name    string
	Target  model.Type
	Members []model.Member
}

// Graph returns the graph exposing the injector.
func (m *MembersInjector) Graph() *Graph { return m.graph }

func (m *MembersInjector) String() string { return "members-injector " + m.Name + ": " + string(m.Target) }

// Validate checks every member request.
func (m *MembersInjector) Validate(v *validation.Validator) {
	for _, member := range m.Members {
		checkRequest(v, m, m.graph.ConditionScope(), m.graph, member.Dependency)
	}
}

// Validate reports graph level defects and walks entry points, member
// injectors, declared bindings and child graphs.
func (g *Graph) Validate(v *validation.Validator) {
	v.Inline(g.model)
	if g.variantErr != nil {
		v.Report(errVariant(g, g.variantErr))
	}
	if g.hierarchyLoop {
		v.Report(errHierarchyLoop(g))
		return
	}
	for _, scope := range g.model.Scopes {
		if scope == model.ReusableScope {
			continue
		}
		for p := g.Parent(); p != nil; p = p.Parent() {
			if slices.Contains(p.model.Scopes, scope) {
				v.Report(errDuplicateComponentScope(scope, g, p))
			}
		}
	}
	for _, n := range sortedNodes(g.conflicts) {
		msg := errConflictingBindings(n)
		for _, b := range g.conflicts[n] {
			msg = msg.WithNote("bound by " + b.String())
		}
		v.Report(msg)
	}
	for _, n := range sortedNodes(g.inherited) {
		v.Report(errShadowsInherited(n, g.inherited[n]))
	}

	for _, ep := range g.entryPoints {
		v.Child(ep)
	}
	for _, mi := range g.memberInjectors {
		v.Child(mi)
	}
	for _, b := range g.order {
		v.Child(b)
	}
	for _, c := range g.Children() {
		v.Child(c)
	}
}

func sortedNodes[V any](m map[model.Node]V) []model.Node {
	out := make([]model.Node, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	slices.SortFunc(out, model.Compare)
	return out
}

// checkRequest validates one dependency edge from subject, whose effective
// condition is cond, resolved through g.
func checkRequest(v *validation.Validator, subject validation.Validatable, cond model.ConditionScope, g *Graph, d model.Dependency) {
	target := g.ResolveBinding(d.Node)
	v.Child(target)
	if d.Kind.IsOptional() || reportsItself(target) {
		return
	}
	tc := target.ConditionScope().And(target.Owner().ConditionScope())
	if cond.Implies(tc) {
		return
	}
	msg := errIncompatibleCondition(subject, cond, d, target, tc)
	if chain := aliasChain(g, d.Node); len(chain) > 1 {
		parts := make([]string, 0, len(chain))
		for _, n := range chain {
			parts = append(parts, n.String())
		}
		msg = msg.WithNote("resolved through aliases " + strings.Join(parts, " -> "))
	}
	v.Report(msg)
}

// reportsItself is true for empty bindings that already carry their own
// error, so dependents do not add a condition error on top.
func reportsItself(b Binding) bool {
	e, ok := b.(*EmptyBinding)
	return ok && e.kind != Explicit
}

func aliasChain(g *Graph, n model.Node) []model.Node {
	chain := []model.Node{n}
	b := g.ResolveRaw(n)
	for {
		a, ok := b.(*AliasBinding)
		if !ok || slices.Contains(chain[:len(chain)-1], a.source) || len(chain) > 64 {
			return chain
		}
		chain = append(chain, a.source)
		b = a.Owner().ResolveRaw(a.source)
	}
}

func validateBinding(v *validation.Validator, b Binding) {
	owner := b.Owner()
	cond := b.ConditionScope().And(owner.ConditionScope())
	for _, d := range b.Dependencies() {
		checkRequest(v, b, cond, owner, d)
	}
	for _, loop := range owner.loops[b] {
		v.Report(errDependencyLoop(loop))
	}
	if scopes := b.Scopes(); len(scopes) > 0 && !scopedInHierarchy(owner, scopes) {
		v.Report(errNoMatchingScope(b, scopes))
	}
}

func scopedInHierarchy(g *Graph, scopes []string) bool {
	for _, cur := range g.Ancestors() {
		if scopesMatch(scopes, cur.model.Scopes) {
			return true
		}
	}
	return false
}

// Validate implements validation.Validatable.
func (b *ProvisionBinding) Validate(v *validation.Validator) {
	if b.variantErr != nil {
		v.Report(errVariant(b, b.variantErr))
	}
	validateBinding(v, b)
}

// Validate implements validation.Validatable.
func (b *AliasBinding) Validate(v *validation.Validator) {
	if len(b.scopes) > 0 {
		v.Report(warnScopedAlias(b))
	}
	v.Child(b.Owner().ResolveBinding(b.target))
}

// Validate implements validation.Validatable.
func (b *AlternativesBinding) Validate(v *validation.Validator) { validateBinding(v, b) }

// Validate implements validation.Validatable.
func (b *AssistedFactoryBinding) Validate(v *validation.Validator) { validateBinding(v, b) }

// Validate implements validation.Validatable.
func (b *ComponentDependencyBinding) Validate(v *validation.Validator) {}

// Validate implements validation.Validatable.
func (b *ComponentDependencyEntryPointBinding) Validate(v *validation.Validator) {
	validateBinding(v, b)
}

// Validate implements validation.Validatable.
func (b *ComponentInstanceBinding) Validate(v *validation.Validator) {}

// Validate implements validation.Validatable.
func (b *SubComponentFactoryBinding) Validate(v *validation.Validator) {}

// Validate implements validation.Validatable.
func (b *MultiBinding) Validate(v *validation.Validator) {
	if up := b.Upstream(); up != nil {
		v.Child(up)
	}
	validateBinding(v, b)
}

// Validate reports duplicate keys among upstream and local entries. Groups
// made only of upstream entries are left to the upstream map. Provider maps
// share their entries with the value map and do not report again.
func (b *MapBinding) Validate(v *validation.Validator) {
	if up := b.Upstream(); up != nil {
		v.Child(up)
	}
	validateBinding(v, b)
	if b.providers {
		return
	}
	local := map[string]bool{}
	for _, e := range b.entries {
		local[e.KeyValue] = true
	}
	groups := map[string][]ResolvedMapEntry{}
	var keys []string
	for _, e := range b.AllEntries() {
		if _, ok := groups[e.KeyValue]; !ok {
			keys = append(keys, e.KeyValue)
		}
		groups[e.KeyValue] = append(groups[e.KeyValue], e)
	}
	for _, k := range keys {
		if len(groups[k]) < 2 || !local[k] {
			continue
		}
		msg := errDuplicateMapKey(k, b.target)
		for _, e := range groups[k] {
			msg = msg.WithNote("bound by " + e.Binding.String())
		}
		v.Report(msg)
	}
}

// Validate implements validation.Validatable.
func (b *InstanceBinding) Validate(v *validation.Validator) {}

// Validate reports why the binding is empty. Explicitly absent bindings are
// valid; requiring them non-optionally is reported by the requester.
func (b *EmptyBinding) Validate(v *validation.Validator) {
	switch b.kind {
	case Missing:
		msg := errMissingBinding(b.target)
		for _, h := range b.hints {
			msg = msg.WithNote(h)
		}
		if other := b.Owner().otherQualifier(b.target); other != nil {
			msg = msg.WithNote(hintOtherQualifier(other))
		}
		v.Report(msg)
	case AliasLoop:
		v.Report(errAliasLoop(b.chain))
	case SelfDependent:
		v.Report(errSelfDependent(b.cause))
	}
}

// otherQualifier finds a binding for the same type under another qualifier.
func (g *Graph) otherQualifier(n model.Node) Binding {
	for _, cur := range g.Ancestors() {
		for _, b := range cur.order {
			t := b.Target()
			if t.Type == n.Type && t.Qualifier != n.Qualifier && !t.IsContribution() {
				return b
			}
		}
	}
	return nil
}
