package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/validation"
)

func node(t string) model.Node { return model.NewNode(model.Type(t)) }

func deps(types ...string) []model.Dependency {
	out := make([]model.Dependency, 0, len(types))
	for _, t := range types {
		out = append(out, model.On(node(t)))
	}
	return out
}

func provides(module, name, target string, dependencies ...string) *model.ProvidesModel {
	return &model.ProvidesModel{
		Module:       module,
		Name:         name,
		Target:       node(target),
		Dependencies: deps(dependencies...),
	}
}

func binds(module, target string, sources ...string) *model.BindsModel {
	b := &model.BindsModel{Module: module, Name: "bind" + target, Target: node(target)}
	for _, s := range sources {
		b.Sources = append(b.Sources, node(s))
	}
	return b
}

func entry(name string, d model.Dependency) model.EntryPoint {
	return model.EntryPoint{Name: name, Dependency: d}
}

func root(name string, modules ...*model.ModuleModel) *model.ComponentModel {
	return &model.ComponentModel{Name: name, Root: true, Modules: modules}
}

func child(name string, modules ...*model.ModuleModel) *model.ComponentModel {
	return &model.ComponentModel{
		Name:    name,
		Modules: modules,
		Factory: &model.ComponentFactoryModel{Type: model.Type(name + "Factory")},
	}
}

func flag(name string) model.Literal {
	return model.Literal{Root: node("Features"), Path: name}
}

func errorTexts(res *validation.Result) []string {
	var out []string
	for _, m := range res.Errors() {
		out = append(out, m.Text)
	}
	return out
}

func requireErrorContaining(t *testing.T, res *validation.Result, substr string) validation.LocatedMessage {
	t.Helper()
	for _, m := range res.Errors() {
		if strings.Contains(m.Text, substr) {
			return m
		}
	}
	require.Failf(t, "error not reported", "want %q in %v", substr, errorTexts(res))
	return validation.LocatedMessage{}
}

func countErrorsContaining(res *validation.Result, substr string) int {
	n := 0
	for _, m := range res.Errors() {
		if strings.Contains(m.Text, substr) {
			n++
		}
	}
	return n
}
