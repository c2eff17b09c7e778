package rt

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/odigraph/di"
	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/validation"
)

func node(t string) model.Node { return model.NewNode(model.Type(t)) }

func provides(module, name, target string, dependencies ...string) *model.ProvidesModel {
	p := &model.ProvidesModel{Module: module, Name: name, Target: node(target)}
	for _, d := range dependencies {
		p.Dependencies = append(p.Dependencies, model.On(node(d)))
	}
	return p
}

func entry(name string, d model.Dependency) model.EntryPoint {
	return model.EntryPoint{Name: name, Dependency: d}
}

func flag(name string) model.Literal {
	return model.Literal{Root: node("Features"), Path: name}
}

func gated(p *model.ProvidesModel, s model.ConditionScope) *model.ProvidesModel {
	p.Conditionals = []model.Conditional{{Features: s}}
	return p
}

func scoped(p *model.ProvidesModel, scopes ...string) *model.ProvidesModel {
	p.Scopes = scopes
	return p
}

// build builds and validates the tree, failing the test on validation errors.
func build(t *testing.T, roots ...*model.ComponentModel) *graph.Tree {
	t.Helper()
	tree := graph.Build(roots)
	for _, r := range tree.Roots() {
		res := validation.Validate(r)
		require.False(t, res.HasErrors(), "%v", res.Err())
	}
	return tree
}

// counter is a registry function that counts its calls.
type counter struct {
	calls atomic.Int32
	fn    func(n int32, args []any) (any, error)
}

func (c *counter) Func() di.Func {
	return func(args ...any) (any, error) {
		n := c.calls.Add(1)
		return c.fn(n, args)
	}
}

func (c *counter) Calls() int { return int(c.calls.Load()) }

func countingValue(v any) *counter {
	return &counter{fn: func(int32, []any) (any, error) { return v, nil }}
}

type boxed struct{ n int32 }

// newBoxes returns a counter producing a fresh *boxed per call.
func newBoxes() *counter {
	return &counter{fn: func(n int32, _ []any) (any, error) { return &boxed{n: n}, nil }}
}
