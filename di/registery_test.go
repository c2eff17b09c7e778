package di

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// NewMapRegistry / Provide
// -----------------------------------------------------------------------------

// TestNewMapRegistry_Empty verifies NewMapRegistry initializes a non-nil registry with an empty map.
func TestNewMapRegistry_Empty(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry()
	require.NotNil(t, r)
	require.NotNil(t, r.items)
	assert.Equal(t, 0, r.Len())
}

// TestProvide_ChainsAndStores verifies Provide stores values and returns the same registry for chaining.
func TestProvide_ChainsAndStores(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry()

	ret := r.Provide("a", 1).Provide("b", "x")
	require.Same(t, r, ret)

	gotA, okA := r.Get("a")
	require.True(t, okA)
	assert.Equal(t, 1, gotA)

	gotB, okB := r.Get("b")
	require.True(t, okB)
	assert.Equal(t, "x", gotB)
}

// TestValue_StoresConstantFunc verifies Value stores a Func returning the constant.
func TestValue_StoresConstantFunc(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry().Value("Features.espresso", true)
	f, err := FuncFor(r, "Features.espresso")
	require.NoError(t, err)

	got, err := f("ignored")
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

//
// -----------------------------------------------------------------------------
// Get / MustGet
// -----------------------------------------------------------------------------

// TestGet_Missing verifies Get returns (nil,false) for missing keys.
func TestGet_Missing(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry()
	got, ok := r.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, got)
}

// TestMustGet_Present verifies MustGet returns the stored value.
func TestMustGet_Present(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry().Provide("k", "v")
	assert.Equal(t, "v", r.MustGet("k"))
}

// TestMustGet_Missing verifies MustGet panics with a helpful message when key is missing.
func TestMustGet_Missing(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry()

	require.PanicsWithError(t, `di: registry missing key "missing"`, func() {
		_ = r.MustGet("missing")
	})
}

//
// -----------------------------------------------------------------------------
// Resolve
// -----------------------------------------------------------------------------

// TestResolve_Present verifies Resolve returns the stored value and ok=true.
func TestResolve_Present(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry().Provide("k", "v")

	val, ok, err := r.Resolve("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", val)
}

// TestResolve_Missing verifies Resolve returns (nil,false,nil) for missing keys.
func TestResolve_Missing(t *testing.T) {
	t.Parallel()

	r := NewMapRegistry()

	val, ok, err := r.Resolve("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

// TestResolve_RecoversFromPanic verifies Resolve converts internal panics into errors.
// We trigger a panic via a nil receiver, which panics when accessing r.items in Resolve.
func TestResolve_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	var r *MapRegistry // nil receiver

	val, ok, err := r.Resolve("k")

	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)

	assert.True(t, errors.Is(err, ErrRegistryPanic), "expected ErrRegistryPanic wrapping, got: %v", err)
	assert.Contains(t, err.Error(), "registry: panic during Resolve")
}

//
// -----------------------------------------------------------------------------
// FuncFor
// -----------------------------------------------------------------------------

// TestFuncFor_Shapes verifies every accepted entry shape converts to a Func.
func TestFuncFor_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry any
		want  any
	}{
		{name: "func", entry: Func(func(args ...any) (any, error) { return len(args), nil }), want: 2},
		{name: "variadic", entry: func(args ...any) (any, error) { return args[0], nil }, want: "a"},
		{name: "nullary with error", entry: func() (any, error) { return "x", nil }, want: "x"},
		{name: "nullary", entry: func() any { return 7 }, want: 7},
		{name: "flag", entry: func() bool { return true }, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := FuncFor(NewMapRegistry().Provide("k", tt.entry), "k")
			require.NoError(t, err)
			got, err := f("a", "b")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestFuncFor_Errors verifies missing and mistyped entries produce typed errors.
func TestFuncFor_Errors(t *testing.T) {
	t.Parallel()

	_, err := FuncFor(NewMapRegistry(), "missing")
	var missing MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "missing", missing.Key)

	_, err = FuncFor(nil, "nil")
	require.ErrorAs(t, err, &missing)

	_, err = FuncFor(NewMapRegistry().Provide("k", 42), "k")
	var wrong WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "int", wrong.GotType)
	assert.EqualError(t, err, `di: "k" has wrong type (int), want di.Func`)
}

//
// -----------------------------------------------------------------------------
// Typed adapters
// -----------------------------------------------------------------------------

type heater struct{ watts int }

type pump struct{ heater *heater }

// TestProvideN_Adapters verifies typed adapters check argument types.
func TestProvideN_Adapters(t *testing.T) {
	t.Parallel()

	newHeater := Provide0(func() (*heater, error) { return &heater{watts: 1200}, nil })
	newPump := Provide1("M.pump", func(h *heater) (*pump, error) { return &pump{heater: h}, nil })
	sum := Provide2("M.sum", func(a, b int) (int, error) { return a + b, nil })
	join := Provide3("M.join", func(a, b, c string) (string, error) { return a + b + c, nil })

	h, err := newHeater()
	require.NoError(t, err)
	p, err := newPump(h)
	require.NoError(t, err)
	assert.Same(t, h, p.(*pump).heater)

	s, err := sum(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, s)

	j, err := join("a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, "abc", j)

	_, err = newPump("not a heater")
	var wrong WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "M.pump#0", wrong.Key)
	assert.Equal(t, "*di.heater", wrong.Want)
	assert.Equal(t, "string", wrong.GotType)

	_, err = sum(1)
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "<missing>", wrong.GotType)
}
