package di

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Registry supplies the functions a component instance calls at runtime:
// provision bodies, condition literals, component dependency getters and
// member setters. Keys follow the declaration names, for example
// "CoffeeModule.heater" or "Features.espresso".
//
// Expected usage:
//
//	val, ok, err := reg.Resolve("CoffeeModule.heater")
type Registry interface {
	Resolve(key string) (val any, ok bool, err error)
}

// Func is the uniform shape of every registry entry. Arguments arrive in
// declaration order.
type Func func(args ...any) (any, error)

// ErrRegistryPanic is returned if a registry implementation panics internally.
var ErrRegistryPanic = errors.New("registry: panic during Resolve")

// MissingKeyError is returned when a registry has no entry for a key.
type MissingKeyError struct{ Key string }

// Error implements the error interface.
func (e MissingKeyError) Error() string {
	// Example: di: registry missing key "CoffeeModule.heater"
	return "di: registry missing key " + strconv.Quote(e.Key)
}

// WrongTypeError is returned when a registry entry or an argument does not
// have the expected type.
type WrongTypeError struct {
	Key     string
	Want    string
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: di: "CoffeeModule.heater" has wrong type (int), want di.Func
	return "di: " + strconv.Quote(e.Key) + " has wrong type (" + e.GotType + "), want " + e.Want
}

// MapRegistry is a simple in-memory registry.
type MapRegistry struct {
	items map[string]any
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[string]any{}}
}

// Provide stores a value under a key and returns the registry for chaining.
// Plain functions of the shapes accepted by FuncFor are stored as is.
func (r *MapRegistry) Provide(key string, val any) *MapRegistry {
	r.items[key] = val
	return r
}

// Value stores a constant under key: a Func ignoring its arguments.
func (r *MapRegistry) Value(key string, val any) *MapRegistry {
	return r.Provide(key, Func(func(...any) (any, error) { return val, nil }))
}

// Resolve implements Registry and converts panics into errors.
func (r *MapRegistry) Resolve(key string) (val any, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			ok = false
			err = fmt.Errorf("%w: %v", ErrRegistryPanic, rec)
		}
	}()

	v, ok := r.items[key]
	return v, ok, nil
}

// Get returns the value if present (no panic).
func (r *MapRegistry) Get(key string) (any, bool) {
	v, ok := r.items[key]
	return v, ok
}

// MustGet returns the value or panics with a helpful message.
// Useful in examples/tests where missing registry keys should fail fast.
func (r *MapRegistry) MustGet(key string) any {
	v, ok := r.items[key]
	if !ok {
		panic(MissingKeyError{Key: key})
	}
	return v
}

// Len returns the number of entries.
func (r *MapRegistry) Len() int { return len(r.items) }

// FuncFor resolves key and converts the entry to a Func.
//
// Accepted entry shapes are Func, func(...any) (any, error), func() (any, error),
// func() any and func() bool. Anything else is a WrongTypeError.
func FuncFor(reg Registry, key string) (Func, error) {
	if reg == nil {
		return nil, MissingKeyError{Key: key}
	}
	raw, ok, err := reg.Resolve(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, MissingKeyError{Key: key}
	}
	switch f := raw.(type) {
	case Func:
		return f, nil
	case func(...any) (any, error):
		return f, nil
	case func() (any, error):
		return func(...any) (any, error) { return f() }, nil
	case func() any:
		return func(...any) (any, error) { return f(), nil }, nil
	case func() bool:
		return func(...any) (any, error) { return f(), nil }, nil
	}
	return nil, WrongTypeError{Key: key, Want: "di.Func", GotType: typeName(raw)}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// Arg returns args[i] as T.
func Arg[T any](key string, args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, WrongTypeError{Key: key + "#" + strconv.Itoa(i), Want: typeName(&zero)[1:], GotType: "<missing>"}
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, WrongTypeError{Key: key + "#" + strconv.Itoa(i), Want: typeName(&zero)[1:], GotType: typeName(args[i])}
	}
	return v, nil
}

// Provide0 adapts a typed constructor without arguments.
func Provide0[T any](ctor func() (T, error)) Func {
	return func(...any) (any, error) { return ctor() }
}

// Provide1 adapts a typed constructor with one argument.
func Provide1[A, T any](key string, ctor func(A) (T, error)) Func {
	return func(args ...any) (any, error) {
		a, err := Arg[A](key, args, 0)
		if err != nil {
			return nil, err
		}
		return ctor(a)
	}
}

// Provide2 adapts a typed constructor with two arguments.
func Provide2[A, B, T any](key string, ctor func(A, B) (T, error)) Func {
	return func(args ...any) (any, error) {
		a, err := Arg[A](key, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := Arg[B](key, args, 1)
		if err != nil {
			return nil, err
		}
		return ctor(a, b)
	}
}

// Provide3 adapts a typed constructor with three arguments.
func Provide3[A, B, C, T any](key string, ctor func(A, B, C) (T, error)) Func {
	return func(args ...any) (any, error) {
		a, err := Arg[A](key, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := Arg[B](key, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := Arg[C](key, args, 2)
		if err != nil {
			return nil, err
		}
		return ctor(a, b, c)
	}
}
