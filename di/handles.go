package di

import (
	"errors"
	"strconv"
	"sync"
)

// ErrAbsent is returned by Optional.Value for an absent optional.
var ErrAbsent = errors.New("di: optional value is absent")

// ArityError is returned when an assisted factory receives the wrong number
// of assisted arguments.
type ArityError struct {
	Factory string
	Want    int
	Got     int
}

// Error implements the error interface.
func (e ArityError) Error() string {
	// Example: di: factory "PumpFactory" takes 2 assisted arguments, got 1
	return "di: factory " + strconv.Quote(e.Factory) + " takes " + strconv.Itoa(e.Want) +
		" assisted arguments, got " + strconv.Itoa(e.Got)
}

// Lazy defers a computation to the first Get and memoizes its result.
// A failed computation is not memoized; the next Get retries.
//
// Lazy is safe for concurrent use.
type Lazy struct {
	mu      sync.Mutex
	done    bool
	val     any
	compute func() (any, error)
}

// NewLazy returns a Lazy around compute.
func NewLazy(compute func() (any, error)) *Lazy {
	return &Lazy{compute: compute}
}

// Get computes the value on first use and returns the memoized one after.
func (l *Lazy) Get() (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.val, nil
	}
	v, err := l.compute()
	if err != nil {
		return nil, err
	}
	l.val, l.done = v, true
	return v, nil
}

// Provider returns the value of a binding each time Get is called. Whether
// the value is shared between calls depends on the binding's caching.
type Provider struct {
	get func() (any, error)
}

// NewProvider returns a Provider calling get.
func NewProvider(get func() (any, error)) Provider { return Provider{get: get} }

// Get returns the current value.
func (p Provider) Get() (any, error) { return p.get() }

// Optional holds a value or nothing.
type Optional struct {
	val     any
	present bool
}

// Present wraps v.
func Present(v any) Optional { return Optional{val: v, present: true} }

// Absent is the empty optional.
func Absent() Optional { return Optional{} }

// IsPresent reports whether a value is held.
func (o Optional) IsPresent() bool { return o.present }

// Get returns the held value and whether it is present.
func (o Optional) Get() (any, bool) { return o.val, o.present }

// Value returns the held value or ErrAbsent.
func (o Optional) Value() (any, error) {
	if !o.present {
		return nil, ErrAbsent
	}
	return o.val, nil
}

// OrElse returns the held value or def.
func (o Optional) OrElse(def any) any {
	if !o.present {
		return def
	}
	return o.val
}

// AssistedFactory creates values from caller-supplied assisted arguments
// combined with injected dependencies.
type AssistedFactory struct {
	Name   string
	Params []string
	create func(assisted []any) (any, error)
}

// NewAssistedFactory returns a factory taking len(params) assisted arguments.
func NewAssistedFactory(name string, params []string, create func(assisted []any) (any, error)) *AssistedFactory {
	return &AssistedFactory{Name: name, Params: params, create: create}
}

// Create builds a new value. Every call constructs a fresh value.
func (f *AssistedFactory) Create(assisted ...any) (any, error) {
	if len(assisted) != len(f.Params) {
		return nil, ArityError{Factory: f.Name, Want: len(f.Params), Got: len(assisted)}
	}
	return f.create(assisted)
}

// As converts a runtime value to T.
func As[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, WrongTypeError{Key: "value", Want: typeName(&zero)[1:], GotType: typeName(v)}
	}
	return t, nil
}

// MustAs converts a runtime value to T or panics.
func MustAs[T any](v any) T {
	t, err := As[T](v)
	if err != nil {
		panic(err)
	}
	return t
}

// LazyAs resolves a Lazy and converts its value to T.
func LazyAs[T any](l *Lazy) (T, error) {
	v, err := l.Get()
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}
