package rt

import (
	"errors"
	"strconv"
)

var (
	// ErrUnknownEntryPoint is returned by EntryPoint for an undeclared name.
	ErrUnknownEntryPoint = errors.New("rt: unknown entry point")

	// ErrUnknownMembersInjector is returned by Inject for an undeclared name.
	ErrUnknownMembersInjector = errors.New("rt: unknown members injector")

	// ErrWrongParent is returned when a child graph is instantiated under a
	// component that is not an instance of its parent graph.
	ErrWrongParent = errors.New("rt: parent component does not match the graph hierarchy")
)

// ContractKind classifies programming-contract failures.
type ContractKind uint8

const (
	// NotReached: a binding that a valid graph never lets a caller reach was
	// accessed, such as a missing binding or a direct request on a binding
	// whose condition is false.
	NotReached ContractKind = iota
	// NullInstance: a bound instance, component dependency, module instance
	// or injection target was not supplied.
	NullInstance
	// MissingEntry: the registry has no usable function for a key.
	MissingEntry
)

func (k ContractKind) String() string {
	switch k {
	case NotReached:
		return "not reached"
	case NullInstance:
		return "null instance"
	case MissingEntry:
		return "missing registry entry"
	}
	return "contract(" + strconv.Itoa(int(k)) + ")"
}

// ContractError reports a violated runtime contract. It is not recoverable
// by retrying.
type ContractError struct {
	Kind      ContractKind
	Component string
	Subject   string
	Err       error
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	// Example: rt: not reached in App: [missing] Heater
	msg := "rt: " + e.Kind.String() + " in " + e.Component + ": " + e.Subject
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *ContractError) Unwrap() error { return e.Err }

// ConstructionError wraps an error returned by a registered function.
type ConstructionError struct {
	Component string
	Binding   string
	Err       error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	// Example: rt: App: provision Kitchen.heater -> Heater failed: boom
	return "rt: " + e.Component + ": " + e.Binding + " failed: " + e.Err.Error()
}

// Unwrap returns the error of the registered function.
func (e *ConstructionError) Unwrap() error { return e.Err }

// wrapConstruction attributes err to the binding unless it already carries
// attribution from a deeper binding.
func wrapConstruction(c *Component, subject string, err error) error {
	var ce *ConstructionError
	var ct *ContractError
	if errors.As(err, &ce) || errors.As(err, &ct) {
		return err
	}
	return &ConstructionError{Component: c.graph.Path(), Binding: subject, Err: err}
}
