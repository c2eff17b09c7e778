// Package rt runs binding graphs without generated code.
//
// Instantiate creates a Component for a graph built by package graph. Every
// binding owned by the graph gets an access strategy on first use: caching
// when the binding declares a scope, creating otherwise; synchronized when
// the component requires it and the scope is not Reusable; conditional when
// the binding is requested optionally. Values come from functions looked up
// in a di.Registry.
//
// Condition literals are memoized per component instance in the instance
// whose graph declared them. Eager literals are computed by Instantiate,
// lazy ones on first use.
//
// A registered function must not request, on the same goroutine, the binding
// it is constructing: a synchronized slot would deadlock. Validation reports
// such loops before a graph can be instantiated.
//
// Synchronization follows the graph: a component locks its slots when it or
// an ancestor is multi-threaded. A multi-threaded child does not make its
// parent lock, so a hierarchy used from several goroutines marks its root.
//
// Failures split into two kinds. A *ConstructionError carries an error
// returned by a registered function and the call may be retried. A
// *ContractError reports a request a valid graph never makes, or a value
// the caller failed to supply.
package rt
