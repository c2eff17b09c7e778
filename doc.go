// Package odigraph resolves dependency-injection binding graphs and runs them.
//
// A component declares modules, component dependencies and entry points; the
// modules provide, bind and contribute values. Building the graphs answers,
// for every component, which binding satisfies each requested node, which
// bindings are used and how, and under which feature conditions each binding
// is reachable. The runtime then gives each binding an access strategy
// (scoped caching, optional presence, memoized condition literals) and calls
// plain Go functions from a registry to construct values.
//
// See subpackages:
//   - model: declarations (components, modules, nodes, conditions, variants)
//   - graph: binding resolution, usage, loops and validation per component
//   - validation: located error and warning messages
//   - rt: runtime components, access strategies and metrics
//   - di: registry, Lazy/Provider/Optional handles and typed adapters
//   - decl: YAML declarations and the registry keys they call
//   - cmd/odigraph: validate, dump, gen and run commands
//   - examples/coffee: runnable end-to-end example
package odigraph
