// Package model holds the value types of the binding graph: nodes,
// dependencies, condition scopes and variants, plus the read-only
// declaration models (components, modules, provisions, binds, factories)
// that a front end produces and the graph builder consumes.
//
// Everything here is immutable once built. Declaration models validate
// their own shape; cross-declaration checks belong to package graph.
package model
