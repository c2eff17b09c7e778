// Package graph builds binding graphs from component declarations.
//
// Build turns a set of root components into a Tree: one Graph per component,
// linked by parent id. Each graph owns its explicit bindings and resolves
// everything else on demand (ancestors first, then injectable constructors,
// then a Missing stub). Build also orders multi-binding contributions,
// computes per-binding usage and the condition literals each graph has to
// evaluate, and records dependency loops.
//
// Nothing in Build fails. Defects are kept on the graph and reported by
// validation.Validate(graph).
package graph
