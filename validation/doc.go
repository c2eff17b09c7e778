// Package validation implements the recursive validation walk shared by
// declaration models and binding graphs.
//
// Every entity exposes Validate(*Validator); it reports messages about itself
// and registers structural children. The walk validates each entity once and
// records every parent edge so that a message can be rendered with all the
// root-to-entity paths that reached it. Nothing is fail-fast: a single pass
// collects every defect.
package validation
