// Command odigraph works with binding graph declarations written in YAML.
//
// Subcommands:
//
//   - validate FILE: build every root component and print validation
//     messages. Exits non-zero when any error is reported.
//   - dump FILE: print each component's resolved bindings, their usage by
//     dependency kind, the condition literals it hosts and any loops.
//   - gen FILE --out PATH: generate a struct with one di.Func field per
//     registry key the declarations call, plus Registry() and Missing().
//   - run FILE: instantiate a root component against stub functions and
//     print every entry point. Condition literals come from --flag.
//
// Usage:
//
//	odigraph validate cafe.yaml --warnings
//	odigraph dump cafe.yaml --component Cafe/Order
//	odigraph gen cafe.yaml --out internal/wiring/functions.gen.go
//	odigraph run cafe.yaml --flag Features.espresso=true --metrics
//
// Logs go to stderr; --log-level selects the zerolog level (default warn).
//
// Generated files carry a Source-SHA256 header with the hash of the YAML
// they were produced from. gen keeps the di import path already used in the
// output directory, so projects with a forked runtime keep their fork.
package main
