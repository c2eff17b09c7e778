// Package di holds the values a running component hands out and the
// registry it calls into.
//
// A component instance never calls user code directly. Provision bodies,
// condition literals, component dependency getters and member setters are
// looked up by key in a Registry and invoked as Func values:
//
//	reg := di.NewMapRegistry().
//		Provide("CoffeeModule.heater", di.Provide0(newHeater)).
//		Provide("CoffeeModule.pump", di.Provide1("CoffeeModule.pump", newPump))
//
// Requests other than Direct are wrapped in handles: Lazy (computed once on
// first Get), Provider (per-Get, honoring the binding's caching), Optional
// (present or absent) and AssistedFactory (assisted arguments plus injected
// ones). As converts the untyped values back to concrete types.
//
// Import
//
//	"github.com/sghaida/odigraph/di"
package di
