package decl

import (
	"slices"
	"strings"

	"github.com/sghaida/odigraph/model"
)

// KeyKind classifies the registry function behind a key.
type KeyKind string

const (
	ProvisionKey   KeyKind = "provision"
	ConstructorKey KeyKind = "constructor"
	AssistedKey    KeyKind = "assisted"
	GetterKey      KeyKind = "getter"
	SetterKey      KeyKind = "setter"
	LiteralKey     KeyKind = "literal"
)

// RegistryKey is one function a runtime registry must hold for the
// declarations. Args lists what the function receives, in order.
type RegistryKey struct {
	Key  string
	Kind KeyKind
	Args []string
}

// RegistryKeys lists every registry key the declarations may call, sorted
// by key. A key declared twice is listed once.
func (d *Declarations) RegistryKeys() []RegistryKey {
	seen := map[string]struct{}{}
	var out []RegistryKey
	add := func(k RegistryKey) {
		if _, dup := seen[k.Key]; dup {
			return
		}
		seen[k.Key] = struct{}{}
		out = append(out, k)
	}
	literals := func(conds []model.Conditional) {
		for _, c := range conds {
			for _, l := range c.Features.Literals() {
				k := RegistryKey{Key: l.Key(), Kind: LiteralKey}
				if l.Instance {
					k.Args = []string{l.Root.String()}
				}
				add(k)
			}
		}
	}

	for _, m := range d.Modules {
		for _, p := range m.Provides {
			k := RegistryKey{Key: p.Key(), Kind: ProvisionKey}
			if p.RequiresModuleInstance {
				k.Args = append(k.Args, "module "+m.Name)
			}
			k.Args = append(k.Args, depArgs(p.Dependencies)...)
			add(k)
			literals(p.Conditionals)
		}
	}
	for _, c := range d.Components {
		literals(c.Conditionals)
		for _, dep := range c.Dependencies {
			for _, g := range dep.Getters {
				add(RegistryKey{Key: string(dep.Type) + "." + g.Name, Kind: GetterKey, Args: []string{string(dep.Type)}})
			}
		}
		for _, mi := range c.MembersInjectors {
			for _, member := range mi.Members {
				add(RegistryKey{
					Key:  string(mi.Target) + "." + member.Name,
					Kind: SetterKey,
					Args: []string{string(mi.Target), member.Dependency.String()},
				})
			}
		}
	}
	for _, c := range d.constructors {
		add(RegistryKey{Key: string(c.Type), Kind: ConstructorKey, Args: depArgs(c.Dependencies)})
		literals(c.Conditionals)
	}
	for _, f := range d.factories {
		add(RegistryKey{
			Key:  string(f.Target),
			Kind: AssistedKey,
			Args: append(depArgs(f.Dependencies), f.Params...),
		})
	}

	slices.SortFunc(out, func(a, b RegistryKey) int { return strings.Compare(a.Key, b.Key) })
	return out
}

func depArgs(deps []model.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.String())
	}
	return out
}
