package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sghaida/odigraph/decl"
	"github.com/sghaida/odigraph/di"
	"github.com/sghaida/odigraph/model"
	"github.com/sghaida/odigraph/rt"
	"github.com/sghaida/odigraph/validation"
)

// stubRegistry backs every registry key of the declarations with a function
// that describes its call, and condition literals with --flag values.
func stubRegistry(d *decl.Declarations, flags map[string]bool) *di.MapRegistry {
	reg := di.NewMapRegistry()
	for _, k := range d.RegistryKeys() {
		key := k.Key
		switch k.Kind {
		case decl.LiteralKey:
			reg.Value(key, flags[key])
		case decl.SetterKey:
			reg.Provide(key, func(args ...any) (any, error) {
				target, err := di.Arg[map[string]string](key, args, 0)
				if err != nil {
					return nil, err
				}
				_, member, _ := strings.Cut(key, ".")
				target[member] = describe(args[1], false)
				return nil, nil
			})
		default:
			reg.Provide(key, func(args ...any) (any, error) {
				parts := make([]string, 0, len(args))
				for _, a := range args {
					parts = append(parts, describe(a, false))
				}
				return key + "(" + strings.Join(parts, ", ") + ")", nil
			})
		}
	}
	return reg
}

// describe renders a runtime value. Handles are resolved when resolve is set.
func describe(v any, resolve bool) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	case di.Optional:
		val, ok := x.Get()
		if !ok {
			return "absent"
		}
		return "present(" + describe(val, resolve) + ")"
	case *di.Lazy:
		if !resolve {
			return "lazy"
		}
		val, err := x.Get()
		if err != nil {
			return "lazy(error: " + err.Error() + ")"
		}
		return "lazy(" + describe(val, resolve) + ")"
	case di.Provider:
		if !resolve {
			return "provider"
		}
		val, err := x.Get()
		if err != nil {
			return "provider(error: " + err.Error() + ")"
		}
		return "provider(" + describe(val, resolve) + ")"
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, describe(e, resolve))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return describeMap(x, func(e any) string { return describe(e, resolve) })
	case map[string]di.Provider:
		return describeMap(x, func(p di.Provider) string { return describe(p, resolve) })
	case *di.AssistedFactory:
		return "assisted-factory " + x.Name + "(" + strings.Join(x.Params, ", ") + ")"
	case *rt.ChildFactory:
		return "factory of " + x.Graph().Path()
	case *rt.Component:
		return "component " + x.Graph().Path()
	}
	return fmt.Sprint(v)
}

func describeMap[V any](m map[string]V, render func(V) string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strconv.Quote(k)+": "+render(m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// inputs supplies a stub value for every factory input of the component.
func inputs(c *model.ComponentModel) []rt.Option {
	if c.Factory == nil {
		return nil
	}
	instances := map[model.Node]any{}
	deps := map[string]any{}
	modules := map[string]any{}
	for _, in := range c.Factory.Inputs {
		switch in.Kind {
		case model.InstanceInput:
			instances[in.Node] = "input " + in.Name
		case model.DependencyInput:
			deps[string(in.Node.Type)] = "dependency " + string(in.Node.Type)
		case model.ModuleInput:
			modules[string(in.Node.Type)] = "module " + string(in.Node.Type)
		}
	}
	return []rt.Option{rt.WithInstances(instances), rt.WithComponentDependencies(deps), rt.WithModuleInstances(modules)}
}

func (c *cli) runCmd() *cobra.Command {
	var (
		component string
		entries   []string
		rawFlags  map[string]string
		metrics   bool
	)
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Instantiate a root component with stub functions and print its entry points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := map[string]bool{}
			for k, v := range rawFlags {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return fmt.Errorf("--flag %s=%s: %w", k, v, err)
				}
				flags[k] = b
			}

			d, tree, err := c.load(args[0])
			if err != nil {
				return err
			}
			g, err := findGraph(tree, component)
			if err != nil {
				return err
			}
			if g.Parent() != nil {
				return fmt.Errorf("component %s is not a root", g.Path())
			}
			if res := validation.Validate(g); res.HasErrors() {
				return fmt.Errorf("%w: %w", ErrInvalid, res.Err())
			}

			promReg := prometheus.NewRegistry()
			opts := append([]rt.Option{
				rt.WithRegistry(stubRegistry(d, flags)),
				rt.WithLogger(c.log),
				rt.WithMetrics(rt.NewMetrics(promReg)),
			}, inputs(g.Model())...)
			comp, err := rt.Instantiate(g, opts...)
			if err != nil {
				return err
			}

			names := entries
			if len(names) == 0 {
				for _, ep := range g.EntryPoints() {
					names = append(names, ep.Name)
				}
			}
			for _, name := range names {
				v, err := comp.EntryPoint(name)
				if err != nil {
					fmt.Fprintf(c.stdout, "%s: error: %v\n", name, err)
					continue
				}
				fmt.Fprintf(c.stdout, "%s: %s\n", name, describe(v, true))
			}
			for _, mi := range g.MemberInjectors() {
				target := map[string]string{}
				if err := comp.Inject(mi.Name, target); err != nil {
					fmt.Fprintf(c.stdout, "inject %s: error: %v\n", mi.Name, err)
					continue
				}
				fmt.Fprintf(c.stdout, "inject %s: %s\n", mi.Name,
					describeMap(target, func(s string) string { return s }))
			}

			if metrics {
				return c.printMetrics(promReg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&component, "component", "", "root component to run (default: first root)")
	cmd.Flags().StringSliceVar(&entries, "entry", nil, "entry points to print (default: all)")
	cmd.Flags().StringToStringVar(&rawFlags, "flag", nil, "condition literal values, e.g. Features.espresso=true")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print runtime counters after the run")
	return cmd
}

func (c *cli) printMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+strconv.Quote(l.GetValue()))
			}
			value := m.GetCounter().GetValue()
			if h := m.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			fmt.Fprintf(c.stdout, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
