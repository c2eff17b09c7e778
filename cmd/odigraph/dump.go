package main

import (
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
)

type bindingRow struct {
	Binding string
	Scopes  []string
	Cond    string
	Usage   string
}

type literalRow struct {
	Literal string
	Usage   string
}

type graphView struct {
	Path         string
	Scopes       []string
	Variant      string
	Cond         string
	Synchronized bool
	EntryPoints  []*graph.EntryPoint
	Bindings     []bindingRow
	Literals     []literalRow
	Loops        []string
}

func viewOf(g *graph.Graph) graphView {
	v := graphView{
		Path:         g.Path(),
		Scopes:       g.Scopes(),
		Variant:      g.Variant().String(),
		Cond:         g.ConditionScope().String(),
		Synchronized: g.RequiresSynchronizedAccess(),
		EntryPoints:  g.EntryPoints(),
	}
	for _, b := range g.SortedLocalBindings() {
		usage, _ := g.Usage(b)
		v.Bindings = append(v.Bindings, bindingRow{
			Binding: b.String(),
			Scopes:  b.Scopes(),
			Cond:    b.ConditionScope().String(),
			Usage:   usageString(usage),
		})
	}
	literals := g.LocalConditionLiterals()
	keys := make([]model.Literal, 0, len(literals))
	for l := range literals {
		keys = append(keys, l)
	}
	slices.SortFunc(keys, model.CompareLiterals)
	for _, l := range keys {
		v.Literals = append(v.Literals, literalRow{Literal: l.String(), Usage: literals[l].String()})
	}
	for _, loop := range g.Loops() {
		parts := make([]string, 0, len(loop))
		for _, b := range loop {
			parts = append(parts, b.String())
		}
		v.Loops = append(v.Loops, strings.Join(parts, " -> "))
	}
	return v
}

func usageString(u graph.BindingUsage) string {
	var parts []string
	for k := model.Direct; k <= model.OptionalProvider; k++ {
		if n := u.Count(k); n > 0 {
			parts = append(parts, k.String()+"="+strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return "unused"
	}
	return strings.Join(parts, " ")
}

// walk lists g and its descendants depth-first.
func walk(g *graph.Graph) []*graph.Graph {
	out := []*graph.Graph{g}
	for _, child := range g.Children() {
		out = append(out, walk(child)...)
	}
	return out
}

var dumpTpl = template.Must(
	template.New("dump").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(`{{- range . -}}
component {{ .Path }}
  scopes:       [{{ join .Scopes ", " }}]
  variant:      {{ .Variant }}
  condition:    {{ .Cond }}
  synchronized: {{ .Synchronized }}
{{- if .EntryPoints }}
  entry points:
{{- range .EntryPoints }}
    {{ .Name }}: {{ .Dependency }}
{{- end }}
{{- end }}
  bindings:
{{- range .Bindings }}
    {{ .Binding }}{{ if .Scopes }} [{{ join .Scopes ", " }}]{{ end }}
      condition: {{ .Cond }}; used: {{ .Usage }}
{{- end }}
{{- if .Literals }}
  literals:
{{- range .Literals }}
    {{ .Literal }}: {{ .Usage }}
{{- end }}
{{- end }}
{{- if .Loops }}
  loops:
{{- range .Loops }}
    {{ . }}
{{- end }}
{{- end }}

{{ end -}}
`),
)

func (c *cli) dumpCmd() *cobra.Command {
	var component string
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the resolved bindings, usage and condition literals of each component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tree, err := c.load(args[0])
			if err != nil {
				return err
			}
			var graphs []*graph.Graph
			if component != "" {
				g, err := findGraph(tree, component)
				if err != nil {
					return err
				}
				graphs = []*graph.Graph{g}
			} else {
				for _, r := range tree.Roots() {
					graphs = append(graphs, walk(r)...)
				}
			}
			views := make([]graphView, 0, len(graphs))
			for _, g := range graphs {
				views = append(views, viewOf(g))
			}
			return dumpTpl.Execute(c.stdout, views)
		},
	}
	cmd.Flags().StringVar(&component, "component", "", "dump only this component (name or path)")
	return cmd
}
