package main

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/sghaida/odigraph/decl"
)

const defaultDIImport = "github.com/sghaida/odigraph/di"

type genKey struct {
	decl.RegistryKey
	Field string
}

type genData struct {
	Source   string
	Hash     string
	Package  string
	Type     string
	DIImport string
	Keys     []genKey
}

var genTpl = template.Must(
	template.New("gen").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(`// Code generated by odigraph gen; DO NOT EDIT.
// Source: {{ .Source }}
// Source-SHA256: {{ .Hash }}

package {{ .Package }}

import di "{{ .DIImport }}"

// {{ .Type }} holds one function per registry key the declarations call.
type {{ .Type }} struct {
{{- range $i, $k := .Keys }}
{{- if $i }}
{{ end }}
	// {{ $k.Key }} ({{ $k.Kind }}){{ if $k.Args }}: {{ join $k.Args ", " }}{{ end }}
	{{ $k.Field }} di.Func
{{- end }}
}

// Registry returns a registry holding every non-nil function.
func (f *{{ .Type }}) Registry() *di.MapRegistry {
	reg := di.NewMapRegistry()
{{- range .Keys }}
	if f.{{ .Field }} != nil {
		reg.Provide({{ printf "%q" .Key }}, f.{{ .Field }})
	}
{{- end }}
	return reg
}

// Missing lists the keys whose function is nil.
func (f *{{ .Type }}) Missing() []string {
	var out []string
{{- range .Keys }}
	if f.{{ .Field }} == nil {
		out = append(out, {{ printf "%q" .Key }})
	}
{{- end }}
	return out
}
`),
)

func (c *cli) genCmd() *cobra.Command {
	var out, pkg, typeName string
	cmd := &cobra.Command{
		Use:   "gen FILE",
		Short: "Generate a typed holder for the registry functions of the declarations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(out) == "" {
				return fmt.Errorf("missing --out")
			}
			d, err := decl.Load(args[0])
			if err != nil {
				return err
			}
			if pkg == "" {
				pkg = filepath.Base(filepath.Dir(out))
				if out == "-" {
					pkg = "main"
				}
			}
			data := genData{
				Source:   filepath.ToSlash(args[0]),
				Hash:     d.Hash,
				Package:  pkg,
				Type:     typeName,
				DIImport: inferDIImport(out),
				Keys:     genKeys(d.RegistryKeys()),
			}
			var buf bytes.Buffer
			if err := genTpl.Execute(&buf, data); err != nil {
				return err
			}
			src, err := format.Source(buf.Bytes())
			if err != nil {
				return fmt.Errorf("format generated source: %w", err)
			}
			c.log.Info().Str("out", out).Int("keys", len(data.Keys)).Msg("registry holder generated")
			if out == "-" {
				_, err := c.stdout.Write(src)
				return err
			}
			return os.WriteFile(out, src, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output .gen.go file path, or - for stdout")
	cmd.Flags().StringVar(&pkg, "package", "", "package name (default: directory of --out)")
	cmd.Flags().StringVar(&typeName, "type", "Functions", "name of the generated struct")
	return cmd
}

// genKeys assigns a distinct exported field name to every key.
func genKeys(keys []decl.RegistryKey) []genKey {
	used := map[string]int{}
	out := make([]genKey, 0, len(keys))
	for _, k := range keys {
		field := fieldName(k.Key)
		used[field]++
		if n := used[field]; n > 1 {
			field += strconv.Itoa(n)
		}
		out = append(out, genKey{RegistryKey: k, Field: field})
	}
	return out
}

// fieldName turns a registry key into an exported identifier:
// "Kitchen.heater" -> "KitchenHeater".
func fieldName(key string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	s := b.String()
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		s = "F" + s
	}
	return s
}

// inferDIImport keeps the di import path already used next to the output,
// so a project that forked the runtime keeps its fork. Generated files are
// skipped except the previous output itself.
func inferDIImport(out string) string {
	if out == "-" {
		return defaultDIImport
	}
	imports := importsOf(out)
	if entries, err := os.ReadDir(filepath.Dir(out)); err == nil {
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".go") ||
				strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, ".gen.go") {
				continue
			}
			imports = append(imports, importsOf(filepath.Join(filepath.Dir(out), name))...)
		}
	}
	for _, imp := range imports {
		if imp.name == "di" || strings.HasSuffix(imp.path, "/di") {
			return imp.path
		}
	}
	return defaultDIImport
}

type goImport struct {
	name string
	path string
}

func importsOf(path string) []goImport {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.ImportsOnly)
	if err != nil {
		return nil
	}
	out := make([]goImport, 0, len(f.Imports))
	for _, imp := range f.Imports {
		gi := goImport{path: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			gi.name = imp.Name.Name
		}
		out = append(out, gi)
	}
	return out
}
