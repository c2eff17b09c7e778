package decl

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
)

// SupportedVersions is the apiVersion range this package reads.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

var (
	// ErrUnsupportedVersion is returned when apiVersion is missing or outside
	// SupportedVersions.
	ErrUnsupportedVersion = errors.New("decl: unsupported apiVersion")

	// ErrUnknownName is wrapped when a module or component reference names
	// nothing declared in the document.
	ErrUnknownName = errors.New("decl: unknown name")

	// ErrDuplicateName is wrapped when two modules or two components share
	// a name.
	ErrDuplicateName = errors.New("decl: duplicate name")
)

var supported = semver.MustParse("1.0.0")

// Declarations are the model declarations read from one document.
type Declarations struct {
	Source     string
	Hash       string
	Version    *semver.Version
	Roots      []*model.ComponentModel
	Components []*model.ComponentModel
	Modules    []*model.ModuleModel
	Catalog    *model.Catalog

	constructors []*model.InjectConstructorModel
	factories    []*model.AssistedFactoryModel
}

// Component returns the named component.
func (d *Declarations) Component(name string) (*model.ComponentModel, bool) {
	for _, c := range d.Components {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Constructors returns the injectable constructors of the catalog in
// document order.
func (d *Declarations) Constructors() []*model.InjectConstructorModel {
	return slices.Clone(d.constructors)
}

// AssistedFactories returns the assisted factories of the catalog in
// document order.
func (d *Declarations) AssistedFactories() []*model.AssistedFactoryModel {
	return slices.Clone(d.factories)
}

// Build builds the binding graphs of every root with the document catalog.
func (d *Declarations) Build(opts ...graph.BuildOption) *graph.Tree {
	return graph.Build(d.Roots, append([]graph.BuildOption{graph.WithLookup(d.Catalog)}, opts...)...)
}

// Load reads and converts the document at path.
func Load(path string) (*Declarations, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decl: read %s: %w", path, err)
	}
	d, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// Parse decodes and converts a document. Unknown fields are rejected. Every
// conversion problem is reported; the returned error combines them.
func Parse(raw []byte) (*Declarations, error) {
	doc, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	d, err := doc.Declarations()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	d.Hash = hex.EncodeToString(sum[:])
	return d, nil
}

// Decode reads a Document without converting it.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrUnsupportedVersion)
		}
		return nil, fmt.Errorf("decl: decode: %w", err)
	}
	return &doc, nil
}

// CheckVersion parses v and checks it against SupportedVersions.
func CheckVersion(v string) (*semver.Version, error) {
	if strings.TrimSpace(v) == "" {
		return nil, fmt.Errorf("%w: missing apiVersion, want %s", ErrUnsupportedVersion, supported)
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedVersion, strconv.Quote(v), err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return nil, err
	}
	if !c.Check(ver) {
		return nil, fmt.Errorf("%w: %s is not in %s", ErrUnsupportedVersion, ver, SupportedVersions)
	}
	return ver, nil
}

// Declarations converts the document into model declarations.
func (doc *Document) Declarations() (*Declarations, error) {
	ver, err := CheckVersion(doc.APIVersion)
	if err != nil {
		return nil, err
	}
	cv := &converter{
		modules:        map[string]*model.ModuleModel{},
		components:     map[string]*model.ComponentModel{},
		moduleSpecs:    map[string]*ModuleSpec{},
		componentSpecs: map[string]*ComponentSpec{},
	}
	d := cv.convert(doc)
	if cv.err != nil {
		return nil, cv.err
	}
	d.Version = ver
	return d, nil
}

type converter struct {
	err        error
	modules    map[string]*model.ModuleModel
	components map[string]*model.ComponentModel

	// The document entry each name was first declared by; later duplicates are skipped.
	moduleSpecs    map[string]*ModuleSpec
	componentSpecs map[string]*ComponentSpec
}

func (cv *converter) fail(where string, err error) {
	cv.err = multierr.Append(cv.err, fmt.Errorf("%s: %w", where, err))
}

func (cv *converter) convert(doc *Document) *Declarations {
	d := &Declarations{Catalog: model.NewCatalog()}

	// Allocate first so includes and subcomponents may refer forward.
	for i := range doc.Modules {
		ms := &doc.Modules[i]
		if _, dup := cv.modules[ms.Name]; dup {
			cv.fail("module "+strconv.Quote(ms.Name), ErrDuplicateName)
			continue
		}
		m := &model.ModuleModel{Name: ms.Name, RequiresInstance: ms.RequiresInstance}
		cv.modules[ms.Name] = m
		cv.moduleSpecs[ms.Name] = ms
		d.Modules = append(d.Modules, m)
	}
	for i := range doc.Components {
		cs := &doc.Components[i]
		if _, dup := cv.components[cs.Name]; dup {
			cv.fail("component "+strconv.Quote(cs.Name), ErrDuplicateName)
			continue
		}
		c := &model.ComponentModel{Name: cs.Name, Root: cs.Root}
		cv.components[cs.Name] = c
		cv.componentSpecs[cs.Name] = cs
		d.Components = append(d.Components, c)
		if c.Root {
			d.Roots = append(d.Roots, c)
		}
	}

	for i := range doc.Modules {
		if ms := &doc.Modules[i]; cv.moduleSpecs[ms.Name] == ms {
			cv.module(ms)
		}
	}
	for i := range doc.Components {
		if cs := &doc.Components[i]; cv.componentSpecs[cs.Name] == cs {
			cv.component(cs)
		}
	}
	for i := range doc.Catalog.Constructors {
		if m := cv.constructor(&doc.Catalog.Constructors[i]); m != nil {
			d.Catalog.AddConstructor(m)
			d.constructors = append(d.constructors, m)
		}
	}
	for i := range doc.Catalog.AssistedFactories {
		if m := cv.assistedFactory(&doc.Catalog.AssistedFactories[i]); m != nil {
			d.Catalog.AddAssistedFactory(m)
			d.factories = append(d.factories, m)
		}
	}
	return d
}

func (cv *converter) module(ms *ModuleSpec) {
	m := cv.modules[ms.Name]
	where := "module " + strconv.Quote(ms.Name)
	for _, name := range ms.Includes {
		inc, ok := cv.modules[name]
		if !ok {
			cv.fail(where, fmt.Errorf("%w: include %s", ErrUnknownName, strconv.Quote(name)))
			continue
		}
		m.Includes = append(m.Includes, inc)
	}
	for _, name := range ms.Subcomponents {
		sub, ok := cv.components[name]
		if !ok {
			cv.fail(where, fmt.Errorf("%w: subcomponent %s", ErrUnknownName, strconv.Quote(name)))
			continue
		}
		m.Subcomponents = append(m.Subcomponents, sub)
	}
	for i := range ms.Provides {
		if p := cv.provides(ms.Name, &ms.Provides[i]); p != nil {
			m.Provides = append(m.Provides, p)
		}
	}
	for i := range ms.Binds {
		if b := cv.binds(ms.Name, &ms.Binds[i]); b != nil {
			m.Binds = append(m.Binds, b)
		}
	}
	for _, ds := range ms.Declares {
		kind, err := parseCollectionKind(ds.Kind)
		if err != nil {
			cv.fail(where, err)
			continue
		}
		m.Declared = append(m.Declared, model.DeclaredCollection{
			Kind:      kind,
			Element:   model.Type(ds.Element),
			Key:       model.Type(ds.Key),
			Qualifier: ds.Qualifier,
		})
	}
}

func (cv *converter) provides(module string, ps *ProvidesSpec) *model.ProvidesModel {
	where := "provision " + module + "." + ps.Name
	p := &model.ProvidesModel{
		Module:                 module,
		Name:                   ps.Name,
		Scopes:                 ps.Scopes,
		RequiresModuleInstance: ps.ModuleInstance,
	}
	ok := true
	if n, err := ParseNode(ps.Type); err != nil {
		cv.fail(where, err)
		ok = false
	} else {
		p.Target = n
	}
	if deps, good := cv.dependencies(where, ps.Deps); good {
		p.Dependencies = deps
	} else {
		ok = false
	}
	if conds, good := cv.gate(where, ps.Gate); good {
		p.Conditionals = conds
	} else {
		ok = false
	}
	if ps.Into != nil {
		if ct, good := cv.into(where, ps.Into); good {
			p.Collection = ct
		} else {
			ok = false
		}
	}
	if !ok {
		return nil
	}
	return p
}

func (cv *converter) binds(module string, bs *BindsSpec) *model.BindsModel {
	where := "binds " + module + "." + bs.Name
	b := &model.BindsModel{Module: module, Name: bs.Name, Scopes: bs.Scopes}
	ok := true
	if n, err := ParseNode(bs.Type); err != nil {
		cv.fail(where, err)
		ok = false
	} else {
		b.Target = n
	}
	for _, s := range bs.Sources {
		n, err := ParseNode(s)
		if err != nil {
			cv.fail(where, err)
			ok = false
			continue
		}
		b.Sources = append(b.Sources, n)
	}
	if bs.Into != nil {
		if ct, good := cv.into(where, bs.Into); good {
			b.Collection = ct
		} else {
			ok = false
		}
	}
	if !ok {
		return nil
	}
	return b
}

func (cv *converter) component(cs *ComponentSpec) {
	c := cv.components[cs.Name]
	where := "component " + strconv.Quote(cs.Name)
	c.Scopes = cs.Scopes
	c.MultiThreaded = cs.MultiThreaded
	if len(cs.Variant) > 0 {
		c.Variant = model.Variant(cs.Variant)
	}
	if conds, ok := cv.gate(where, cs.Gate); ok {
		c.Conditionals = conds
	}
	for _, name := range cs.Modules {
		m, ok := cv.modules[name]
		if !ok {
			cv.fail(where, fmt.Errorf("%w: module %s", ErrUnknownName, strconv.Quote(name)))
			continue
		}
		c.Modules = append(c.Modules, m)
	}
	for _, ds := range cs.Dependencies {
		dep := &model.ComponentDependencyModel{Type: model.Type(ds.Type)}
		for _, g := range ds.Getters {
			n, err := ParseNode(g.Type)
			if err != nil {
				cv.fail(where, err)
				continue
			}
			dep.Getters = append(dep.Getters, model.Getter{Name: g.Name, Node: n})
		}
		c.Dependencies = append(c.Dependencies, dep)
	}
	if fs := cs.Factory; fs != nil {
		f := &model.ComponentFactoryModel{Type: model.Type(fs.Type)}
		for _, in := range fs.Inputs {
			kind, err := parseInputKind(in.Kind)
			if err != nil {
				cv.fail(where, err)
				continue
			}
			n, err := ParseNode(in.Type)
			if err != nil {
				cv.fail(where, err)
				continue
			}
			f.Inputs = append(f.Inputs, model.FactoryInput{Name: in.Name, Kind: kind, Node: n})
		}
		c.Factory = f
	}
	for _, es := range cs.EntryPoints {
		d, err := ParseDependency(es.Dep)
		if err != nil {
			cv.fail(where+" entry point "+strconv.Quote(es.Name), err)
			continue
		}
		c.EntryPoints = append(c.EntryPoints, model.EntryPoint{Name: es.Name, Dependency: d})
	}
	for _, ms := range cs.MembersInjectors {
		mi := model.MembersInjectorModel{Name: ms.Name, Target: model.Type(ms.Target)}
		for _, member := range ms.Members {
			d, err := ParseDependency(member.Dep)
			if err != nil {
				cv.fail(where+" member "+ms.Target+"."+member.Name, err)
				continue
			}
			mi.Members = append(mi.Members, model.Member{Name: member.Name, Dependency: d})
		}
		c.MembersInjectors = append(c.MembersInjectors, mi)
	}
}

func (cv *converter) constructor(cs *ConstructorSpec) *model.InjectConstructorModel {
	where := "constructor " + strconv.Quote(cs.Type)
	deps, ok := cv.dependencies(where, cs.Deps)
	conds, good := cv.gate(where, cs.Gate)
	if !ok || !good {
		return nil
	}
	return &model.InjectConstructorModel{
		Type:         model.Type(cs.Type),
		Dependencies: deps,
		Scopes:       cs.Scopes,
		Conditionals: conds,
	}
}

func (cv *converter) assistedFactory(fs *AssistedFactorySpec) *model.AssistedFactoryModel {
	deps, ok := cv.dependencies("assisted factory "+strconv.Quote(fs.Type), fs.Deps)
	if !ok {
		return nil
	}
	return &model.AssistedFactoryModel{
		Type:         model.Type(fs.Type),
		Target:       model.Type(fs.Target),
		Params:       fs.Params,
		Dependencies: deps,
	}
}

func (cv *converter) dependencies(where string, specs []string) ([]model.Dependency, bool) {
	ok := true
	var out []model.Dependency
	for _, s := range specs {
		d, err := ParseDependency(s)
		if err != nil {
			cv.fail(where, err)
			ok = false
			continue
		}
		out = append(out, d)
	}
	return out, ok
}

func (cv *converter) gate(where string, g Gate) ([]model.Conditional, bool) {
	if g.When != "" && len(g.Conditionals) > 0 {
		cv.fail(where, fmt.Errorf("%w: both when and conditionals are set", ErrSyntax))
		return nil, false
	}
	if g.When != "" {
		s, err := ParseCondition(g.When)
		if err != nil {
			cv.fail(where, err)
			return nil, false
		}
		return []model.Conditional{{Features: s}}, true
	}
	ok := true
	var out []model.Conditional
	for _, cs := range g.Conditionals {
		s, err := ParseCondition(cs.When)
		if err != nil {
			cv.fail(where, err)
			ok = false
			continue
		}
		out = append(out, model.Conditional{Features: s, OnlyIn: cs.OnlyIn})
	}
	return out, ok
}

func (cv *converter) into(where string, is *IntoSpec) (*model.CollectionTarget, bool) {
	kind, err := parseCollectionKind(is.Kind)
	if err != nil {
		cv.fail(where, err)
		return nil, false
	}
	return &model.CollectionTarget{
		Kind:     kind,
		Flatten:  is.Flatten,
		Element:  model.Type(is.Element),
		Key:      model.Type(is.Key),
		KeyValue: is.Value,
	}, true
}
