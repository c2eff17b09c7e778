package validation

import (
	"slices"

	"go.uber.org/multierr"
)

// Validatable is an entity of the validation tree.
//
// Implementations must be comparable (typically pointers); each distinct
// entity is validated exactly once per Validate call no matter how many
// parents reach it.
type Validatable interface {
	Validate(v *Validator)
	String() string
}

// maxPaths caps the number of encounter paths rendered per message.
const maxPaths = 8

// Validator is handed to an entity while it validates itself. It reports
// messages on behalf of that entity and registers structural children.
type Validator struct {
	run     *run
	current Validatable
	inlined map[Validatable]struct{}
}

type run struct {
	root     Validatable
	order    []Validatable
	visited  map[Validatable]struct{}
	parents  map[Validatable][]Validatable
	messages map[Validatable][]Message
	seen     map[Validatable]map[string]struct{}
}

// Validate walks the tree rooted at root and collects every message.
func Validate(root Validatable) *Result {
	r := &run{
		root:     root,
		visited:  map[Validatable]struct{}{},
		parents:  map[Validatable][]Validatable{},
		messages: map[Validatable][]Message{},
		seen:     map[Validatable]map[string]struct{}{},
	}
	r.visit(root)
	return r.result()
}

func (r *run) visit(e Validatable) {
	r.visited[e] = struct{}{}
	r.order = append(r.order, e)
	v := &Validator{run: r, current: e}
	e.Validate(v)
}

// Child registers e as a structural child of the current entity and
// validates it if it was not validated before.
func (v *Validator) Child(e Validatable) {
	if e == nil {
		return
	}
	r := v.run
	_, visited := r.visited[e]
	if !slices.Contains(r.parents[e], v.current) && e != v.current {
		r.parents[e] = append(r.parents[e], v.current)
	}
	if !visited {
		r.visit(e)
	}
}

// Inline validates e as if it were part of the current entity: its messages
// and children are attributed to the current entity.
func (v *Validator) Inline(e Validatable) {
	if e == nil || e == v.current {
		return
	}
	if v.inlined == nil {
		v.inlined = map[Validatable]struct{}{}
	}
	if _, ok := v.inlined[e]; ok {
		return
	}
	v.inlined[e] = struct{}{}
	e.Validate(v)
}

// Report records m for the current entity. Identical messages reported
// twice for one entity are kept once.
func (v *Validator) Report(m Message) {
	r := v.run
	seen := r.seen[v.current]
	if seen == nil {
		seen = map[string]struct{}{}
		r.seen[v.current] = seen
	}
	k := m.key()
	if _, dup := seen[k]; dup {
		return
	}
	seen[k] = struct{}{}
	r.messages[v.current] = append(r.messages[v.current], m)
}

// Current returns the entity being validated.
func (v *Validator) Current() Validatable { return v.current }

func (r *run) result() *Result {
	res := &Result{}
	for _, e := range r.order {
		msgs := r.messages[e]
		if len(msgs) == 0 {
			continue
		}
		paths := r.paths(e)
		for _, m := range msgs {
			res.Messages = append(res.Messages, LocatedMessage{Message: m, Paths: paths})
		}
	}
	return res
}

// paths enumerates root-to-entity paths through the recorded parent edges.
func (r *run) paths(e Validatable) [][]string {
	var out [][]string
	var walk func(n Validatable, suffix []Validatable)
	walk = func(n Validatable, suffix []Validatable) {
		if len(out) >= maxPaths {
			return
		}
		suffix = append([]Validatable{n}, suffix...)
		parents := r.parents[n]
		if n == r.root || len(parents) == 0 {
			p := make([]string, 0, len(suffix))
			for _, s := range suffix {
				p = append(p, s.String())
			}
			out = append(out, p)
			return
		}
		for _, parent := range parents {
			if slices.Contains(suffix, parent) {
				continue
			}
			walk(parent, suffix)
		}
	}
	walk(e, nil)
	return out
}

// Result holds every message produced by one validation pass, in the order
// the reporting entities were first encountered.
type Result struct {
	Messages []LocatedMessage
}

// Errors returns the Error messages.
func (r *Result) Errors() []LocatedMessage { return r.filter(Error) }

// Warnings returns Warning and MandatoryWarning messages.
func (r *Result) Warnings() []LocatedMessage {
	return append(r.filter(Warning), r.filter(MandatoryWarning)...)
}

// HasErrors reports whether any Error message was produced.
func (r *Result) HasErrors() bool { return len(r.Errors()) > 0 }

// Err combines every Error message into a single error, or returns nil.
func (r *Result) Err() error {
	var err error
	for _, m := range r.Errors() {
		err = multierr.Append(err, m)
	}
	return err
}

func (r *Result) filter(k Kind) []LocatedMessage {
	var out []LocatedMessage
	for _, m := range r.Messages {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}
