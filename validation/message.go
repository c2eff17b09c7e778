package validation

import (
	"fmt"
	"slices"
	"strings"
)

// Kind classifies a validation message.
type Kind uint8

const (
	// Error fails the validation pass.
	Error Kind = iota
	// Warning is informational.
	Warning
	// MandatoryWarning must be acknowledged by the consumer of the result.
	MandatoryWarning
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case MandatoryWarning:
		return "mandatory-warning"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Message is one diagnostic reported by a validatable entity.
type Message struct {
	Kind  Kind
	Text  string
	Notes []string
}

// WithNote returns a copy of m with note appended.
func (m Message) WithNote(note string) Message {
	m.Notes = append(slices.Clone(m.Notes), note)
	return m
}

func (m Message) key() string {
	return m.Kind.String() + "\x00" + m.Text + "\x00" + strings.Join(m.Notes, "\x00")
}

// Errorf builds an Error message.
func Errorf(format string, args ...any) Message {
	return Message{Kind: Error, Text: fmt.Sprintf(format, args...)}
}

// Warnf builds a Warning message.
func Warnf(format string, args ...any) Message {
	return Message{Kind: Warning, Text: fmt.Sprintf(format, args...)}
}

// MandatoryWarnf builds a MandatoryWarning message.
func MandatoryWarnf(format string, args ...any) Message {
	return Message{Kind: MandatoryWarning, Text: fmt.Sprintf(format, args...)}
}

// LocatedMessage is a message together with every path from the validation
// root to the entity that reported it.
type LocatedMessage struct {
	Message
	Paths [][]string
}

// Error implements error for located messages of any kind.
func (m LocatedMessage) Error() string {
	var b strings.Builder
	b.WriteString(m.Kind.String())
	b.WriteString(": ")
	b.WriteString(m.Text)
	for _, n := range m.Notes {
		b.WriteString("\n  note: ")
		b.WriteString(n)
	}
	for _, p := range m.Paths {
		b.WriteString("\n  encountered in: ")
		b.WriteString(strings.Join(p, " -> "))
	}
	return b.String()
}
