package engine

import (
	"fmt"
	"strings"
)

// ParseError aborts a load: malformed JSON or a missing required field.
type ParseError struct {
	Index int // -1 when the problem is not tied to an entry
	Name  string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("config parse error")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " in args[%d]", e.Index)
		if e.Name != "" {
			fmt.Fprintf(&b, " (%q)", e.Name)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError describes one structurally valid but unusable entry.
type ValidationError struct {
	Index  int
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Reason
	}
	return fmt.Sprintf("args[%d] %q: %s", e.Index, e.Name, e.Reason)
}

// ValidationErrors collects every failing entry so none hides another.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d invalid entries: %s", len(v), strings.Join(parts, "; "))
}

// ForIndex returns the error recorded for entry i, if any.
func (v ValidationErrors) ForIndex(i int) *ValidationError {
	for _, e := range v {
		if e.Index == i {
			return e
		}
	}
	return nil
}

// Warning is a non-fatal resolution problem, e.g. an unset variable.
type Warning struct {
	Entry string
	Token string
	Msg   string
}

func (w Warning) String() string {
	if w.Entry == "" {
		return fmt.Sprintf("%s: %s", w.Token, w.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", w.Entry, w.Token, w.Msg)
}
