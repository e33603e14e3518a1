package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the typed payload of an Entry. The concrete type is chosen from
// the entry's Kind when the config is parsed.
type Value interface {
	// Text is the editable form shown in a control.
	Text() string
	raw() json.RawMessage
}

// FlagValue carries nothing that is rendered; whatever the file held is kept
// so saving does not rewrite it.
type FlagValue struct{ keep json.RawMessage }

type StringValue struct{ S string }

// NumberValue keeps the literal as written. Quoted records whether the file
// stored it as a JSON string.
type NumberValue struct {
	Literal string
	Quoted  bool
}

// ListValue is a comma-delimited string.
type ListValue struct{ S string }

// InvalidValue holds JSON that does not fit the entry's kind.
type InvalidValue struct{ Raw json.RawMessage }

func (FlagValue) Text() string      { return "" }
func (v StringValue) Text() string  { return v.S }
func (v NumberValue) Text() string  { return v.Literal }
func (v ListValue) Text() string    { return v.S }
func (v InvalidValue) Text() string { return string(v.Raw) }

func (v FlagValue) raw() json.RawMessage {
	if len(v.keep) == 0 {
		return json.RawMessage("null")
	}
	return v.keep
}

func (v StringValue) raw() json.RawMessage { return quoteJSON(v.S) }
func (v ListValue) raw() json.RawMessage   { return quoteJSON(v.S) }

func (v NumberValue) raw() json.RawMessage {
	lit := strings.TrimSpace(v.Literal)
	if !v.Quoted && isJSONNumber(lit) {
		return json.RawMessage(lit)
	}
	return quoteJSON(v.Literal)
}

func (v InvalidValue) raw() json.RawMessage {
	if len(v.Raw) == 0 {
		return json.RawMessage("null")
	}
	return v.Raw
}

// Elements splits a list on commas outside tokens, without trimming.
func (v ListValue) Elements() []string {
	if v.S == "" {
		return nil
	}
	return splitList(v.S)
}

// Float parses the literal. Only finite JSON-style numbers are accepted.
func (v NumberValue) Float() (float64, error) {
	lit := strings.TrimSpace(v.Literal)
	if !isJSONNumber(lit) {
		return 0, fmt.Errorf("%q is not a number", v.Literal)
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not a finite number", v.Literal)
	}
	return f, nil
}

// Entry is one configurable command-line argument.
type Entry struct {
	Name        string
	Description string
	Kind        Kind
	Value       Value
	Enabled     bool

	// emptyDesc holds the raw "" or null of a description key that was
	// present but empty, so saving writes it back.
	emptyDesc json.RawMessage
}

// Flag returns the rendered option name, e.g. "--enable-logging".
func (e Entry) Flag() string {
	return "--" + strings.TrimLeft(e.Name, "-")
}

// Validate checks the value against the kind.
func (e Entry) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown type %q", string(e.Kind))
	}
	switch v := e.Value.(type) {
	case InvalidValue:
		if len(v.Raw) == 0 || string(v.Raw) == "null" {
			return fmt.Errorf("%s entry requires a value", e.Kind)
		}
		return fmt.Errorf("value %s does not fit type %s", string(v.Raw), e.Kind)
	case NumberValue:
		if _, err := v.Float(); err != nil {
			return err
		}
	case nil:
		if e.Kind.TakesValue() {
			return fmt.Errorf("%s entry requires a value", e.Kind)
		}
	}
	return nil
}

// SetText writes an edited control value back into the entry.
func (e *Entry) SetText(text string) error {
	switch v := e.Value.(type) {
	case StringValue:
		e.Value = StringValue{S: text}
	case NumberValue:
		e.Value = NumberValue{Literal: text, Quoted: v.Quoted}
	case ListValue:
		e.Value = ListValue{S: text}
	case FlagValue:
		return fmt.Errorf("flag %q takes no value", e.Name)
	default:
		// a missing or mismatched value is replaced by a fresh one of the right kind
		switch e.Kind {
		case KindString:
			e.Value = StringValue{S: text}
		case KindNumber:
			e.Value = NumberValue{Literal: text}
		case KindList:
			e.Value = ListValue{S: text}
		default:
			return fmt.Errorf("entry %q has unknown type %q", e.Name, string(e.Kind))
		}
	}
	return nil
}

// wireEntry fixes the key order used on save.
type wireEntry struct {
	Name        string          `json:"name"`
	Description json.RawMessage `json:"description,omitempty"`
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value"`
	Enabled     bool            `json:"enabled"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{
		Name:        e.Name,
		Type:        string(e.Kind),
		Value:       json.RawMessage("null"),
		Enabled:     e.Enabled,
	}
	if e.Value != nil {
		w.Value = e.Value.raw()
	}
	switch {
	case e.Description != "":
		w.Description = quoteJSON(e.Description)
	case len(e.emptyDesc) > 0:
		w.Description = e.emptyDesc
	}
	return json.Marshal(w)
}

// decodeEntry builds an Entry from one element of "args". Missing or
// non-string name/type are parse errors; everything else is deferred to
// Validate.
func decodeEntry(idx int, data json.RawMessage) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Entry{}, &ParseError{Index: idx, Msg: "entry must be an object", Err: err}
	}
	var e Entry
	nameRaw, ok := fields["name"]
	if !ok || isNull(nameRaw) {
		return Entry{}, &ParseError{Index: idx, Msg: "missing required field \"name\""}
	}
	if err := json.Unmarshal(nameRaw, &e.Name); err != nil {
		return Entry{}, &ParseError{Index: idx, Msg: "field \"name\" must be a string", Err: err}
	}
	if strings.TrimSpace(e.Name) == "" {
		return Entry{}, &ParseError{Index: idx, Msg: "field \"name\" must not be empty"}
	}
	typeRaw, ok := fields["type"]
	if !ok || isNull(typeRaw) {
		return Entry{}, &ParseError{Index: idx, Name: e.Name, Msg: "missing required field \"type\""}
	}
	var kind string
	if err := json.Unmarshal(typeRaw, &kind); err != nil {
		return Entry{}, &ParseError{Index: idx, Name: e.Name, Msg: "field \"type\" must be a string", Err: err}
	}
	e.Kind = Kind(kind)
	if raw, ok := fields["description"]; ok {
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &e.Description); err != nil {
				return Entry{}, &ParseError{Index: idx, Name: e.Name, Msg: "field \"description\" must be a string", Err: err}
			}
		}
		if e.Description == "" {
			e.emptyDesc = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)
		}
	}
	if raw, ok := fields["enabled"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &e.Enabled); err != nil {
			return Entry{}, &ParseError{Index: idx, Name: e.Name, Msg: "field \"enabled\" must be a boolean", Err: err}
		}
	}
	e.Value = decodeValue(e.Kind, fields["value"])
	return e, nil
}

func decodeValue(kind Kind, raw json.RawMessage) Value {
	raw = bytes.TrimSpace(raw)
	switch kind {
	case KindFlag:
		if len(raw) == 0 || isNull(raw) {
			return FlagValue{}
		}
		return FlagValue{keep: append(json.RawMessage(nil), raw...)}
	case KindString:
		if s, ok := jsonString(raw); ok {
			return StringValue{S: s}
		}
	case KindList:
		if s, ok := jsonString(raw); ok {
			return ListValue{S: s}
		}
	case KindNumber:
		if s, ok := jsonString(raw); ok {
			return NumberValue{Literal: s, Quoted: true}
		}
		if len(raw) > 0 && isJSONNumber(string(raw)) {
			return NumberValue{Literal: string(raw)}
		}
	}
	return InvalidValue{Raw: append(json.RawMessage(nil), raw...)}
}

func jsonString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// isJSONNumber accepts exactly the JSON number grammar.
func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return false
	}
	n, ok := v.(json.Number)
	if !ok || n.String() != s {
		return false
	}
	return !dec.More()
}

func quoteJSON(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
