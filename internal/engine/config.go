package engine

import (
	"bytes"
	"encoding/json"
)

// BrowserConfig is the whole document: the executable and its ordered
// argument entries. Order is command-line order.
type BrowserConfig struct {
	BrowserPath string
	Args        []Entry
}

type wireConfig struct {
	BrowserPath string  `json:"browser_path"`
	Args        []Entry `json:"args"`
}

// ParseConfig decodes a config document. A *ParseError means nothing usable
// was loaded; per-entry problems are left for Validate.
func ParseConfig(data []byte) (*BrowserConfig, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Index: -1, Msg: "malformed JSON", Err: err}
	}
	if top == nil {
		return nil, &ParseError{Index: -1, Msg: "document must be a JSON object"}
	}
	cfg := &BrowserConfig{}
	rawPath, ok := top["browser_path"]
	if !ok || isNull(rawPath) {
		return nil, &ParseError{Index: -1, Msg: "missing required field \"browser_path\""}
	}
	if err := json.Unmarshal(rawPath, &cfg.BrowserPath); err != nil {
		return nil, &ParseError{Index: -1, Msg: "field \"browser_path\" must be a string", Err: err}
	}
	var rawArgs []json.RawMessage
	if raw, ok := top["args"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &rawArgs); err != nil {
			return nil, &ParseError{Index: -1, Msg: "field \"args\" must be an array", Err: err}
		}
	}
	cfg.Args = make([]Entry, 0, len(rawArgs))
	for i, raw := range rawArgs {
		e, err := decodeEntry(i, raw)
		if err != nil {
			return nil, err
		}
		cfg.Args = append(cfg.Args, e)
	}
	return cfg, nil
}

// MarshalConfig encodes cfg the way it is written to disk.
func MarshalConfig(cfg *BrowserConfig) ([]byte, error) {
	w := wireConfig{BrowserPath: cfg.BrowserPath, Args: cfg.Args}
	if w.Args == nil {
		w.Args = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate reports every entry that cannot be assembled. It returns nil when
// all entries are usable.
func (c *BrowserConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	for i, e := range c.Args {
		if err := e.Validate(); err != nil {
			errs = append(errs, &ValidationError{Index: i, Name: e.Name, Reason: err.Error()})
		}
	}
	return errs
}

// Clone returns a deep enough copy for independent editing.
func (c *BrowserConfig) Clone() *BrowserConfig {
	out := &BrowserConfig{BrowserPath: c.BrowserPath, Args: make([]Entry, len(c.Args))}
	copy(out.Args, c.Args)
	return out
}
