package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleConfig = `{
  "browser_path": "C:\\Program Files\\Chromium\\chrome.exe",
  "args": [
    {"name": "enable-logging", "description": "Log to stderr", "type": "flag", "value": null, "enabled": true},
    {"name": "user-data-dir", "type": "string", "value": "${env:TEMP}\\profile", "enabled": false},
    {"name": "remote-debugging-port", "type": "number", "value": 9222, "enabled": true},
    {"name": "window-scale", "type": "number", "value": "1.5", "enabled": false},
    {"name": "enable-features", "type": "list", "value": "WebGPU,Feature2", "enabled": true}
  ]
}`

func TestParseConfigTypedValues(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.Args) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(cfg.Args))
	}
	if _, ok := cfg.Args[0].Value.(FlagValue); !ok {
		t.Fatalf("flag entry got %T", cfg.Args[0].Value)
	}
	if v, ok := cfg.Args[1].Value.(StringValue); !ok || v.S != `${env:TEMP}\profile` {
		t.Fatalf("string entry got %#v", cfg.Args[1].Value)
	}
	if v, ok := cfg.Args[2].Value.(NumberValue); !ok || v.Literal != "9222" || v.Quoted {
		t.Fatalf("number entry got %#v", cfg.Args[2].Value)
	}
	if v, ok := cfg.Args[3].Value.(NumberValue); !ok || v.Literal != "1.5" || !v.Quoted {
		t.Fatalf("quoted number entry got %#v", cfg.Args[3].Value)
	}
	if v, ok := cfg.Args[4].Value.(ListValue); !ok || len(v.Elements()) != 2 {
		t.Fatalf("list entry got %#v", cfg.Args[4].Value)
	}
	if errs := cfg.Validate(); errs != nil {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
}

func TestRoundTripIsStructurallyEqual(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := MarshalConfig(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var want, got any
	if err := json.Unmarshal([]byte(sampleConfig), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	again, err := ParseConfig(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	out2, _ := MarshalConfig(again)
	if string(out) != string(out2) {
		t.Fatalf("second save differs:\n%s\n---\n%s", out, out2)
	}
}

func TestParseConfigRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		index int
		msg   string
	}{
		{"malformed", `{"browser_path": "chrome",`, -1, "malformed JSON"},
		{"no browser path", `{"args": []}`, -1, "browser_path"},
		{"missing name", `{"browser_path": "chrome", "args": [{"type": "flag"}]}`, 0, "\"name\""},
		{"missing type", `{"browser_path": "chrome", "args": [{"name": "a", "type": "flag"}, {"name": "b"}]}`, 1, "\"type\""},
		{"bad enabled", `{"browser_path": "chrome", "args": [{"name": "a", "type": "flag", "enabled": "yes"}]}`, 0, "enabled"},
	}
	for _, tc := range cases {
		_, err := ParseConfig([]byte(tc.doc))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: expected ParseError, got %v", tc.name, err)
		}
		if pe.Index != tc.index {
			t.Fatalf("%s: index %d, want %d", tc.name, pe.Index, tc.index)
		}
		if !strings.Contains(pe.Error(), tc.msg) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, pe.Error(), tc.msg)
		}
	}
}

func TestMissingTypeNamesEntry(t *testing.T) {
	_, err := ParseConfig([]byte(`{"browser_path": "chrome", "args": [{"name": "incognito"}]}`))
	if err == nil || !strings.Contains(err.Error(), `"incognito"`) {
		t.Fatalf("expected error naming the entry, got %v", err)
	}
}

func TestValidateIsPerEntry(t *testing.T) {
	doc := `{"browser_path": "chrome", "args": [
		{"name": "ok", "type": "flag", "enabled": true},
		{"name": "weird", "type": "toggle", "value": 1, "enabled": true},
		{"name": "port", "type": "number", "value": "not-a-number", "enabled": true},
		{"name": "dir", "type": "string", "value": null, "enabled": false},
		{"name": "feat", "type": "list", "value": ["a"], "enabled": true}
	]}`
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("structurally valid doc should load: %v", err)
	}
	errs := cfg.Validate()
	var idx []int
	for _, e := range errs {
		idx = append(idx, e.Index)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, idx); diff != "" {
		t.Fatalf("validation indices (-want +got):\n%s", diff)
	}
	if errs.ForIndex(0) != nil {
		t.Fatal("valid flag reported as invalid")
	}
	if !strings.Contains(errs.ForIndex(1).Reason, "unknown type") {
		t.Fatalf("unexpected reason %q", errs.ForIndex(1).Reason)
	}
}

func TestUnknownKindRoundTrips(t *testing.T) {
	doc := `{"browser_path":"chrome","args":[{"name":"x","type":"toggle","value":{"a":1},"enabled":true}]}`
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	out, err := MarshalConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var want, got any
	_ = json.Unmarshal([]byte(doc), &want)
	_ = json.Unmarshal(out, &got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unknown kind lost on save (-want +got):\n%s", diff)
	}
}

func TestSetTextByKind(t *testing.T) {
	e := Entry{Name: "port", Kind: KindNumber, Value: NumberValue{Literal: "1"}}
	if err := e.SetText("abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if e.Validate() == nil {
		t.Fatal("non-numeric number should fail validation")
	}
	if err := e.SetText("9222"); err != nil || e.Validate() != nil {
		t.Fatalf("numeric edit rejected: %v / %v", err, e.Validate())
	}
	f := Entry{Name: "incognito", Kind: KindFlag, Value: FlagValue{}}
	if err := f.SetText("x"); err == nil {
		t.Fatal("flag should reject a value")
	}
	broken := Entry{Name: "dir", Kind: KindString, Value: InvalidValue{}}
	if err := broken.SetText("/tmp"); err != nil || broken.Validate() != nil {
		t.Fatalf("edit should repair mismatched value: %v", err)
	}
}

func TestNumberLiterals(t *testing.T) {
	good := []string{"0", "9222", "-1", "1.5", "2e3", " 7 "}
	bad := []string{"", "abc", "0x10", "NaN", "Inf", "01", "1.", "1 2", "+1"}
	for _, s := range good {
		if _, err := (NumberValue{Literal: s}).Float(); err != nil {
			t.Fatalf("%q rejected: %v", s, err)
		}
	}
	for _, s := range bad {
		if _, err := (NumberValue{Literal: s}).Float(); err == nil {
			t.Fatalf("%q accepted", s)
		}
	}
}

func TestEmptyDescriptionRoundTrips(t *testing.T) {
	for _, doc := range []string{
		`{"browser_path":"chrome","args":[{"name":"a","description":"","type":"flag","value":null,"enabled":true}]}`,
		`{"browser_path":"chrome","args":[{"name":"a","description":null,"type":"flag","value":null,"enabled":true}]}`,
		`{"browser_path":"chrome","args":[{"name":"a","type":"flag","value":null,"enabled":true}]}`,
	} {
		cfg, err := ParseConfig([]byte(doc))
		if err != nil {
			t.Fatalf("parse %s: %v", doc, err)
		}
		out, err := MarshalConfig(cfg)
		if err != nil {
			t.Fatal(err)
		}
		var want, got any
		if err := json.Unmarshal([]byte(doc), &want); err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal(out, &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("description not preserved (-want +got):\n%s", diff)
		}
	}
}
