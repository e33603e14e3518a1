package form

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/DaanHessen/chromium-runner/internal/engine"
	"github.com/DaanHessen/chromium-runner/internal/launch"
	"github.com/DaanHessen/chromium-runner/internal/store"
)

type fakeLauncher struct {
	calls [][]string
	err   error
}

func (f *fakeLauncher) Launch(ctx context.Context, argv []string) (*launch.Process, error) {
	f.calls = append(f.calls, argv)
	if f.err != nil {
		return nil, f.err
	}
	return &launch.Process{PID: 4242, Argv: argv, StartedAt: time.Now()}, nil
}

type fakeRecorder struct {
	recs []store.LaunchRecord
	err  error
}

func (f *fakeRecorder) Record(ctx context.Context, rec store.LaunchRecord) error {
	f.recs = append(f.recs, rec)
	return f.err
}

const testConfig = `{
  "browser_path": "chrome",
  "args": [
    {"name": "disable-web-security", "type": "flag", "value": null, "enabled": true},
    {"name": "user-data-dir", "description": "Profile directory", "type": "string", "value": "${env:TEMP}\\profile", "enabled": true},
    {"name": "remote-debugging-port", "type": "number", "value": 9222, "enabled": false}
  ]
}`

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "browser_config.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestController(l launch.Launcher, env map[string]string, opts ...Option) *Controller {
	opts = append([]Option{
		WithLauncher(l),
		WithResolver(func() *engine.Resolver { return engine.NewResolver(engine.WithEnvMap(env)) }),
	}, opts...)
	return NewController(opts...)
}

func TestRunLaunchesAssembledArgv(t *testing.T) {
	fl := &fakeLauncher{}
	rec := &fakeRecorder{}
	c := newTestController(fl, map[string]string{"TEMP": `C:\Temp`}, WithRecorder(rec))
	if _, err := c.Load(writeConfig(t, testConfig)); err != nil {
		t.Fatalf("load: %v", err)
	}
	proc, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"chrome", "--disable-web-security", `--user-data-dir=C:\Temp\profile`}
	if diff := cmp.Diff([][]string{want}, fl.calls); diff != "" {
		t.Fatalf("launch argv (-want +got):\n%s", diff)
	}
	if proc.PID != 4242 {
		t.Fatalf("unexpected process %+v", proc)
	}
	if len(rec.recs) != 1 || rec.recs[0].PID != 4242 || !rec.recs[0].Succeeded() {
		t.Fatalf("launch not recorded: %+v", rec.recs)
	}
}

func TestRunResolvesFreshEachTime(t *testing.T) {
	fl := &fakeLauncher{}
	n := 0
	c := NewController(WithLauncher(fl), WithResolver(func() *engine.Resolver {
		n++
		at := time.Date(2024, 5, 1, 10, 0, n, 0, time.Local)
		return engine.NewResolver(engine.WithClock(func() time.Time { return at }))
	}))
	c.Open("", &engine.BrowserConfig{BrowserPath: "chrome", Args: []engine.Entry{
		{Name: "user-data-dir", Kind: engine.KindString, Value: engine.StringValue{S: "/tmp/${tool:timestamp}"}, Enabled: true},
	}})
	preview, err := c.Preview()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(preview, "2024-05-01_10-00-01") {
		t.Fatalf("preview %q", preview)
	}
	if got := fl.calls[0][1]; got != "--user-data-dir=/tmp/2024-05-01_10-00-02" {
		t.Fatalf("run reused a stale resolution: %q", got)
	}
	if v := c.Config().Args[0].Value.(engine.StringValue).S; v != "/tmp/${tool:timestamp}" {
		t.Fatalf("resolved value leaked into config: %q", v)
	}
}

func TestRunLaunchErrorKeepsConfig(t *testing.T) {
	fl := &fakeLauncher{err: &launch.LaunchError{Path: "chrome", Err: errors.New("executable file not found")}}
	rec := &fakeRecorder{err: errors.New("db down")}
	c := newTestController(fl, nil, WithRecorder(rec))
	if _, err := c.Load(writeConfig(t, testConfig)); err != nil {
		t.Fatal(err)
	}
	before := c.Config()
	_, err := c.Run(context.Background())
	var le *launch.LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if c.Config() != before || len(c.Config().Args) != 3 {
		t.Fatal("config discarded after launch failure")
	}
	if len(rec.recs) != 1 || rec.recs[0].Succeeded() {
		t.Fatalf("failed launch not recorded: %+v", rec.recs)
	}
}

func TestRunValidationErrorDoesNotLaunch(t *testing.T) {
	fl := &fakeLauncher{}
	c := newTestController(fl, nil)
	doc := `{"browser_path": "chrome", "args": [{"name": "remote-debugging-port", "type": "number", "value": "not-a-number", "enabled": true}]}`
	cfg, err := c.Load(writeConfig(t, doc))
	var verrs engine.ValidationErrors
	if !errors.As(err, &verrs) || cfg == nil {
		t.Fatalf("expected config plus ValidationErrors, got %v / %v", cfg, err)
	}
	if _, err := c.Preview(); !errors.As(err, &verrs) {
		t.Fatalf("preview should fail validation, got %v", err)
	}
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("run should fail validation")
	}
	if len(fl.calls) != 0 {
		t.Fatal("launcher invoked for invalid config")
	}
}

func TestLoadParseErrorKeepsPrevious(t *testing.T) {
	c := newTestController(&fakeLauncher{}, nil)
	good := writeConfig(t, testConfig)
	if _, err := c.Load(good); err != nil {
		t.Fatal(err)
	}
	_, err := c.Load(writeConfig(t, `{"browser_path": "chrome", "args": [{"type": "flag"}]}`))
	var pe *engine.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if c.Path() != good || len(c.Config().Args) != 3 {
		t.Fatal("previous config replaced by a failed load")
	}
}

func TestControlsAndEdits(t *testing.T) {
	c := newTestController(&fakeLauncher{}, map[string]string{"TEMP": "/tmp"})
	path := writeConfig(t, testConfig)
	if _, err := c.Load(path); err != nil {
		t.Fatal(err)
	}
	ctls := c.Controls()
	if len(ctls) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(ctls))
	}
	if !ctls[0].Checkbox || ctls[0].Editable || ctls[0].Label != "--disable-web-security" {
		t.Fatalf("flag control wrong: %+v", ctls[0])
	}
	if !ctls[1].Editable || ctls[1].Text != `${env:TEMP}\profile` || ctls[1].Description != "Profile directory" {
		t.Fatalf("string control wrong: %+v", ctls[1])
	}

	if err := c.Toggle(2); err != nil {
		t.Fatal(err)
	}
	if err := c.SetText(2, "abc"); err == nil {
		t.Fatal("non-numeric edit should report a validation error")
	}
	if c.Controls()[2].Issue == "" {
		t.Fatal("issue not surfaced on control")
	}
	if err := c.SetText(2, "9333"); err != nil {
		t.Fatalf("valid edit rejected: %v", err)
	}
	if err := c.SetText(0, "x"); err == nil {
		t.Fatal("flag accepted a value")
	}
	if !c.Dirty() {
		t.Fatal("edits should mark the controller dirty")
	}
	preview, err := c.Preview()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(preview, "--remote-debugging-port=9333") {
		t.Fatalf("edit not reflected in preview: %q", preview)
	}

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if c.Dirty() {
		t.Fatal("save should clear dirty")
	}
	reloaded, err := store.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if v := reloaded.Args[2]; !v.Enabled || v.Value.Text() != "9333" {
		t.Fatalf("edit not persisted: %+v", v)
	}
}

func TestPreviewFormatsTimestamp(t *testing.T) {
	c := NewController(WithLauncher(&fakeLauncher{}))
	c.Open("", &engine.BrowserConfig{BrowserPath: "chrome", Args: []engine.Entry{
		{Name: "user-data-dir", Kind: engine.KindString, Value: engine.StringValue{S: "${tool:timestamp}"}, Enabled: true},
	}})
	preview, err := c.Preview()
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`--user-data-dir=\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`).MatchString(preview) {
		t.Fatalf("preview %q", preview)
	}
}
