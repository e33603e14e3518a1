// Package form binds a BrowserConfig to editable controls and drives
// load, save, preview and run for the UI.
package form

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/DaanHessen/chromium-runner/internal/engine"
	"github.com/DaanHessen/chromium-runner/internal/launch"
	"github.com/DaanHessen/chromium-runner/internal/store"
)

// Recorder persists launch attempts. *store.HistoryRepo satisfies it.
type Recorder interface {
	Record(ctx context.Context, rec store.LaunchRecord) error
}

// Control is the UI-facing view of one entry.
type Control struct {
	Index       int
	Label       string
	Description string
	Kind        engine.Kind
	Enabled     bool
	Text        string
	Checkbox    bool // flags have no text field
	Editable    bool
	Issue       string
}

// Controller owns the in-memory config for one session. It is not safe for
// concurrent use; the UI calls it from its event loop only.
type Controller struct {
	path     string
	cfg      *engine.BrowserConfig
	issues   engine.ValidationErrors
	dirty    bool
	resolver func() *engine.Resolver
	launcher launch.Launcher
	history  Recorder
}

type Option func(*Controller)

// WithResolver supplies a fresh resolver for every preview and run.
func WithResolver(fn func() *engine.Resolver) Option {
	return func(c *Controller) { c.resolver = fn }
}

func WithLauncher(l launch.Launcher) Option {
	return func(c *Controller) { c.launcher = l }
}

// WithRecorder enables launch history.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.history = r }
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		resolver: func() *engine.Resolver { return engine.NewResolver() },
		launcher: launch.NewExecLauncher(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads path. A parse failure leaves the current config untouched. When
// the document loads but some entries are invalid, the config is installed
// and the returned error is the engine.ValidationErrors.
func (c *Controller) Load(path string) (*engine.BrowserConfig, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	c.path = path
	c.cfg = cfg
	c.dirty = false
	c.issues = cfg.Validate()
	if len(c.issues) > 0 {
		return cfg, c.issues
	}
	return cfg, nil
}

// Open installs an already parsed config, e.g. a freshly created one.
func (c *Controller) Open(path string, cfg *engine.BrowserConfig) {
	c.path = path
	c.cfg = cfg
	c.dirty = true
	c.issues = cfg.Validate()
}

func (c *Controller) Save() error { return c.SaveAs(c.path) }

// SaveAs writes the config to path and makes it the current path.
func (c *Controller) SaveAs(path string) error {
	if c.cfg == nil {
		return errors.New("no config loaded")
	}
	if path == "" {
		return errors.New("no config path set")
	}
	if err := store.SaveConfig(path, c.cfg); err != nil {
		return err
	}
	c.path = path
	c.dirty = false
	return nil
}

// Command resolves tokens fresh and assembles the current config.
func (c *Controller) Command() (engine.Command, error) {
	if c.cfg == nil {
		return engine.Command{}, errors.New("no config loaded")
	}
	return engine.Assemble(c.cfg, c.resolver())
}

// Preview renders the command line for display.
func (c *Controller) Preview() (string, error) {
	cmd, err := c.Command()
	if err != nil {
		return "", err
	}
	return cmd.String(), nil
}

// Run assembles with freshly resolved tokens and starts the browser. The
// config is kept whatever happens so the user can fix it and retry.
func (c *Controller) Run(ctx context.Context) (*launch.Process, error) {
	cmd, err := c.Command()
	if err != nil {
		return nil, err
	}
	argv := cmd.Argv()
	proc, err := c.launcher.Launch(ctx, argv)
	c.record(ctx, cmd, proc, err)
	if err != nil {
		return nil, err
	}
	log.Printf("launched %s (pid %d)", cmd.Path, proc.PID)
	return proc, nil
}

func (c *Controller) record(ctx context.Context, cmd engine.Command, proc *launch.Process, launchErr error) {
	if c.history == nil {
		return
	}
	rec := store.LaunchRecord{ConfigPath: c.path, BrowserPath: cmd.Path, Args: cmd.Args}
	if proc != nil {
		rec.PID = proc.PID
		rec.LaunchedAt = proc.StartedAt
	}
	if launchErr != nil {
		rec.Error = launchErr.Error()
	}
	if err := c.history.Record(ctx, rec); err != nil {
		log.Printf("record launch: %v", err)
	}
}

// Controls maps every entry to a control, in config order.
func (c *Controller) Controls() []Control {
	if c.cfg == nil {
		return nil
	}
	out := make([]Control, len(c.cfg.Args))
	for i, e := range c.cfg.Args {
		ctl := Control{
			Index:       i,
			Label:       e.Flag(),
			Description: e.Description,
			Kind:        e.Kind,
			Enabled:     e.Enabled,
			Checkbox:    e.Kind == engine.KindFlag,
			Editable:    e.Kind.Valid() && e.Kind.TakesValue(),
		}
		if e.Value != nil {
			ctl.Text = e.Value.Text()
		}
		if issue := c.issues.ForIndex(i); issue != nil {
			ctl.Issue = issue.Reason
		}
		out[i] = ctl
	}
	return out
}

// Toggle flips the enabled state of entry i.
func (c *Controller) Toggle(i int) error {
	e, err := c.entry(i)
	if err != nil {
		return err
	}
	e.Enabled = !e.Enabled
	c.dirty = true
	return nil
}

// SetText collects an edited value back into entry i. The edit is kept even
// when it does not validate; the returned error is the validation failure.
func (c *Controller) SetText(i int, text string) error {
	e, err := c.entry(i)
	if err != nil {
		return err
	}
	if err := e.SetText(text); err != nil {
		return err
	}
	c.dirty = true
	c.issues = c.cfg.Validate()
	if issue := c.issues.ForIndex(i); issue != nil {
		return issue
	}
	return nil
}

// SetBrowserPath replaces the executable path.
func (c *Controller) SetBrowserPath(path string) error {
	if c.cfg == nil {
		return errors.New("no config loaded")
	}
	c.cfg.BrowserPath = path
	c.dirty = true
	return nil
}

func (c *Controller) entry(i int) (*engine.Entry, error) {
	if c.cfg == nil {
		return nil, errors.New("no config loaded")
	}
	if i < 0 || i >= len(c.cfg.Args) {
		return nil, fmt.Errorf("entry %d out of range", i)
	}
	return &c.cfg.Args[i], nil
}

func (c *Controller) Config() *engine.BrowserConfig { return c.cfg }
func (c *Controller) Path() string { return c.path }
func (c *Controller) Dirty() bool { return c.dirty }
func (c *Controller) Issues() engine.ValidationErrors { return c.issues }
