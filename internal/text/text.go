package text

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/DaanHessen/chromium-runner/internal/engine"
	"github.com/DaanHessen/chromium-runner/internal/store"
)

// Renderer turns markdown into terminal output.
type Renderer interface {
	Render(md string) (string, error)
}

// plainRenderer passes markdown through; used when glamour is unavailable.
type plainRenderer struct{}

func NewPlainRenderer() Renderer { return plainRenderer{} }

func (plainRenderer) Render(md string) (string, error) { return md, nil }

type glamourRenderer struct{ r *glamour.TermRenderer }

// NewGlamourRenderer renders with the given glamour style ("auto" detects
// the terminal background).
func NewGlamourRenderer(style string, width int) (Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &glamourRenderer{r: r}, nil
}

func (g *glamourRenderer) Render(md string) (string, error) { return g.r.Render(md) }

// WithFallback returns a renderer that prefers primary and falls back to backup on error.
func WithFallback(primary, fallback Renderer) Renderer {
	return &fallbackRenderer{p: primary, f: fallback}
}

type fallbackRenderer struct{ p, f Renderer }

func (r *fallbackRenderer) Render(md string) (string, error) {
	if r.p == nil {
		return r.f.Render(md)
	}
	if s, err := r.p.Render(md); err == nil {
		return s, nil
	}
	return r.f.Render(md)
}

// PreviewDoc describes an assembled command, or why assembly failed.
func PreviewDoc(cfg *engine.BrowserConfig, cmd engine.Command, err error) string {
	var b strings.Builder
	b.WriteString("# Command preview\n\n")
	if err != nil {
		b.WriteString("The command cannot be assembled:\n\n")
		var verrs engine.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(&b, "- %s\n", v.Error())
			}
		} else {
			fmt.Fprintf(&b, "- %s\n", err.Error())
		}
		return b.String()
	}
	b.WriteString("```sh\n")
	b.WriteString(cmd.String())
	b.WriteString("\n```\n\n")
	enabled := 0
	for _, e := range cfg.Args {
		if e.Enabled {
			enabled++
		}
	}
	fmt.Fprintf(&b, "%d of %d arguments enabled.\n", enabled, len(cfg.Args))
	if len(cmd.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range cmd.Warnings {
			fmt.Fprintf(&b, "- `%s`\n", w.String())
		}
	}
	return b.String()
}

// ValidationDoc lists per-entry problems found at load time.
func ValidationDoc(path string, errs engine.ValidationErrors) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", path)
	if len(errs) == 0 {
		b.WriteString("All entries are valid.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d invalid entries:\n\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(&b, "- `%s` (#%d): %s\n", e.Name, e.Index+1, e.Reason)
	}
	return b.String()
}

// HistoryDoc renders recent launches as a table.
func HistoryDoc(recs []store.LaunchRecord) string {
	var b strings.Builder
	b.WriteString("# Launch history\n\n")
	if len(recs) == 0 {
		b.WriteString("No launches recorded yet.\n")
		return b.String()
	}
	b.WriteString("| When | Browser | Args | Result |\n|---|---|---|---|\n")
	for _, r := range recs {
		result := fmt.Sprintf("pid %d", r.PID)
		if !r.Succeeded() {
			result = "failed: " + r.Error
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			r.LaunchedAt.Local().Format(time.DateTime),
			cell(r.BrowserPath), cell(strings.Join(r.Args, " ")), cell(result))
	}
	return b.String()
}

// HelpDoc is the about/controls page.
func HelpDoc(version string) string {
	return fmt.Sprintf(`# chromium-runner %s

Edit the arguments passed to a Chromium-based browser, preview the command
line and launch it.

## Controls

| Key | Action |
|---|---|
| ↑/↓ or k/j | move between arguments |
| space | enable or disable the argument |
| enter | edit the value (enter again to commit, esc to cancel) |
| b | edit the browser path |
| p | preview the command |
| r | run the browser |
| ctrl+s | save the config |
| h | launch history |
| t | cycle theme |
| ? | this help |
| q | quit |

## Tokens

- `+"`${env:NAME}`"+` is replaced by the environment variable NAME (empty when unset)
- `+"`${tool:timestamp}`"+` is replaced by the current time as YYYY-MM-DD_HH-MM-SS
- `+"`\\${...}`"+` keeps the token literally
`, version)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
