package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DaanHessen/chromium-runner/internal/engine"
	"github.com/DaanHessen/chromium-runner/internal/form"
	"github.com/DaanHessen/chromium-runner/internal/launch"
	"github.com/DaanHessen/chromium-runner/internal/store"
	"github.com/DaanHessen/chromium-runner/internal/text"
	"github.com/DaanHessen/chromium-runner/internal/util"
)

const (
	viewForm    = "form"
	viewPreview = "preview"
	viewHistory = "history"
	viewHelp    = "help"
)

// editBrowserPath marks the browser path as the field being edited.
const editBrowserPath = -1

type model struct {
	ctx      context.Context
	ctl      *form.Controller
	history  *store.HistoryRepo
	renderer text.Renderer
	version  string

	view    string
	cursor  int
	editing bool
	editIdx int
	input   textinput.Model

	keys  keyMap
	help  help.Model
	theme string
	st    styles

	status    string
	statusErr bool
	doc       string // rendered markdown for preview/history/help
	docScroll int

	// a second quit confirms discarding unsaved edits
	quitArmed bool

	width  int
	height int
}

func initialModel(ctx context.Context, ctl *form.Controller, history *store.HistoryRepo, cfg util.Config, loadErr error) model {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 4096
	m := model{
		ctx:     ctx,
		ctl:     ctl,
		history: history,
		version: cfg.Version,
		view:    viewForm,
		input:   in,
		keys:    defaultKeys(),
		help:    help.New(),
		theme:   cfg.Theme,
	}
	if _, ok := palettes[m.theme]; !ok {
		m.theme = defaultTheme
	}
	m.applyTheme()
	m.reportLoad(loadErr)
	return m
}

func (m *model) applyTheme() {
	p := paletteFor(m.theme)
	m.st = newStyles(p)
	plain := text.NewPlainRenderer()
	r, err := text.NewGlamourRenderer(p.Glamour, m.docWidth())
	if err != nil {
		log.Printf("glamour unavailable: %v", err)
		m.renderer = plain
		return
	}
	m.renderer = text.WithFallback(r, plain)
}

func (m *model) reportLoad(err error) {
	var verrs engine.ValidationErrors
	switch {
	case err == nil:
		m.setStatus(fmt.Sprintf("loaded %s", m.ctl.Path()), false)
	case errors.As(err, &verrs):
		m.setStatus(fmt.Sprintf("%d invalid entries; fix them before running", len(verrs)), true)
	default:
		m.setStatus(err.Error(), true)
	}
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = m.docWidth() - 4
		m.applyTheme()
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		if !key.Matches(msg, m.keys.Quit) {
			m.quitArmed = false
		}
		if m.view != viewForm {
			return m.updateDoc(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.input.Blur()
		m.setStatus("edit cancelled", false)
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		m.editing = false
		m.input.Blur()
		m.commitEdit(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) commitEdit(value string) {
	if m.editIdx == editBrowserPath {
		if err := m.ctl.SetBrowserPath(value); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.setStatus("browser path updated", false)
		return
	}
	if err := m.ctl.SetText(m.editIdx, value); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("value updated", false)
}

func (m *model) startEdit(idx int, value string) tea.Cmd {
	m.editing = true
	m.editIdx = idx
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.ctl.Controls()
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.ctl.Dirty() && !m.quitArmed {
			m.quitArmed = true
			m.setStatus("unsaved changes: press q again to quit, ctrl+s to save", true)
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(controls)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if err := m.ctl.Toggle(m.cursor); err != nil {
			m.setStatus(err.Error(), true)
		}
	case key.Matches(msg, m.keys.Edit):
		if m.cursor >= len(controls) {
			return m, nil
		}
		ctl := controls[m.cursor]
		if !ctl.Editable {
			if ctl.Checkbox {
				m.setStatus(ctl.Label+" is a flag; space toggles it", false)
			} else {
				m.setStatus(ctl.Label+" cannot be edited: "+ctl.Issue, true)
			}
			return m, nil
		}
		return m, m.startEdit(m.cursor, ctl.Text)
	case key.Matches(msg, m.keys.Browser):
		if cfg := m.ctl.Config(); cfg != nil {
			return m, m.startEdit(editBrowserPath, cfg.BrowserPath)
		}
	case key.Matches(msg, m.keys.Save):
		m.save()
	case key.Matches(msg, m.keys.Preview):
		m.showPreview()
	case key.Matches(msg, m.keys.Run):
		m.run()
	case key.Matches(msg, m.keys.History):
		m.showHistory()
	case key.Matches(msg, m.keys.Theme):
		m.theme = nextThemeName(m.theme, 1)
		m.applyTheme()
		m.setStatus("theme: "+m.theme, false)
	case key.Matches(msg, m.keys.Help):
		m.showDoc(viewHelp, text.HelpDoc(m.version))
	}
	return m, nil
}

func (m model) updateDoc(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Cancel):
		m.view = viewForm
	case key.Matches(msg, m.keys.Down):
		m.docScroll++
	case key.Matches(msg, m.keys.Up):
		if m.docScroll > 0 {
			m.docScroll--
		}
	case key.Matches(msg, m.keys.Run) && m.view == viewPreview:
		m.view = viewForm
		m.run()
	}
	return m, nil
}

func (m *model) save() {
	if err := m.ctl.Save(); err != nil {
		m.setStatus("save failed: "+err.Error(), true)
		return
	}
	m.setStatus("saved "+m.ctl.Path(), false)
}

func (m *model) showPreview() {
	cmd, err := m.ctl.Command()
	cfg := m.ctl.Config()
	if cfg == nil {
		m.setStatus("no config loaded", true)
		return
	}
	m.showDoc(viewPreview, text.PreviewDoc(cfg, cmd, err))
}

func (m *model) run() {
	proc, err := m.ctl.Run(m.ctx)
	if err != nil {
		var le *launch.LaunchError
		if errors.As(err, &le) {
			m.setStatus("launch failed: "+le.Error(), true)
		} else {
			m.setStatus("cannot run: "+err.Error(), true)
		}
		return
	}
	m.setStatus(fmt.Sprintf("started %s (pid %d)", proc.Argv[0], proc.PID), false)
}

func (m *model) showHistory() {
	if m.history == nil {
		m.setStatus(store.ErrHistoryDisabled.Error(), true)
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()
	recs, err := m.history.Recent(ctx, 30)
	if err != nil {
		m.setStatus("history: "+err.Error(), true)
		return
	}
	m.showDoc(viewHistory, text.HistoryDoc(recs))
}

func (m *model) showDoc(view, md string) {
	out, err := m.renderer.Render(md)
	if err != nil {
		out = md
	}
	m.view = view
	m.doc = out
	m.docScroll = 0
}

func (m model) View() string {
	var body string
	if m.view == viewForm {
		body = m.renderForm()
	} else {
		body = m.renderDoc()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTopBar(), body, m.renderBottomBar())
}

func (m model) renderTopBar() string {
	left := "CHROMIUM RUNNER"
	if cfg := m.ctl.Config(); cfg != nil {
		left += " • " + cfg.BrowserPath
	}
	right := m.ctl.Path()
	if m.ctl.Dirty() {
		right += " [modified]"
	}
	gap := m.docWidth() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.st.title.Render(left + strings.Repeat(" ", gap) + right)
}

func (m model) renderForm() string {
	controls := m.ctl.Controls()
	if len(controls) == 0 {
		return m.st.box.Width(m.docWidth() - 2).Render(m.st.muted.Render("(no arguments in config)"))
	}
	var b strings.Builder
	for i, c := range controls {
		cursor := "  "
		if i == m.cursor {
			cursor = m.st.cursor.Render("> ")
		}
		box := m.st.off.Render("[ ]")
		if c.Enabled {
			box = m.st.on.Render("[x]")
		}
		label := m.st.label.Render(c.Label)
		if i == m.cursor {
			label = m.st.cursor.Render(c.Label)
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, label)
		switch {
		case m.editing && m.editIdx == i:
			line += " " + m.input.View()
		case !c.Checkbox:
			line += m.st.muted.Render("=") + m.st.label.Render(c.Text)
		}
		line += " " + m.st.muted.Render("("+string(c.Kind)+")")
		b.WriteString(line + "\n")
		if c.Issue != "" {
			b.WriteString("      " + m.st.errText.Render("! "+c.Issue) + "\n")
		} else if c.Description != "" && i == m.cursor {
			b.WriteString("      " + m.st.muted.Render(c.Description) + "\n")
		}
	}
	if m.editing && m.editIdx == editBrowserPath {
		b.WriteString("\nbrowser path " + m.input.View() + "\n")
	}
	return m.st.box.Width(m.docWidth() - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m model) renderDoc() string {
	lines := strings.Split(m.doc, "\n")
	avail := m.height - 4
	if avail > 5 && len(lines) > avail {
		start := m.docScroll
		if start > len(lines)-avail {
			start = len(lines) - avail
		}
		lines = lines[start : start+avail]
	}
	return strings.Join(lines, "\n")
}

func (m model) renderBottomBar() string {
	style := m.st.status
	if m.statusErr {
		style = m.st.errText
	}
	var help string
	if m.editing {
		help = m.help.View(editKeys{m.keys})
	} else {
		help = m.help.View(m.keys)
	}
	return style.Render(m.status) + "\n" + help
}

func (m model) docWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

// editKeys is the reduced help shown while a text field has focus.
type editKeys struct{ k keyMap }

func (e editKeys) ShortHelp() []key.Binding {
	commit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "commit"))
	return []key.Binding{commit, e.k.Cancel}
}

func (e editKeys) FullHelp() [][]key.Binding { return [][]key.Binding{e.ShortHelp()} }
