package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Cursor  lipgloss.Color
	On      lipgloss.Color
	Off     lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Border  lipgloss.Color
	Glamour string // glamour standard style matching the palette
}

var palettes = map[string]palette{
	"catppuccin": {
		Text:    lipgloss.Color("#cdd6f4"),
		Muted:   lipgloss.Color("#a6adc8"),
		Accent:  lipgloss.Color("#cba6f7"),
		Cursor:  lipgloss.Color("#f5c2e7"),
		On:      lipgloss.Color("#94e2d5"),
		Off:     lipgloss.Color("#585b70"),
		Error:   lipgloss.Color("#f38ba8"),
		Warning: lipgloss.Color("#f9e2af"),
		Border:  lipgloss.Color("#585b70"),
		Glamour: "dark",
	},
	"dracula": {
		Text:    lipgloss.Color("#f8f8f2"),
		Muted:   lipgloss.Color("#6272a4"),
		Accent:  lipgloss.Color("#bd93f9"),
		Cursor:  lipgloss.Color("#ff79c6"),
		On:      lipgloss.Color("#50fa7b"),
		Off:     lipgloss.Color("#44475a"),
		Error:   lipgloss.Color("#ff5555"),
		Warning: lipgloss.Color("#f1fa8c"),
		Border:  lipgloss.Color("#44475a"),
		Glamour: "dracula",
	},
	"gruvbox": {
		Text:    lipgloss.Color("#ebdbb2"),
		Muted:   lipgloss.Color("#a89984"),
		Accent:  lipgloss.Color("#fabd2f"),
		Cursor:  lipgloss.Color("#d3869b"),
		On:      lipgloss.Color("#b8bb26"),
		Off:     lipgloss.Color("#665c54"),
		Error:   lipgloss.Color("#fb4934"),
		Warning: lipgloss.Color("#fe8019"),
		Border:  lipgloss.Color("#665c54"),
		Glamour: "dark",
	},
	"solarized_light": {
		Text:    lipgloss.Color("#073642"),
		Muted:   lipgloss.Color("#586e75"),
		Accent:  lipgloss.Color("#268bd2"),
		Cursor:  lipgloss.Color("#d33682"),
		On:      lipgloss.Color("#859900"),
		Off:     lipgloss.Color("#93a1a1"),
		Error:   lipgloss.Color("#dc322f"),
		Warning: lipgloss.Color("#cb4b16"),
		Border:  lipgloss.Color("#93a1a1"),
		Glamour: "light",
	},
}

const defaultTheme = "catppuccin"

func paletteFor(name string) palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[defaultTheme]
}

func themeNames() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func nextThemeName(current string, step int) string {
	names := themeNames()
	if len(names) == 0 {
		return current
	}
	idx := 0
	for i, name := range names {
		if name == current {
			idx = i
			break
		}
	}
	idx = (idx + step) % len(names)
	if idx < 0 {
		idx += len(names)
	}
	return names[idx]
}

// styles are derived from a palette whenever the theme changes.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	cursor  lipgloss.Style
	on      lipgloss.Style
	off     lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
	warn    lipgloss.Style
	box     lipgloss.Style
	status  lipgloss.Style
}

func newStyles(p palette) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		label:   lipgloss.NewStyle().Foreground(p.Text),
		cursor:  lipgloss.NewStyle().Bold(true).Foreground(p.Cursor),
		on:      lipgloss.NewStyle().Foreground(p.On),
		off:     lipgloss.NewStyle().Foreground(p.Off),
		muted:   lipgloss.NewStyle().Foreground(p.Muted),
		errText: lipgloss.NewStyle().Foreground(p.Error),
		warn:    lipgloss.NewStyle().Foreground(p.Warning),
		box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1),
		status:  lipgloss.NewStyle().Foreground(p.Muted),
	}
}
