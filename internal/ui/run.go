package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/chromium-runner/internal/form"
	"github.com/DaanHessen/chromium-runner/internal/store"
	"github.com/DaanHessen/chromium-runner/internal/util"
)

// Run boots the TUI program and blocks until it exits. history may be nil;
// loadErr is shown in the status line.
func Run(ctx context.Context, ctl *form.Controller, history *store.HistoryRepo, cfg util.Config, loadErr error) error {
	m := initialModel(ctx, ctl, history, cfg, loadErr)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
