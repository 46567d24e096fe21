package tui

import (
	"context"

	"roomboard/internal/board"
	"roomboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	Controller *board.Controller
	// Store, when set, persists the selected room between runs.
	Store  *store.Store
	Server string
	// Theme is light|dark|auto.
	Theme  string
	Logger *zap.Logger
}

func Run(ctx context.Context, opts Options) error {
	applyThemePreference(opts.Theme)
	applyColorProfilePreference()

	m := newPageModel(ctx, opts.Controller, opts.Store, opts.Server, opts.Logger)
	m.restoreState()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// restoreState reopens the last room for the same server, unless a room was already
// chosen (for example by --room).
func (m *pageModel) restoreState() {
	if m.store == nil {
		return
	}
	if _, ok := m.ctrl.RoomID(); ok {
		return
	}
	st, err := m.store.LoadTUIState()
	if err != nil {
		m.logger.Debug("load tui state", zap.Error(err))
		return
	}
	if st.Server != m.server || st.RoomID == nil {
		return
	}
	m.ctrl.Select(*st.RoomID)
	m.pane = paneFromString(st.Pane)
	m.page = m.ctrl.Page()
}
