package tui

import (
	"context"
	"fmt"

	"roomboard/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type roomsLoadedMsg struct {
	err error
}

type mutationDoneMsg struct {
	kind model.MutationKind
	// focus is the card to keep under the cursor after the refetch.
	focus *model.CardID
	err   error
}

func (m pageModel) loadCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return roomsLoadedMsg{err: ctrl.Load(ctx)}
	}
}

// mutationCmd runs fn off the UI goroutine. Only one mutation is in flight at a time;
// keys that would start another are dropped until it completes.
func (m *pageModel) mutationCmd(kind model.MutationKind, focus *model.CardID, fn func(context.Context) error) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.minibufferText = ""
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{kind: kind, focus: focus, err: fn(ctx)}
	}
}

func (m pageModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m pageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case roomsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.minibufferText = msg.err.Error()
		} else {
			m.minibufferText = ""
		}
		m.syncFromPage()
		return m, nil

	case mutationDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.logger.Debug("mutation failed", zap.String("kind", string(msg.kind)), zap.Error(msg.err))
			m.minibufferText = msg.err.Error()
		}
		m.syncFromPage()
		if msg.focus != nil {
			selectCardByID(&m.cardsList, *msg.focus)
		}
		return m, nil

	case externalEditorDoneMsg:
		cmd := m.applyExternalEditorResult(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m pageModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.busy:
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.busy = true
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.SwitchPane):
		if m.pane == paneSidebar && m.page.Board != nil {
			m.pane = paneBoard
		} else {
			m.pane = paneSidebar
		}
		return m, nil
	}

	if m.page.Sidebar == nil {
		return m, nil
	}
	if m.pane == paneSidebar || m.page.Board == nil {
		return m.updateSidebarKey(msg)
	}
	return m.updateBoardKey(msg)
}

func (m pageModel) updateSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Open) {
		it, ok := m.roomsList.SelectedItem().(roomItem)
		if !ok {
			return m, nil
		}
		m.ctrl.Select(it.index)
		m.cardsList.ResetSelected()
		m.syncFromPage()
		if m.page.Board != nil {
			m.pane = paneBoard
		}
		m.saveState()
		return m, nil
	}
	var cmd tea.Cmd
	m.roomsList, cmd = m.roomsList.Update(msg)
	return m, cmd
}

func (m pageModel) updateBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	actions := m.page.Board.Actions
	card, hasCard := m.selectedCard()

	switch {
	case key.Matches(msg, m.keys.Add):
		cmd := m.mutationCmd(model.MutationAddCard, nil, actions.AddCard)
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		if !hasCard {
			return m, nil
		}
		m.modal = modalEditText
		m.editCardID = card.ID
		m.input.SetValue(card.Text)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.EditInEditor):
		if !hasCard {
			return m, nil
		}
		cmd, err := m.openExternalEditor(card)
		if err != nil {
			m.minibufferText = "Editor failed: " + err.Error()
			return m, nil
		}
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		if !hasCard {
			return m, nil
		}
		if err := copyToClipboard(card.Text); err != nil {
			m.minibufferText = "Copy failed: " + err.Error()
		} else {
			m.minibufferText = fmt.Sprintf("Copied card #%d", card.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if !hasCard {
			return m, nil
		}
		m.modal = modalConfirmDelete
		m.editCardID = card.ID
		m.confirmFocus = confirmFocusCancel
		return m, nil

	case key.Matches(msg, m.keys.NudgeLeft), key.Matches(msg, m.keys.NudgeRight),
		key.Matches(msg, m.keys.NudgeUp), key.Matches(msg, m.keys.NudgeDown):
		if !hasCard {
			return m, nil
		}
		var dx, dy float64
		switch {
		case key.Matches(msg, m.keys.NudgeLeft):
			dx = -nudgeStep
		case key.Matches(msg, m.keys.NudgeRight):
			dx = nudgeStep
		case key.Matches(msg, m.keys.NudgeUp):
			dy = -nudgeStep
		default:
			dy = nudgeStep
		}
		id, pos := card.ID, card.Position.Add(dx, dy)
		cmd := m.mutationCmd(model.MutationUpdatePosition, &id, func(ctx context.Context) error {
			return actions.UpdatePosition(ctx, id, pos)
		})
		return m, cmd

	case key.Matches(msg, m.keys.OrderUp), key.Matches(msg, m.keys.OrderDown):
		if !hasCard {
			return m, nil
		}
		delta := -1
		if key.Matches(msg, m.keys.OrderDown) {
			delta = 1
		}
		order, changed := m.page.Board.Room.MoveInOrder(card.ID, delta)
		if !changed {
			return m, nil
		}
		id := card.ID
		cmd := m.mutationCmd(model.MutationUpdateOrder, &id, func(ctx context.Context) error {
			return actions.UpdateOrder(ctx, order)
		})
		return m, cmd
	}

	var cmd tea.Cmd
	m.cardsList, cmd = m.cardsList.Update(msg)
	return m, cmd
}

func (m pageModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalEditText:
		switch msg.String() {
		case "esc", "ctrl+g":
			m.closeModal()
			return m, nil
		case "enter":
			id, text := m.editCardID, m.input.Value()
			m.closeModal()
			if m.page.Board == nil {
				return m, nil
			}
			actions := m.page.Board.Actions
			cmd := m.mutationCmd(model.MutationUpdateText, &id, func(ctx context.Context) error {
				return actions.UpdateCardText(ctx, id, text)
			})
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modalConfirmDelete:
		confirm := false
		switch msg.String() {
		case "esc", "ctrl+g", "n":
			m.closeModal()
			return m, nil
		case "tab", "shift+tab", "left", "right", "h", "l":
			if m.confirmFocus == confirmFocusConfirm {
				m.confirmFocus = confirmFocusCancel
			} else {
				m.confirmFocus = confirmFocusConfirm
			}
			return m, nil
		case "y":
			confirm = true
		case "enter":
			confirm = m.confirmFocus == confirmFocusConfirm
		default:
			return m, nil
		}
		id := m.editCardID
		m.closeModal()
		if !confirm || m.page.Board == nil {
			return m, nil
		}
		actions := m.page.Board.Actions
		cmd := m.mutationCmd(model.MutationDeleteCard, nil, func(ctx context.Context) error {
			return actions.DeleteCard(ctx, id)
		})
		return m, cmd
	}
	return m, nil
}

func (m *pageModel) closeModal() {
	m.modal = modalNone
	m.input.Blur()
	m.input.SetValue("")
}
