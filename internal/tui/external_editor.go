package tui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"roomboard/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type externalEditorDoneMsg struct {
	err error
}

func externalEditorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// openExternalEditor suspends the UI and edits the card's text in $VISUAL/$EDITOR.
func (m *pageModel) openExternalEditor(card model.Card) (tea.Cmd, error) {
	args := splitShellWords(externalEditorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}

	f, err := os.CreateTemp("", "roomboard-card-*.md")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(card.Text); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	_ = f.Close()

	m.editorPath = path
	m.editorBefore = card.Text
	m.editCardID = card.ID

	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return externalEditorDoneMsg{err: err}
	}), nil
}

// applyExternalEditorResult sends the edited text when it changed. The temp file is always removed.
func (m *pageModel) applyExternalEditorResult(msg externalEditorDoneMsg) tea.Cmd {
	path, before, id := m.editorPath, m.editorBefore, m.editCardID
	m.editorPath = ""
	m.editorBefore = ""
	if strings.TrimSpace(path) == "" {
		return nil
	}
	defer func() { _ = os.Remove(path) }()

	if msg.err != nil {
		m.minibufferText = "Editor failed: " + msg.err.Error()
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		m.minibufferText = "Editor read failed: " + err.Error()
		return nil
	}

	// Most editors end the file with a newline the card never had.
	after := strings.TrimSuffix(string(b), "\n")
	if after == before {
		m.minibufferText = fmt.Sprintf("No changes from %s", externalEditorName())
		return nil
	}
	if m.page.Board == nil {
		return nil
	}
	actions := m.page.Board.Actions
	return m.mutationCmd(model.MutationUpdateText, &id, func(ctx context.Context) error {
		return actions.UpdateCardText(ctx, id, after)
	})
}
