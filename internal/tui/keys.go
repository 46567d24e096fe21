package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit         key.Binding
	Reload       key.Binding
	SwitchPane   key.Binding
	Open         key.Binding
	Add          key.Binding
	Delete       key.Binding
	Edit         key.Binding
	EditInEditor key.Binding
	Copy         key.Binding
	NudgeLeft    key.Binding
	NudgeDown    key.Binding
	NudgeUp      key.Binding
	NudgeRight   key.Binding
	OrderUp      key.Binding
	OrderDown    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		SwitchPane:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "pane")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open room")),
		Add:          key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		EditInEditor: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "$EDITOR")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		NudgeLeft:    key.NewBinding(key.WithKeys("H"), key.WithHelp("H/J/K/L", "move")),
		NudgeDown:    key.NewBinding(key.WithKeys("J")),
		NudgeUp:      key.NewBinding(key.WithKeys("K")),
		NudgeRight:   key.NewBinding(key.WithKeys("L")),
		OrderUp:      key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "reorder")),
		OrderDown:    key.NewBinding(key.WithKeys("]")),
	}
}

func (k keyMap) sidebarHelp() []key.Binding {
	return []key.Binding{k.Open, k.SwitchPane, k.Reload, k.Quit}
}

func (k keyMap) boardHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.EditInEditor, k.Copy, k.Delete, k.NudgeLeft, k.OrderUp, k.SwitchPane, k.Reload, k.Quit}
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "   ")
}
