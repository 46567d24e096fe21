package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// cardDelegate renders each card as a bordered tile: first line of text, then id and position.
type cardDelegate struct {
	normalCard   lipgloss.Style
	selectedCard lipgloss.Style
	titleStyle   lipgloss.Style
	metaStyle    lipgloss.Style
}

func newCardDelegate() cardDelegate {
	base := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Foreground(colorSurfaceFg)

	return cardDelegate{
		normalCard:   base,
		selectedCard: base.BorderForeground(colorAccent),
		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg),
		metaStyle:    lipgloss.NewStyle().Foreground(colorCardMetaFg),
	}
}

func (d cardDelegate) Height() int                             { return 4 } // 2 inner lines + border
func (d cardDelegate) Spacing() int                            { return 0 }
func (d cardDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d cardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(cardItem)
	if !ok || m.Width() < 12 {
		return
	}

	card := d.normalCard
	if index == m.Index() {
		card = d.selectedCard
	}
	innerW := m.Width() - card.GetHorizontalFrameSize()
	if innerW < 1 {
		innerW = 1
	}

	title := firstLine(it.card.Text)
	if title == "" {
		title = "(empty)"
	}
	meta := fmt.Sprintf("#%d  @ %s,%s", it.card.ID, fmtCoord(it.card.Position.X), fmtCoord(it.card.Position.Y))

	lines := []string{
		padOrCutANSI(d.titleStyle.Render(truncateToWidth(title, innerW)), innerW),
		padOrCutANSI(d.metaStyle.Render(meta), innerW),
	}
	fmt.Fprint(w, card.Width(innerW+card.GetHorizontalPadding()).Render(strings.Join(lines, "\n")))
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
