package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarWidth   = 28
	minDetailWidth = 30
	headerHeight   = 1
	footerHeight   = 2
)

func (m pageModel) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 3 {
		h = 3
	}
	return h
}

// boardWidths splits the space right of the sidebar into cards and an optional detail pane.
func (m pageModel) boardWidths() (cards, detail int) {
	rest := m.width - sidebarWidth - 1
	if rest < 12 {
		return 12, 0
	}
	if rest < 2*minDetailWidth+1 {
		return rest, 0
	}
	detail = rest / 3
	if detail < minDetailWidth {
		detail = minDetailWidth
	}
	return rest - detail - 1, detail
}

func (m *pageModel) resizeLists() {
	h := m.bodyHeight()
	m.roomsList.SetSize(sidebarWidth, h)
	cw, _ := m.boardWidths()
	m.cardsList.SetSize(cw, h)
}

func (m pageModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}

	header := m.viewHeader()
	footer := m.viewFooter()

	var body string
	switch {
	case m.page.Loading:
		body = m.viewLoading()
	case m.modal == modalEditText:
		bodyW := modalBodyWidth(m.width)
		box := renderModalBox(m.width, "Edit card", renderInputLine(bodyW, m.input.View())+"\n\n"+styleMuted().Render("enter: save   esc: cancel"))
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
	case m.modal == modalConfirmDelete:
		box := renderConfirmModal(m.width, "Delete card", fmt.Sprintf("Delete card #%d?", m.editCardID), "Delete", "Cancel", m.confirmFocus)
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
	default:
		body = m.viewPanes()
	}

	return strings.Join([]string{header, normalizePane(body, m.width, m.bodyHeight()), footer}, "\n")
}

func (m pageModel) viewHeader() string {
	parts := []string{"roomboard", m.server}
	if m.page.Board != nil {
		parts = append(parts, m.page.Board.Room.DisplayName(m.page.Board.RoomID))
	}
	st := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
	return padOrCutANSI(st.Render(truncateToWidth(strings.Join(parts, " › "), m.width)), m.width)
}

func (m pageModel) viewLoading() string {
	if m.page.Err == nil {
		return styleMuted().Render("Loading rooms…")
	}
	return strings.Join([]string{
		styleError().Render("Could not load rooms: " + m.page.Err.Error()),
		"",
		styleMuted().Render("r: retry   q: quit"),
	}, "\n")
}

func (m pageModel) viewPanes() string {
	h := m.bodyHeight()
	cw, dw := m.boardWidths()
	sep := normalizePane(strings.Repeat("│\n", h), 1, h)
	sep = styleMuted().Render(sep)

	sidebar := normalizePane(m.roomsList.View(), sidebarWidth, h)
	if len(m.roomsList.Items()) == 0 {
		sidebar = normalizePane(styleMuted().Render("No rooms"), sidebarWidth, h)
	}

	var cards string
	switch {
	case m.page.Board == nil:
		msg := styleMuted().Render("No room selected")
		if m.page.Err != nil {
			msg += "\n\n" + styleError().Render(truncateToWidth(m.page.Err.Error(), cw))
		}
		cards = msg
	case len(m.page.Board.Cards) == 0:
		cards = styleMuted().Render("No cards. Press a to add one.")
	default:
		cards = m.cardsList.View()
	}
	cards = normalizePane(cards, cw, h)

	panes := []string{sidebar, sep, cards}
	if dw > 0 {
		panes = append(panes, sep, normalizePane(m.viewDetail(dw), dw, h))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

func (m pageModel) viewDetail(width int) string {
	card, ok := m.selectedCard()
	if !ok {
		return ""
	}
	meta := styleMuted().Render(fmt.Sprintf("#%d  x=%s  y=%s", card.ID, fmtCoord(card.Position.X), fmtCoord(card.Position.Y)))
	text := renderMarkdown(card.Text, width-2)
	if text == "" {
		text = styleMuted().Render("(empty)")
	}
	return meta + "\n\n" + text
}

func (m pageModel) viewFooter() string {
	var help string
	if m.pane == paneBoard && m.page.Board != nil {
		help = renderHelp(m.keys.boardHelp())
	} else {
		help = renderHelp(m.keys.sidebarHelp())
	}
	line1 := styleMuted().Render(truncateToWidth(help, m.width))

	line2 := ""
	switch {
	case m.busy:
		line2 = lipgloss.NewStyle().Foreground(colorAccent).Render("working…")
	case m.minibufferText != "":
		line2 = styleError().Render(truncateToWidth(m.minibufferText, m.width))
	}
	return padOrCutANSI(line1, m.width) + "\n" + padOrCutANSI(line2, m.width)
}
