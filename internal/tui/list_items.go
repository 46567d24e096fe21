package tui

import (
	"fmt"

	"roomboard/internal/model"

	"github.com/charmbracelet/bubbles/list"
)

type roomItem struct {
	index    int
	room     model.Room
	selected bool
}

func (i roomItem) FilterValue() string { return i.room.DisplayName(i.index) }
func (i roomItem) Title() string {
	if i.selected {
		return "• " + i.room.DisplayName(i.index)
	}
	return i.room.DisplayName(i.index)
}
func (i roomItem) Description() string {
	n := len(i.room.Cards)
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}

type cardItem struct {
	card model.Card
}

func (i cardItem) FilterValue() string { return i.card.Text }

func newList(title string, delegate list.ItemDelegate) list.Model {
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	// The page renders its own header/footer, so keep list chrome minimal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	cursorUp := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	l.KeyMap.CursorUp.SetKeys(append(cursorUp, "ctrl+p")...)
	cursorDown := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	l.KeyMap.CursorDown.SetKeys(append(cursorDown, "ctrl+n")...)
	return l
}

func newRoomsList() list.Model {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(colorSelectedFg).BorderForeground(colorAccent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(colorCardMetaFg).BorderForeground(colorAccent)
	return newList("Rooms", d)
}

func newCardsList() list.Model {
	return newList("Cards", newCardDelegate())
}

func roomItems(rooms []model.Room, selected int, hasSelection bool) []list.Item {
	items := make([]list.Item, 0, len(rooms))
	for i, r := range rooms {
		items = append(items, roomItem{index: i, room: r, selected: hasSelection && i == selected})
	}
	return items
}

func cardItems(cards []model.Card) []list.Item {
	items := make([]list.Item, 0, len(cards))
	for _, c := range cards {
		items = append(items, cardItem{card: c})
	}
	return items
}

func selectCardByID(l *list.Model, id model.CardID) bool {
	for i, it := range l.Items() {
		if ci, ok := it.(cardItem); ok && ci.card.ID == id {
			l.Select(i)
			return true
		}
	}
	return false
}
