package tui

import (
	"context"

	"roomboard/internal/board"
	"roomboard/internal/logging"
	"roomboard/internal/model"
	"roomboard/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"go.uber.org/zap"
)

type pane int

const (
	paneSidebar pane = iota
	paneBoard
)

func (p pane) String() string {
	if p == paneBoard {
		return "board"
	}
	return "sidebar"
}

func paneFromString(s string) pane {
	if s == "board" {
		return paneBoard
	}
	return paneSidebar
}

// nudgeStep is how far H/J/K/L move a card.
const nudgeStep = 1.0

type pageModel struct {
	ctx    context.Context
	ctrl   *board.Controller
	store  *store.Store
	server string
	logger *zap.Logger
	keys   keyMap

	width  int
	height int

	pane pane

	modal        modalKind
	input        textinput.Model
	editCardID   model.CardID
	confirmFocus confirmModalFocus

	// editorPath is the temp file of an $EDITOR session in progress.
	editorPath   string
	editorBefore string

	roomsList list.Model
	cardsList list.Model

	// page is the last snapshot taken from the controller.
	page board.Page
	busy bool

	minibufferText string
}

func newPageModel(ctx context.Context, ctrl *board.Controller, st *store.Store, server string, logger *zap.Logger) pageModel {
	if ctx == nil {
		ctx = context.Background()
	}
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Card text"
	ti.CharLimit = 2000

	m := pageModel{
		ctx:       ctx,
		ctrl:      ctrl,
		store:     st,
		server:    server,
		logger:    logging.OrNop(logger),
		keys:      defaultKeyMap(),
		input:     ti,
		roomsList: newRoomsList(),
		cardsList: newCardsList(),
	}
	m.page = ctrl.Page()
	return m
}

// selectedCard is the card under the board cursor.
func (m pageModel) selectedCard() (model.Card, bool) {
	if m.page.Board == nil {
		return model.Card{}, false
	}
	it, ok := m.cardsList.SelectedItem().(cardItem)
	if !ok {
		return model.Card{}, false
	}
	return it.card, true
}

// syncFromPage rebuilds both lists from a fresh controller snapshot, keeping cursors
// on the same room and card where they still exist.
func (m *pageModel) syncFromPage() {
	p := m.ctrl.Page()
	m.page = p

	if p.Sidebar == nil {
		m.roomsList.SetItems(nil)
		m.cardsList.SetItems(nil)
		return
	}

	roomIdx := m.roomsList.Index()
	m.roomsList.SetItems(roomItems(p.Sidebar.Rooms, p.Sidebar.SelectedID, p.Sidebar.HasSelection))
	if p.Sidebar.HasSelection && p.Sidebar.SelectedID < len(p.Sidebar.Rooms) {
		roomIdx = p.Sidebar.SelectedID
	}
	if roomIdx >= len(p.Sidebar.Rooms) {
		roomIdx = len(p.Sidebar.Rooms) - 1
	}
	if roomIdx >= 0 {
		m.roomsList.Select(roomIdx)
	}

	if p.Board == nil {
		m.cardsList.SetItems(nil)
		if m.pane == paneBoard {
			m.pane = paneSidebar
		}
		return
	}

	var keep model.CardID
	prev, hadPrev := m.selectedCardFromList()
	if hadPrev {
		keep = prev.ID
	}
	cardIdx := m.cardsList.Index()
	m.cardsList.SetItems(cardItems(p.Board.Cards))
	if hadPrev && selectCardByID(&m.cardsList, keep) {
		return
	}
	if cardIdx >= len(p.Board.Cards) {
		cardIdx = len(p.Board.Cards) - 1
	}
	if cardIdx >= 0 {
		m.cardsList.Select(cardIdx)
	}
}

func (m pageModel) selectedCardFromList() (model.Card, bool) {
	it, ok := m.cardsList.SelectedItem().(cardItem)
	if !ok {
		return model.Card{}, false
	}
	return it.card, true
}

// saveState remembers the selected room per server; failures only get logged.
func (m pageModel) saveState() {
	if m.store == nil {
		return
	}
	st := &store.TUIState{Version: 1, Server: m.server, Pane: m.pane.String()}
	if id, ok := m.ctrl.RoomID(); ok {
		st.RoomID = &id
	}
	if err := m.store.SaveTUIState(st); err != nil {
		m.logger.Warn("save tui state", zap.Error(err))
	}
}
