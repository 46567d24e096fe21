package web

import (
	"html/template"
	"strconv"
	"strings"

	"roomboard/internal/board"
	"roomboard/internal/model"
)

type pageVM struct {
	Server  string
	Loading bool
	Err     string
	Rooms   []roomLinkVM
	Board   *boardVM
}

type roomLinkVM struct {
	ID       int
	Name     string
	Cards    int
	Selected bool
	Href     string
}

type boardVM struct {
	RoomID   int
	Name     string
	AddURL   string
	OrderURL string
	Cards    []cardVM
}

type cardVM struct {
	ID          model.CardID
	Text        string
	HTML        template.HTML
	X           string
	Y           string
	TextURL     string
	PositionURL string
	DeleteURL   string
	// EarlierOrder/LaterOrder are the full order after moving this card one step; empty at the ends.
	EarlierOrder string
	LaterOrder   string
}

func actionURL(path string, roomID int) string {
	return path + "?" + board.QueryFor(roomID).Encode()
}

func joinOrder(ids []model.CardID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func newPageVM(p board.Page, server string) pageVM {
	vm := pageVM{Server: server, Loading: p.Loading}
	if p.Err != nil {
		vm.Err = p.Err.Error()
	}
	if p.Sidebar != nil {
		for i, r := range p.Sidebar.Rooms {
			vm.Rooms = append(vm.Rooms, roomLinkVM{
				ID:       i,
				Name:     r.DisplayName(i),
				Cards:    len(r.Cards),
				Selected: p.Sidebar.HasSelection && p.Sidebar.SelectedID == i,
				Href:     "/?" + board.QueryFor(i).Encode(),
			})
		}
	}
	if p.Board != nil {
		vm.Board = newBoardVM(p.Board)
	}
	return vm
}

func newBoardVM(b *board.Board) *boardVM {
	vm := &boardVM{
		RoomID:   b.RoomID,
		Name:     b.Room.DisplayName(b.RoomID),
		AddURL:   actionURL("/cards", b.RoomID),
		OrderURL: actionURL("/order", b.RoomID),
	}
	for _, c := range b.Cards {
		base := "/cards/" + strconv.Itoa(c.ID)
		cv := cardVM{
			ID:          c.ID,
			Text:        c.Text,
			HTML:        renderMarkdownHTML(c.Text),
			X:           strconv.FormatFloat(c.Position.X, 'f', -1, 64),
			Y:           strconv.FormatFloat(c.Position.Y, 'f', -1, 64),
			TextURL:     actionURL(base+"/text", b.RoomID),
			PositionURL: actionURL(base+"/position", b.RoomID),
			DeleteURL:   actionURL(base+"/delete", b.RoomID),
		}
		if order, ok := b.Room.MoveInOrder(c.ID, -1); ok {
			cv.EarlierOrder = joinOrder(order)
		}
		if order, ok := b.Room.MoveInOrder(c.ID, 1); ok {
			cv.LaterOrder = joinOrder(order)
		}
		vm.Cards = append(vm.Cards, cv)
	}
	return vm
}
