package board

import (
	"errors"

	"roomboard/internal/model"
)

// Page is what a surface renders.
//
//   - Loading: rooms not fetched yet (Err carries a failed first load).
//   - Sidebar: set once rooms are loaded.
//   - Board: set only when the selection is valid for the loaded rooms.
type Page struct {
	Loading bool
	Err     error
	Sidebar *Sidebar
	Board   *Board
	Busy    bool
}

type Sidebar struct {
	Rooms []model.Room
	// SelectedID is meaningful only when HasSelection is set.
	SelectedID   int
	HasSelection bool
}

type Board struct {
	RoomID  int
	Room    model.Room
	Cards   []model.Card // display order
	Actions Actions
}

func (c *Controller) Page() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := Page{Err: c.lastErr, Busy: c.busy}
	if !c.loaded {
		p.Loading = true
		return p
	}

	sb := &Sidebar{Rooms: c.rooms}
	if id, ok := ParseRoomID(c.query); ok {
		sb.SelectedID = id
		sb.HasSelection = true
	}
	p.Sidebar = sb

	room, id, err := c.selectedLocked()
	switch {
	case err == nil:
		p.Board = &Board{RoomID: id, Room: room, Cards: room.OrderedCards(), Actions: c}
	case errors.Is(err, ErrInvalidSelection):
		// An out-of-range id degrades to "no room selected".
		if p.Err == nil {
			p.Err = err
		}
	}
	return p
}
