package model

import "fmt"

type CardID = int

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) Add(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

type Card struct {
	ID       CardID   `json:"cardId"`
	Text     string   `json:"text"`
	Position Position `json:"position"`
}

// Room is addressed by its index in the collection returned by GET /rooms.
type Room struct {
	// Name is optional; older servers do not send it.
	Name  string   `json:"name,omitempty"`
	Cards []Card   `json:"cards"`
	Order []CardID `json:"order"`
}

// DisplayName returns Name, or "Room <index>" when the server did not send one.
func (r Room) DisplayName(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("Room %d", index)
}

func (r Room) FindCard(id CardID) (*Card, bool) {
	for i := range r.Cards {
		if r.Cards[i].ID == id {
			return &r.Cards[i], true
		}
	}
	return nil, false
}

// OrderedCards returns the cards in Order sequence. Cards the order list does not mention
// follow in their Cards order; ids in Order without a card are skipped.
func (r Room) OrderedCards() []Card {
	out := make([]Card, 0, len(r.Cards))
	seen := make(map[CardID]bool, len(r.Cards))
	for _, id := range r.Order {
		if seen[id] {
			continue
		}
		if c, ok := r.FindCard(id); ok {
			out = append(out, *c)
			seen[id] = true
		}
	}
	for _, c := range r.Cards {
		if !seen[c.ID] {
			out = append(out, c)
			seen[c.ID] = true
		}
	}
	return out
}

// OrderIDs returns the ids of OrderedCards.
func (r Room) OrderIDs() []CardID {
	cards := r.OrderedCards()
	ids := make([]CardID, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}

// MoveInOrder returns a copy of the display order with id shifted by delta places,
// clamped to the ends. moved is false when id is not in the room or is already at
// the end it would move past.
func (r Room) MoveInOrder(id CardID, delta int) (order []CardID, moved bool) {
	order = r.OrderIDs()
	from := -1
	for i, x := range order {
		if x == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, false
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(order)-1 {
		to = len(order) - 1
	}
	if to == from {
		return order, false
	}
	x := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order[:to], append([]CardID{x}, order[to:]...)...)
	return order, true
}
