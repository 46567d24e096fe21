// Package sandbox serves an in-memory rooms API for trial runs and tests.
// It has no persistence; restarting it resets the demo data.
package sandbox

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"roomboard/internal/model"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Call is one request the server received.
type Call struct {
	Method string
	Path   string
	Body   string
}

type Server struct {
	mu    sync.Mutex
	rooms []model.Room
	calls []Call

	// failNext makes the next matching request answer with a status code.
	failNext map[string]int
}

func New(rooms []model.Room) *Server {
	return &Server{rooms: cloneRooms(rooms), failNext: map[string]int{}}
}

// DemoRooms is the data `roomboard sandbox` starts with.
func DemoRooms() []model.Room {
	return []model.Room{
		{
			Name: "Planning",
			Cards: []model.Card{
				{ID: 1, Text: "# Goals\nShip the board", Position: model.Position{X: 0, Y: 0}},
				{ID: 2, Text: "Collect feedback", Position: model.Position{X: 4, Y: 1}},
				{ID: 3, Text: "- [ ] write docs", Position: model.Position{X: 8, Y: 2}},
			},
			Order: []model.CardID{1, 2, 3},
		},
		{
			Name:  "Retro",
			Cards: []model.Card{{ID: 1, Text: "What went well?", Position: model.Position{}}},
			Order: []model.CardID{1},
		},
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/rooms", s.handleRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId:[0-9]+}/cards", s.handleAddCard).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId:[0-9]+}/cards/{cardId:[0-9]+}", s.handlePatchCard).Methods(http.MethodPatch)
	r.HandleFunc("/rooms/{roomId:[0-9]+}/cards/{cardId:[0-9]+}", s.handleDeleteCard).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{roomId:[0-9]+}/order", s.handleOrder).Methods(http.MethodPatch)
	r.Use(s.record)
	return handlers.RecoveryHandler()(r)
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// Rooms returns a snapshot of the server state.
func (s *Server) Rooms() []model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRooms(s.rooms)
}

// FailNext makes the next request with the given method answer with status.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	s.failNext[method] = status
	s.mu.Unlock()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(b))

		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Body: strings.TrimSpace(string(b))})
		status, fail := s.failNext[r.Method]
		if fail {
			delete(s.failNext, r.Method)
		}
		s.mu.Unlock()

		if fail {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rooms := cloneRooms(s.rooms)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.roomLocked(r)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	next := model.CardID(1)
	for _, c := range room.Cards {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	card := model.Card{ID: next}
	room.Cards = append(room.Cards, card)
	room.Order = append(room.Order, next)
	writeJSON(w, http.StatusCreated, card)
}

type cardPatch struct {
	Text     *string         `json:"text"`
	Position *model.Position `json:"position"`
}

func (s *Server) handlePatchCard(w http.ResponseWriter, r *http.Request) {
	var body cardPatch
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cardLocked(r)
	if !ok {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	if body.Text != nil {
		card.Text = *body.Text
	}
	if body.Position != nil {
		card.Position = *body.Position
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.roomLocked(r)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["cardId"])
	idx := -1
	for i, c := range room.Cards {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	room.Cards = append(room.Cards[:idx], room.Cards[idx+1:]...)
	order := room.Order[:0]
	for _, x := range room.Order {
		if x != id {
			order = append(order, x)
		}
	}
	room.Order = order
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var order []model.CardID
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.roomLocked(r)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if order == nil {
		order = []model.CardID{}
	}
	room.Order = order
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) roomLocked(r *http.Request) (*model.Room, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["roomId"])
	if err != nil || id < 0 || id >= len(s.rooms) {
		return nil, false
	}
	return &s.rooms[id], true
}

func (s *Server) cardLocked(r *http.Request) (*model.Card, bool) {
	room, ok := s.roomLocked(r)
	if !ok {
		return nil, false
	}
	id, _ := strconv.Atoi(mux.Vars(r)["cardId"])
	for i := range room.Cards {
		if room.Cards[i].ID == id {
			return &room.Cards[i], true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cloneRooms(in []model.Room) []model.Room {
	out := make([]model.Room, len(in))
	for i, r := range in {
		out[i] = model.Room{
			Name:  r.Name,
			Cards: append([]model.Card{}, r.Cards...),
			Order: append([]model.CardID{}, r.Order...),
		}
	}
	return out
}
