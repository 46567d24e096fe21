package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"roomboard/internal/model"

	"github.com/gorilla/mux"
	"github.com/starfederation/datastar-go/datastar"
)

var errBadInput = errors.New("bad input")

// cardInput is what a card action may carry, either as form fields or datastar signals.
type cardInput struct {
	Text  *string  `json:"text,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Order *string  `json:"order,omitempty"`
}

func readCardInput(r *http.Request) (cardInput, error) {
	var in cardInput
	if isDatastarRequest(r) && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := datastar.ReadSignals(r, &in); err != nil {
			return in, fmt.Errorf("%w: %v", errBadInput, err)
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: %v", errBadInput, err)
	}
	if vs, ok := r.PostForm["text"]; ok && len(vs) > 0 {
		text := vs[0]
		in.Text = &text
	}
	for _, f := range []struct {
		name string
		dst  **float64
	}{{"x", &in.X}, {"y", &in.Y}} {
		raw := strings.TrimSpace(r.PostForm.Get(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, fmt.Errorf("%w: %s: %v", errBadInput, f.name, err)
		}
		*f.dst = &v
	}
	if vs, ok := r.PostForm["order"]; ok && len(vs) > 0 {
		order := vs[0]
		in.Order = &order
	}
	return in, nil
}

// parseOrder reads "3,1,2" (commas or spaces).
func parseOrder(s string) ([]model.CardID, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]model.CardID, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: order: %q is not a card id", errBadInput, f)
		}
		out = append(out, id)
	}
	return out, nil
}

func cardIDVar(r *http.Request) (model.CardID, error) {
	id, err := strconv.Atoi(mux.Vars(r)["cardId"])
	if err != nil {
		return 0, fmt.Errorf("%w: card id", errBadInput)
	}
	return id, nil
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	s.respond(w, r, ctrl, ctrl.AddCard(r.Context()))
}

func (s *Server) handleCardText(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	id, err := cardIDVar(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := readCardInput(r)
	if err == nil && in.Text == nil {
		err = fmt.Errorf("%w: missing text", errBadInput)
	}
	if err != nil {
		s.respond(w, r, ctrl, err)
		return
	}
	s.respond(w, r, ctrl, ctrl.UpdateCardText(r.Context(), id, *in.Text))
}

func (s *Server) handleCardPosition(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	id, err := cardIDVar(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := readCardInput(r)
	if err == nil && (in.X == nil || in.Y == nil) {
		err = fmt.Errorf("%w: position needs x and y", errBadInput)
	}
	if err != nil {
		s.respond(w, r, ctrl, err)
		return
	}
	s.respond(w, r, ctrl, ctrl.UpdatePosition(r.Context(), id, model.Position{X: *in.X, Y: *in.Y}))
}

func (s *Server) handleCardDelete(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	id, err := cardIDVar(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.respond(w, r, ctrl, ctrl.DeleteCard(r.Context(), id))
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	in, err := readCardInput(r)
	if err == nil && in.Order == nil {
		err = fmt.Errorf("%w: missing order", errBadInput)
	}
	var order []model.CardID
	if err == nil {
		order, err = parseOrder(*in.Order)
	}
	if err != nil {
		s.respond(w, r, ctrl, err)
		return
	}
	s.respond(w, r, ctrl, ctrl.UpdateOrder(r.Context(), order))
}
