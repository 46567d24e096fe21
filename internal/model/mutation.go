package model

import (
	"encoding/json"
	"time"
)

type MutationKind string

const (
	MutationUpdateText     MutationKind = "update-text"
	MutationDeleteCard     MutationKind = "delete-card"
	MutationAddCard        MutationKind = "add-card"
	MutationUpdatePosition MutationKind = "update-position"
	MutationUpdateOrder    MutationKind = "update-order"
)

// Mutation is one attempted change sent to the rooms API.
type Mutation struct {
	ID      string          `json:"id"`
	Kind    MutationKind    `json:"kind"`
	Server  string          `json:"server,omitempty"`
	RoomID  int             `json:"roomId"`
	CardID  *CardID         `json:"cardId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	At      time.Time       `json:"at"`
}
