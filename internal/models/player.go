package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one seat in a room. Seat is assigned at join time and fixes the
// turn order; it never changes once the game has started. Eliminated players
// stay in the roster but are skipped by the turn rotation.
type Player struct {
	ID         uuid.UUID `json:"userId"`
	Username   string    `json:"username"`
	Seat       int       `json:"index"`
	Eliminated bool      `json:"hasLost"`

	Connected bool            `json:"-"`
	Conn      *websocket.Conn `json:"-"`
}
