// internal/game/errors.go
package game

import "errors"

// Typed rejection reasons. The transport layer drops rejected actions without
// broadcasting anything, but the session surfaces the reason so callers and
// tests can assert why an action was refused.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrWrongPhase       = errors.New("action not valid in current phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrCardNotHeld      = errors.New("card not held")
	ErrDeckEmpty        = errors.New("deck is empty")
	ErrInvalidTarget    = errors.New("invalid target player")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer    = errors.New("player not in room")
)
