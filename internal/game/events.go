// internal/game/events.go
package game

import (
	"github.com/kittenboom/server/internal/models"
)

// GameEventType is an enum-like type for broadcasting game events.
type GameEventType string

const (
	// EventGameState carries the full session snapshot. It is emitted after
	// every state-mutating action, always after any effect events for the
	// same action so clients can animate the effect before reconciling.
	EventGameState GameEventType = "gameState"

	// EventCardEffect is a human-readable description of a resolved effect.
	EventCardEffect GameEventType = "cardEffect"

	// EventSeeFuture is sent privately to the acting player only and carries
	// up to three deck cards in deck order, next draw last.
	EventSeeFuture GameEventType = "seeFuture"

	// EventChooseFavorTarget prompts the room that the named player must
	// pick a favor target.
	EventChooseFavorTarget GameEventType = "chooseFavorTarget"

	// EventRequestFavorCard tells the chosen target to surrender a card.
	EventRequestFavorCard GameEventType = "requestFavorCard"

	// EventGiveFavorCardDone announces a completed favor, naming the
	// recipient.
	EventGiveFavorCardDone GameEventType = "giveFavorCardDone"

	// EventGameOver names the winner and ends the round. No trailing
	// gameState snapshot follows it.
	EventGameOver GameEventType = "gameOver"

	// EventGameReset announces an in-place round re-initialization.
	EventGameReset GameEventType = "gameReseted"
)

// CardEffect describes a resolved card effect for display.
type CardEffect struct {
	Player string `json:"player"`
	Effect string `json:"effect"`
}

// FavorRequest identifies the two sides of a pending favor.
type FavorRequest struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
}

// Snapshot is the full gameState payload. Hands are broadcast unfiltered to
// every room member, opponents' included; clients are trusted to hide them.
type Snapshot struct {
	RoomID      string                   `json:"roomId"`
	Players     []models.Player          `json:"players"`
	CurrentTurn string                   `json:"currentTurn"`
	CardsToDraw int                      `json:"cardsToDraw"`
	Started     bool                     `json:"started"`
	PlayerHands map[string][]models.Card `json:"playerHands"`
	DeckSize    int                      `json:"deckSize"`
}

// GameEvent holds data about an event broadcast to the clients in a
// consistent format. Exactly one payload field is set per event type.
type GameEvent struct {
	Type   GameEventType  `json:"type"`
	State  *Snapshot      `json:"state,omitempty"`
	Effect *CardEffect    `json:"effect,omitempty"`
	Cards  []models.Card  `json:"cards,omitempty"`
	Favor  *FavorRequest  `json:"favor,omitempty"`
	Player string         `json:"player,omitempty"`
	Winner *models.Player `json:"winner,omitempty"`
}
