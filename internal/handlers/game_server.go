// internal/handlers/game_server.go
package handlers

import (
	"github.com/kittenboom/server/internal/game"
	"github.com/kittenboom/server/internal/lobby"
)

// GameServer bundles the shared in-memory stores the HTTP and WebSocket
// handlers operate on: active game sessions and the room directory.
type GameServer struct {
	Sessions *game.SessionStore
	Rooms    *lobby.RoomStore
}

// NewGameServer creates a GameServer with empty stores.
func NewGameServer() *GameServer {
	return &GameServer{
		Sessions: game.NewSessionStore(),
		Rooms:    lobby.NewRoomStore(),
	}
}
