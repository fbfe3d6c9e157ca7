// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kittenboom/server/internal/auth"
	"github.com/kittenboom/server/internal/game"
	"github.com/kittenboom/server/internal/middleware"
	"github.com/kittenboom/server/internal/models"
)

// GameMessage is the envelope for every inbound WebSocket message. A single
// connection multiplexes all rooms, so every message names its room.
type GameMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`

	// Card names the card for playCard and giveFavorCard actions.
	Card string `json:"card,omitempty"`

	// ComboCard names the cat card pair surrendered by takeComboCard.
	ComboCard string `json:"comboCard,omitempty"`

	// TargetPlayerID identifies the chosen favor target.
	TargetPlayerID string `json:"targetPlayerId,omitempty"`

	// FromPlayer and ToPlayer identify the giver and receiver of a card.
	FromPlayer string `json:"fromPlayer,omitempty"`
	ToPlayer   string `json:"toPlayer,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket, authenticates the
// user from the auth_token cookie or ?token= query parameter, and runs the
// read loop routing messages to the named room's session.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client connected with invalid subprotocol: %s", c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}

		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		identity, err := auth.AuthenticateJWT(token)
		if err != nil {
			logger.Warnf("WebSocket auth failed from %s: %v", r.RemoteAddr, err)
			c.Close(InvalidAuthTokenError, "Authentication failed.")
			return
		}
		userID, err := uuid.Parse(identity.UserID)
		if err != nil {
			logger.Warnf("Malformed user id in token from %s: %v", r.RemoteAddr, err)
			c.Close(InvalidUserIDError, "Invalid user id in token.")
			return
		}

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		logger.Infof("User %s (%s) connected to game socket", userID, identity.Username)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &gameConn{
			c:        c,
			userID:   userID,
			username: identity.Username,
			joined:   make(map[string]struct{}),
		}
		readGameMessages(ctx, conn, gs, logger)

		// Mark the player disconnected in every room this connection joined.
		for roomID := range conn.joined {
			if s, ok := gs.Sessions.Get(roomID); ok {
				s.HandleDisconnect(userID)
			}
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}

// gameConn tracks one client connection and the rooms it has joined.
type gameConn struct {
	c        *websocket.Conn
	userID   uuid.UUID
	username string
	joined   map[string]struct{}
}

// readGameMessages continuously reads messages from the client, unmarshals
// them, and routes them to the named room's session. Rejected actions are
// dropped without a reply; the typed reason is logged at debug level.
func readGameMessages(ctx context.Context, conn *gameConn, gs *GameServer, logger *logrus.Logger) {
	for {
		msgType, data, err := conn.c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for user %s.", conn.userID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for user %s.", conn.userID)
			} else {
				logger.Warnf("Error reading from WebSocket for user %s: %v (Status: %d)", conn.userID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from user %s. Ignoring.", msgType, conn.userID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from user %s: %v. Data: %s", conn.userID, err, string(data))
			continue
		}
		if msg.RoomID == "" {
			logger.Debugf("Message '%s' from user %s is missing roomId. Ignoring.", msg.Type, conn.userID)
			continue
		}

		logger.Debugf("Received action '%s' from user %s for room %s.", msg.Type, conn.userID, msg.RoomID)
		handleGameMessage(conn, gs, msg, logger)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// handleGameMessage routes one envelope to the session for its room.
func handleGameMessage(conn *gameConn, gs *GameServer, msg GameMessage, logger *logrus.Logger) {
	if msg.Type == "joinRoom" {
		s := gs.Sessions.GetOrCreate(msg.RoomID)
		ensureBroadcasters(s, logger)
		s.HandleJoin(&models.Player{
			ID:        conn.userID,
			Username:  conn.username,
			Connected: true,
			Conn:      conn.c,
		})
		room := gs.Rooms.GetOrCreateRoom(msg.RoomID)
		room.AddMember(conn.userID, conn.username)
		conn.joined[msg.RoomID] = struct{}{}
		return
	}

	s, ok := gs.Sessions.Get(msg.RoomID)
	if !ok {
		logger.Debugf("Rejected '%s' from user %s in room %s: %v", msg.Type, conn.userID, msg.RoomID, game.ErrRoomNotFound)
		return
	}

	var err error
	switch msg.Type {
	case "leaveRoom":
		err = s.HandleLeave(conn.userID)
		if err == nil {
			delete(conn.joined, msg.RoomID)
			if room, ok := gs.Rooms.GetRoom(msg.RoomID); ok && room.RemoveMember(conn.userID) {
				gs.Rooms.DeleteRoom(msg.RoomID)
			}
		}

	case "startGame":
		err = s.Start(conn.userID)
		if err == nil {
			if room, ok := gs.Rooms.GetRoom(msg.RoomID); ok {
				room.SetGameStarted(true)
			}
		}

	case "restartGame":
		err = s.Restart(conn.userID)

	case "drawCard":
		err = s.HandleDraw(conn.userID)

	case "playCard":
		err = s.HandlePlayCard(conn.userID, models.Card(msg.Card))

	case "chooseFavorTargetDone":
		var targetID uuid.UUID
		targetID, err = uuid.Parse(msg.TargetPlayerID)
		if err == nil {
			err = s.HandleChooseFavorTarget(conn.userID, targetID)
		}

	case "giveFavorCard":
		var fromID, toID uuid.UUID
		fromID, err = uuid.Parse(msg.FromPlayer)
		if err == nil {
			toID, err = uuid.Parse(msg.ToPlayer)
		}
		if err == nil {
			err = s.HandleGiveFavorCard(conn.userID, fromID, toID, models.Card(msg.Card))
		}

	case "takeComboCard":
		var fromID uuid.UUID
		fromID, err = uuid.Parse(msg.FromPlayer)
		if err == nil {
			err = s.HandleTakeComboCard(conn.userID, fromID, models.Card(msg.Card), models.Card(msg.ComboCard))
		}

	default:
		logger.Warnf("Unknown action type '%s' from user %s in room %s.", msg.Type, conn.userID, msg.RoomID)
		return
	}

	if err != nil {
		// Invalid actions are dropped silently at the transport; nothing is
		// broadcast and the sender receives no error frame.
		logger.Debugf("Rejected '%s' from user %s in room %s: %v", msg.Type, conn.userID, msg.RoomID, err)
	}
}

// ensureBroadcasters installs the session's broadcast closures the first
// time any connection touches it.
func ensureBroadcasters(s *game.Session, logger *logrus.Logger) {
	s.Mu.Lock()
	if s.BroadcastFn == nil {
		s.BroadcastFn = createBroadcastFunc(s, logger)
	}
	if s.BroadcastToPlayerFn == nil {
		s.BroadcastToPlayerFn = createBroadcastToPlayerFunc(s, logger)
	}
	s.Mu.Unlock()
}

// createBroadcastFunc returns a function suitable for Session.BroadcastFn.
// It is invoked with the session lock held, so it reads the roster directly
// and defers the actual socket writes to a goroutine.
func createBroadcastFunc(s *game.Session, logger *logrus.Logger) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		conns := make([]*websocket.Conn, 0, len(s.Players))
		for _, p := range s.Players {
			if p.Connected && p.Conn != nil {
				conns = append(conns, p.Conn)
			}
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for room %s: %v", ev.Type, s.RoomID, err)
			return
		}

		go func(conns []*websocket.Conn, data []byte, roomID string) {
			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					logger.Warnf("Failed to write broadcast message in room %s: %v", roomID, err)
				}
			}
		}(conns, msgBytes, s.RoomID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// Session.BroadcastToPlayerFn. Same locking contract as createBroadcastFunc.
func createBroadcastToPlayerFunc(s *game.Session, logger *logrus.Logger) func(playerID uuid.UUID, ev game.GameEvent) {
	return func(playerID uuid.UUID, ev game.GameEvent) {
		var target *websocket.Conn
		for _, p := range s.Players {
			if p.ID == playerID {
				if p.Connected && p.Conn != nil {
					target = p.Conn
				}
				break
			}
		}
		if target == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in room %s: %v", ev.Type, playerID, s.RoomID, err)
			return
		}

		go func(conn *websocket.Conn, data []byte, roomID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Warnf("Failed to write private message to player %s in room %s: %v", playerID, roomID, err)
			}
		}(target, msgBytes, s.RoomID)
	}
}
