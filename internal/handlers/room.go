// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"net/http"
)

type createRoomRequest struct {
	RoomName string `json:"roomName"`
}

// CreateRoomHandler creates a named room and returns its generated ID.
func CreateRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if req.RoomName == "" {
			http.Error(w, "missing roomName", http.StatusBadRequest)
			return
		}

		room := gs.Rooms.CreateRoom(req.RoomName)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"roomId":   room.ID,
			"roomName": room.Name,
		})
	}
}

type roomListing struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	Members  int    `json:"members"`
}

// ListRoomsHandler returns the rooms that can still be joined. Rooms whose
// game has started are filtered out.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := gs.Rooms.ListJoinable()
		out := make([]roomListing, 0, len(rooms))
		for _, room := range rooms {
			out = append(out, roomListing{
				RoomID:   room.ID,
				RoomName: room.Name,
				Members:  room.MemberCount(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
