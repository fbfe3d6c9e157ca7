// internal/lobby/room_store.go
package lobby

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RoomStore manages active rooms in memory with thread-safe access.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRoomStore initializes and returns an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom constructs a named room and adds it to the store.
func (s *RoomStore) CreateRoom(name string) *Room {
	r := NewRoom(name)
	s.mu.Lock()
	s.rooms[r.ID] = r
	s.mu.Unlock()
	logrus.WithFields(logrus.Fields{"room": r.ID, "name": name}).Info("room created")
	return r
}

// GetRoom retrieves a room by ID, creating it on demand for rooms that were
// reached directly over the websocket without a prior create call.
func (s *RoomStore) GetRoom(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetOrCreateRoom returns the room for the given ID, registering an unnamed
// room if none exists yet.
func (s *RoomStore) GetOrCreateRoom(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := &Room{
		ID:      id,
		members: make(map[uuid.UUID]string),
	}
	s.rooms[id] = r
	return r
}

// DeleteRoom removes a room from the store. Typically called when the last
// member leaves.
func (s *RoomStore) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; ok {
		delete(s.rooms, id)
		logrus.WithField("room", id).Info("room deleted")
	}
}

// ListJoinable returns rooms whose game has not started yet, sorted by name
// for stable listing output.
func (s *RoomStore) ListJoinable() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if !r.GameStarted() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of rooms currently in the store.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
