// internal/lobby/room.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
)

// Room is the discovery-side record for a game room: a name, the set of
// members currently inside, and whether a round has started. Game state
// itself lives in the game session keyed by the same room ID.
type Room struct {
	ID   string `json:"roomId"`
	Name string `json:"roomName"`

	mu          sync.Mutex
	members     map[uuid.UUID]string
	gameStarted bool
}

// NewRoom creates an empty room with a freshly generated ID.
func NewRoom(name string) *Room {
	return &Room{
		ID:      uuid.NewString(),
		Name:    name,
		members: make(map[uuid.UUID]string),
	}
}

// AddMember records a user as present in the room.
func (r *Room) AddMember(userID uuid.UUID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[userID] = username
}

// RemoveMember drops a user from the room and reports whether the room is
// now empty.
func (r *Room) RemoveMember(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, userID)
	return len(r.members) == 0
}

// MemberCount returns the number of users currently in the room.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// SetGameStarted flips the started flag used to filter the joinable listing.
func (r *Room) SetGameStarted(started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gameStarted = started
}

// GameStarted reports whether a round has started in this room.
func (r *Room) GameStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameStarted
}
