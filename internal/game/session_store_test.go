// internal/game/session_store_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittenboom/server/internal/models"
)

func TestSessionStoreLazyCreate(t *testing.T) {
	st := NewSessionStore()

	_, ok := st.Get("room-a")
	assert.False(t, ok)

	s := st.GetOrCreate("room-a")
	require.NotNil(t, s)
	assert.Equal(t, "room-a", s.RoomID)
	assert.Equal(t, 1, st.Len())

	again := st.GetOrCreate("room-a")
	assert.Same(t, s, again, "repeated lookups return the same session")
}

func TestSessionStoreEvictsEmptyIdleRoom(t *testing.T) {
	st := NewSessionStore()
	s := st.GetOrCreate("room-a")

	p := &models.Player{ID: uuid.New(), Username: "player0"}
	s.HandleJoin(p)
	require.NoError(t, s.HandleLeave(p.ID))

	assert.Equal(t, 0, st.Len(), "empty idle rooms are evicted")
}

func TestSessionStoreKeepsEmptyRunningRoom(t *testing.T) {
	st := NewSessionStore()
	s := st.GetOrCreate("room-a")

	p := &models.Player{ID: uuid.New(), Username: "player0"}
	s.HandleJoin(p)
	require.NoError(t, s.Start(p.ID))
	require.NoError(t, s.HandleLeave(p.ID))

	assert.Equal(t, 1, st.Len(), "rooms with a running round survive draining")
}

func TestSessionStoreRemove(t *testing.T) {
	st := NewSessionStore()
	st.GetOrCreate("room-a")
	st.GetOrCreate("room-b")

	st.Remove("room-a")
	assert.Equal(t, 1, st.Len())
	_, ok := st.Get("room-b")
	assert.True(t, ok)
}
