// internal/lobby/room_store_test.go
package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStoreCreateAndGet(t *testing.T) {
	st := NewRoomStore()

	r := st.CreateRoom("Kitchen Table")
	require.NotEmpty(t, r.ID)
	assert.Equal(t, "Kitchen Table", r.Name)

	got, ok := st.GetRoom(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestRoomStoreListJoinableFiltersStarted(t *testing.T) {
	st := NewRoomStore()
	open := st.CreateRoom("alpha")
	started := st.CreateRoom("beta")
	started.SetGameStarted(true)

	rooms := st.ListJoinable()
	require.Len(t, rooms, 1)
	assert.Equal(t, open.ID, rooms[0].ID)
}

func TestRoomMembership(t *testing.T) {
	r := NewRoom("test")
	u1, u2 := uuid.New(), uuid.New()

	r.AddMember(u1, "player0")
	r.AddMember(u2, "player1")
	assert.Equal(t, 2, r.MemberCount())

	assert.False(t, r.RemoveMember(u1))
	assert.True(t, r.RemoveMember(u2), "removing the last member reports empty")
}

func TestRoomStoreGetOrCreate(t *testing.T) {
	st := NewRoomStore()

	r := st.GetOrCreateRoom("adhoc-room")
	assert.Equal(t, "adhoc-room", r.ID)
	assert.Same(t, r, st.GetOrCreateRoom("adhoc-room"))

	st.DeleteRoom("adhoc-room")
	assert.Equal(t, 0, st.Len())
}
