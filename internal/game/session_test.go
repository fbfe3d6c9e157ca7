// internal/game/session_test.go
package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittenboom/server/internal/models"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent               // Events sent to everyone
	playerEvents map[uuid.UUID][]GameEvent // Events sent to specific players
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[uuid.UUID][]GameEvent),
	}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = []GameEvent{}
	mb.playerEvents = make(map[uuid.UUID][]GameEvent)
}

func (mb *mockBroadcaster) events() []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]GameEvent, len(mb.allEvents))
	copy(out, mb.allEvents)
	return out
}

func (mb *mockBroadcaster) lastEvent() *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

func (mb *mockBroadcaster) lastPlayerEvent(playerID uuid.UUID) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events, ok := mb.playerEvents[playerID]
	if !ok || len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// setupTestSession initializes a started session with players and mock
// broadcasters. Setup-phase events are cleared.
func setupTestSession(t *testing.T, numPlayers int) (*Session, []*models.Player, *mockBroadcaster) {
	s := NewSession("room-test")
	mb := newMockBroadcaster()
	s.BroadcastFn = mb.broadcastFn
	s.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	players := make([]*models.Player, numPlayers)
	for i := range players {
		players[i] = &models.Player{
			ID:        uuid.New(),
			Username:  fmt.Sprintf("player%d", i),
			Connected: true,
		}
		s.HandleJoin(players[i])
	}

	require.NoError(t, s.Start(players[0].ID))
	require.Equal(t, PhaseInProgress, s.Phase())

	mb.clear()
	return s, players, mb
}

// setDeck swaps in a fixed deck so draw outcomes are deterministic. The last
// card in the slice is on top.
func setDeck(s *Session, cards ...models.Card) {
	s.Mu.Lock()
	s.Deck = NewDeck(cards, testRNG())
	s.Mu.Unlock()
}

func setHand(s *Session, playerID uuid.UUID, cards ...models.Card) {
	s.Mu.Lock()
	s.Hands[playerID] = Hand(cards)
	s.Mu.Unlock()
}

func getHand(s *Session, playerID uuid.UUID) Hand {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	hand := make(Hand, len(s.Hands[playerID]))
	copy(hand, s.Hands[playerID])
	return hand
}

func currentTurn(s *Session) (uuid.UUID, int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.Turn.Current, s.Turn.PendingDraws
}

func TestStartDealsDefuseAndFirstTurn(t *testing.T) {
	s := NewSession("room-start")
	mb := newMockBroadcaster()
	s.BroadcastFn = mb.broadcastFn
	s.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	var players []*models.Player
	for i := 0; i < 3; i++ {
		p := &models.Player{ID: uuid.New(), Username: fmt.Sprintf("player%d", i), Connected: true}
		players = append(players, p)
		s.HandleJoin(p)
	}

	require.NoError(t, s.Start(players[0].ID))

	cur, draws := currentTurn(s)
	assert.Equal(t, players[0].ID, cur)
	assert.Equal(t, 1, draws)
	for _, p := range players {
		assert.Equal(t, Hand{models.CardDefuse}, getHand(s, p.ID))
	}

	last := mb.lastEvent()
	require.NotNil(t, last)
	require.Equal(t, EventGameState, last.Type)
	assert.True(t, last.State.Started)
	assert.Equal(t, 21, last.State.DeckSize)
	assert.Equal(t, players[0].ID.String(), last.State.CurrentTurn)
	assert.Len(t, last.State.PlayerHands, 3, "snapshot carries every hand")
}

func TestStartRejectedWhileInProgress(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)
	assert.ErrorIs(t, s.Start(players[0].ID), ErrWrongPhase)
}

func TestStartRejectedWithoutPlayers(t *testing.T) {
	s := NewSession("room-empty")
	assert.ErrorIs(t, s.Start(uuid.New()), ErrNotEnoughPlayers)
}

func TestDrawSafeCardAdvancesTurn(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	setDeck(s, models.CardTacoCat)

	require.NoError(t, s.HandleDraw(players[0].ID))

	hand := getHand(s, players[0].ID)
	assert.Equal(t, 1, hand.Count(models.CardTacoCat))

	cur, draws := currentTurn(s)
	assert.Equal(t, players[1].ID, cur)
	assert.Equal(t, 1, draws)

	events := mb.events()
	require.Len(t, events, 2)
	assert.Equal(t, EventCardEffect, events[0].Type)
	assert.Equal(t, "player0 drew a card.", events[0].Effect.Effect)
	assert.Equal(t, EventGameState, events[1].Type)
}

func TestDrawBombWithDefuseReshuffles(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	setDeck(s, models.CardBomb)

	require.NoError(t, s.HandleDraw(players[0].ID))

	assert.False(t, players[0].Eliminated)
	assert.Equal(t, 0, getHand(s, players[0].ID).Count(models.CardDefuse), "defuse is spent")

	s.Mu.Lock()
	assert.Equal(t, 1, s.Deck.Size(), "bomb returns to the deck")
	s.Mu.Unlock()

	cur, _ := currentTurn(s)
	assert.Equal(t, players[1].ID, cur)

	events := mb.events()
	require.NotEmpty(t, events)
	assert.Equal(t, "player0 defused the bomb!", events[0].Effect.Effect)
}

func TestDrawBombWithoutDefuseEliminates(t *testing.T) {
	s, players, mb := setupTestSession(t, 3)
	setHand(s, players[0].ID)
	setDeck(s, models.CardBomb)

	require.NoError(t, s.HandleDraw(players[0].ID))

	assert.True(t, players[0].Eliminated)
	assert.Empty(t, getHand(s, players[0].ID))

	cur, draws := currentTurn(s)
	assert.Equal(t, players[1].ID, cur)
	assert.Equal(t, 1, draws)

	events := mb.events()
	require.NotEmpty(t, events)
	assert.Equal(t, "player0 exploded and is out of the game!", events[0].Effect.Effect)
	assert.Equal(t, EventGameState, events[len(events)-1].Type)
}

func TestExplosionWithTwoPlayersEndsRound(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	setHand(s, players[0].ID)
	setDeck(s, models.CardBomb)

	require.NoError(t, s.HandleDraw(players[0].ID))

	assert.Equal(t, PhaseRoundOver, s.Phase())

	last := mb.lastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventGameOver, last.Type, "no snapshot follows the game over event")
	require.NotNil(t, last.Winner)
	assert.Equal(t, players[1].ID, last.Winner.ID)
}

func TestAttackStacksDrawsOntoNextPlayer(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)
	setHand(s, players[0].ID, models.CardAttack)
	setDeck(s, models.CardTacoCat, models.CardHairyPotatoCat)

	require.NoError(t, s.HandlePlayCard(players[0].ID, models.CardAttack))

	cur, draws := currentTurn(s)
	assert.Equal(t, players[1].ID, cur)
	assert.Equal(t, 2, draws, "attacked player owes two draws")

	// First draw keeps the turn.
	require.NoError(t, s.HandleDraw(players[1].ID))
	cur, draws = currentTurn(s)
	assert.Equal(t, players[1].ID, cur)
	assert.Equal(t, 1, draws)

	// Second draw passes it back.
	require.NoError(t, s.HandleDraw(players[1].ID))
	cur, draws = currentTurn(s)
	assert.Equal(t, players[0].ID, cur)
	assert.Equal(t, 1, draws)
}

func TestSkipEndsTurnWithoutDrawing(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	setHand(s, players[0].ID, models.CardSkip)

	require.NoError(t, s.HandlePlayCard(players[0].ID, models.CardSkip))

	cur, draws := currentTurn(s)
	assert.Equal(t, players[1].ID, cur)
	assert.Equal(t, 1, draws)

	events := mb.events()
	require.NotEmpty(t, events)
	assert.Equal(t, "player0 skipped the turn!", events[0].Effect.Effect)
}

func TestSeeFutureIsPrivate(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	setHand(s, players[0].ID, models.CardSeeTheFuture)
	setDeck(s, models.CardFavor, models.CardSkip, models.CardShuffle)

	require.NoError(t, s.HandlePlayCard(players[0].ID, models.CardSeeTheFuture))

	private := mb.lastPlayerEvent(players[0].ID)
	require.NotNil(t, private)
	assert.Equal(t, EventSeeFuture, private.Type)
	assert.Equal(t, []models.Card{models.CardFavor, models.CardSkip, models.CardShuffle}, private.Cards,
		"peek keeps deck order, next draw last")

	for _, ev := range mb.events() {
		assert.NotEqual(t, EventSeeFuture, ev.Type, "future peek never goes to the room")
	}

	cur, _ := currentTurn(s)
	assert.Equal(t, players[0].ID, cur, "seeing the future does not end the turn")
}

func TestFavorFlow(t *testing.T) {
	s, players, mb := setupTestSession(t, 3)
	actor, target := players[0], players[1]
	setHand(s, actor.ID, models.CardFavor)
	setHand(s, target.ID, models.CardShuffle)

	require.NoError(t, s.HandlePlayCard(actor.ID, models.CardFavor))

	events := mb.events()
	require.NotEmpty(t, events)
	assert.Equal(t, EventChooseFavorTarget, events[0].Type)
	assert.Equal(t, actor.ID.String(), events[0].Player)

	mb.clear()
	require.NoError(t, s.HandleChooseFavorTarget(actor.ID, target.ID))

	events = mb.events()
	require.NotEmpty(t, events)
	require.Equal(t, EventRequestFavorCard, events[0].Type)
	assert.Equal(t, target.ID.String(), events[0].Favor.FromUserID)
	assert.Equal(t, actor.ID.String(), events[0].Favor.ToUserID)

	mb.clear()
	require.NoError(t, s.HandleGiveFavorCard(target.ID, target.ID, actor.ID, models.CardShuffle))

	assert.Equal(t, 0, getHand(s, target.ID).Count(models.CardShuffle))
	assert.Equal(t, 1, getHand(s, actor.ID).Count(models.CardShuffle))

	last := mb.lastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventGiveFavorCardDone, last.Type)
	assert.Equal(t, actor.ID.String(), last.Player)
}

func TestGiveFavorCardRequiresOwner(t *testing.T) {
	s, players, _ := setupTestSession(t, 3)
	err := s.HandleGiveFavorCard(players[2].ID, players[1].ID, players[0].ID, models.CardDefuse)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestComboStealSurrendersTwoCats(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)
	actor, target := players[0], players[1]
	setHand(s, actor.ID, models.CardTacoCat, models.CardTacoCat, models.CardTacoCat)
	setHand(s, target.ID, models.CardDefuse)

	require.NoError(t, s.HandleTakeComboCard(actor.ID, target.ID, models.CardDefuse, models.CardTacoCat))

	actorHand := getHand(s, actor.ID)
	assert.Equal(t, 1, actorHand.Count(models.CardTacoCat), "exactly two cats are surrendered")
	assert.Equal(t, 1, actorHand.Count(models.CardDefuse))
	assert.Empty(t, getHand(s, target.ID))

	assert.Len(t, actorHand, 2)
}

func TestComboStealRequiresPair(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	setHand(s, players[0].ID, models.CardTacoCat)
	setHand(s, players[1].ID, models.CardDefuse)

	err := s.HandleTakeComboCard(players[0].ID, players[1].ID, models.CardDefuse, models.CardTacoCat)
	assert.ErrorIs(t, err, ErrCardNotHeld)
	assert.Empty(t, mb.events(), "rejected actions broadcast nothing")
}

func TestComboStealRejectsNonCat(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)
	err := s.HandleTakeComboCard(players[0].ID, players[1].ID, models.CardDefuse, models.CardShuffle)
	assert.ErrorIs(t, err, ErrCardNotHeld)
}

func TestDrawOutOfTurnRejected(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)

	err := s.HandleDraw(players[1].ID)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Empty(t, mb.events())
}

func TestPlayCardNotHeldRejected(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)

	err := s.HandlePlayCard(players[0].ID, models.CardAttack)
	assert.ErrorIs(t, err, ErrCardNotHeld)
	assert.Empty(t, mb.events())
}

func TestActionsRejectedBeforeStart(t *testing.T) {
	s := NewSession("room-lobby")
	p := &models.Player{ID: uuid.New(), Username: "player0"}
	s.HandleJoin(p)

	assert.ErrorIs(t, s.HandleDraw(p.ID), ErrWrongPhase)
	assert.ErrorIs(t, s.HandlePlayCard(p.ID, models.CardSkip), ErrWrongPhase)
}

func TestEmptyDeckDrawSubstitutesSentinel(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)
	setDeck(s)

	require.NoError(t, s.HandleDraw(players[0].ID))

	assert.Equal(t, 1, getHand(s, players[0].ID).Count(models.CardEmpty))

	cur, _ := currentTurn(s)
	assert.Equal(t, players[1].ID, cur)
}

func TestJoinMidGameSeedsDefuse(t *testing.T) {
	s, _, mb := setupTestSession(t, 2)

	late := &models.Player{ID: uuid.New(), Username: "latecomer", Connected: true}
	s.HandleJoin(late)

	assert.Equal(t, 2, late.Seat)
	assert.Equal(t, Hand{models.CardDefuse}, getHand(s, late.ID))

	last := mb.lastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventGameState, last.Type)
}

func TestLeaveCurrentTurnHolderStallsRoom(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)

	require.NoError(t, s.HandleLeave(players[0].ID))

	cur, _ := currentTurn(s)
	assert.Equal(t, players[0].ID, cur, "the turn is not reassigned when its holder leaves")
	assert.ErrorIs(t, s.HandleDraw(players[1].ID), ErrNotYourTurn)
}

func TestLeaveUnknownPlayer(t *testing.T) {
	s, _, _ := setupTestSession(t, 2)
	assert.ErrorIs(t, s.HandleLeave(uuid.New()), ErrUnknownPlayer)
}

func TestRestartResetsRound(t *testing.T) {
	s, players, mb := setupTestSession(t, 2)
	players[0].Eliminated = true
	setHand(s, players[0].ID)
	setHand(s, players[1].ID, models.CardTacoCat, models.CardSkip)

	require.NoError(t, s.Restart(players[1].ID))

	assert.Equal(t, PhaseInProgress, s.Phase())
	for _, p := range players {
		assert.False(t, p.Eliminated)
		assert.Equal(t, Hand{models.CardDefuse}, getHand(s, p.ID))
	}

	cur, draws := currentTurn(s)
	assert.Equal(t, players[0].ID, cur)
	assert.Equal(t, 1, draws)

	last := mb.lastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventGameReset, last.Type)
}

func TestDisconnectKeepsSeat(t *testing.T) {
	s, players, _ := setupTestSession(t, 2)

	s.HandleDisconnect(players[0].ID)

	assert.False(t, players[0].Connected)
	s.Mu.Lock()
	assert.Len(t, s.Players, 2)
	s.Mu.Unlock()
}
