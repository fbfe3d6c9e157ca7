// internal/game/session.go
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kittenboom/server/internal/cache"
	"github.com/kittenboom/server/internal/models"
)

// Phase is the explicit state machine a session moves through. Only a
// "started" boolean is exposed on the wire; Lobby and RoundOver both map to
// started == false there.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseInProgress
	PhaseRoundOver
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseRoundOver:
		return "round_over"
	default:
		return "lobby"
	}
}

// Session holds the entire state for one room's game in memory. It is the
// unit of concurrency: all fields are guarded by Mu, and every action is
// applied to completion under the lock before the next one for the room is
// processed. No state is ever shared across rooms.
type Session struct {
	RoomID string

	Players []*models.Player
	Hands   map[uuid.UUID]Hand
	Deck    *Deck
	Turn    TurnTracker

	phase Phase

	Mu  sync.Mutex
	rng *rand.Rand
	log *logrus.Entry

	// BroadcastFn sends an event to all connected room members. It is called
	// with the session lock held and must not re-acquire it.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single player only. Same
	// locking contract as BroadcastFn.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	// OnEmpty is invoked after the last player leaves while no round is in
	// progress; the owning store uses it to evict the session.
	OnEmpty func(roomID string)

	actionIndex int
}

// NewSession builds an idle session for the given room.
func NewSession(roomID string) *Session {
	return &Session{
		RoomID: roomID,
		Hands:  make(map[uuid.UUID]Hand),
		Turn:   TurnTracker{PendingDraws: 1},
		phase:  PhaseLobby,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		log:    logrus.WithField("room", roomID),
	}
}

// Phase returns the session's current lifecycle phase.
func (s *Session) Phase() Phase {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.phase
}

// started reports whether a round is in progress, the wire-level view of the
// phase machine. Lock must be held.
func (s *Session) started() bool {
	return s.phase == PhaseInProgress
}

// HandleJoin adds the player to the room, seeding the starting hand for
// first-time joiners, or refreshes the connection of a returning player.
// Joining is valid in every phase.
func (s *Session) HandleJoin(p *models.Player) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	existing := s.getPlayer(p.ID)
	if existing == nil {
		p.Seat = len(s.Players)
		p.Connected = true
		s.Players = append(s.Players, p)
		if _, ok := s.Hands[p.ID]; !ok {
			s.Hands[p.ID] = Hand{models.CardDefuse}
		}
		s.log.WithFields(logrus.Fields{"player": p.ID, "seat": p.Seat}).Info("player joined room")
	} else {
		existing.Conn = p.Conn
		existing.Connected = true
		s.log.WithField("player", p.ID).Info("player rejoined room")
	}
	s.logAction(p.ID, "joinRoom", nil)

	s.fireState()
}

// HandleLeave removes the player from the roster. The hand entry is retained
// and currentTurn is deliberately not reassigned: if the departing player
// held the turn the room stalls until they rejoin or the game is restarted.
func (s *Session) HandleLeave(playerID uuid.UUID) error {
	s.Mu.Lock()

	idx := -1
	for i, p := range s.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.Mu.Unlock()
		return ErrUnknownPlayer
	}
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	s.log.WithField("player", playerID).Info("player left room")
	s.logAction(playerID, "leaveRoom", nil)

	s.fireState()

	empty := len(s.Players) == 0
	evictable := empty && s.phase != PhaseInProgress
	onEmpty := s.OnEmpty
	s.Mu.Unlock()

	if evictable && onEmpty != nil {
		onEmpty(s.RoomID)
	}
	return nil
}

// Start deals the round in: fresh shuffled deck from the template, one defuse
// seeded per hand that does not have one yet, turn to the first
// non-eliminated seat.
func (s *Session) Start(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.phase == PhaseInProgress {
		return ErrWrongPhase
	}
	if len(s.Players) == 0 {
		return ErrNotEnoughPlayers
	}

	s.Deck = NewDeck(models.DeckTemplate(), s.rng)
	s.Deck.Shuffle()

	for _, p := range s.Players {
		if _, ok := s.Hands[p.ID]; !ok {
			s.Hands[p.ID] = Hand{models.CardDefuse}
		}
	}

	s.Turn.Current = s.firstActiveSeat()
	s.phase = PhaseInProgress
	s.log.WithField("player", playerID).Info("game started")
	s.logAction(playerID, "startGame", nil)

	s.fireState()
	return nil
}

// Restart re-initializes the round in place: elimination flags cleared, deck
// rebuilt and reshuffled, every hand reset to a single defuse, turn back to
// seat zero. Valid in every phase.
func (s *Session) Restart(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if len(s.Players) == 0 {
		return ErrNotEnoughPlayers
	}

	for _, p := range s.Players {
		p.Eliminated = false
		s.Hands[p.ID] = Hand{models.CardDefuse}
	}
	s.Deck = NewDeck(models.DeckTemplate(), s.rng)
	s.Deck.Shuffle()
	s.Turn = TurnTracker{Current: s.Players[0].ID, PendingDraws: 1}
	s.phase = PhaseInProgress
	s.log.WithField("player", playerID).Info("game restarted")
	s.logAction(playerID, "restartGame", nil)

	s.fireState()
	s.fireEvent(GameEvent{Type: EventGameReset})
	return nil
}

// HandleDraw resolves one draw action for the turn holder.
func (s *Session) HandleDraw(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.started() {
		return ErrWrongPhase
	}
	if s.Turn.Current != playerID {
		return ErrNotYourTurn
	}
	player := s.getPlayer(playerID)
	if player == nil {
		return ErrUnknownPlayer
	}

	card, err := s.Deck.DrawTop()
	if err != nil {
		// An empty deck substitutes the sentinel token instead of ending
		// the round.
		card = models.CardEmpty
		s.log.Warn("draw from empty deck, substituting sentinel token")
	}
	s.logAction(playerID, "drawCard", map[string]interface{}{"card": string(card)})

	s.resolveDrawnCard(player, card)
	return nil
}

// HandlePlayCard resolves playing a card from the turn holder's hand.
func (s *Session) HandlePlayCard(playerID uuid.UUID, card models.Card) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.started() {
		return ErrWrongPhase
	}
	if s.Turn.Current != playerID {
		return ErrNotYourTurn
	}
	player := s.getPlayer(playerID)
	if player == nil {
		return ErrUnknownPlayer
	}

	hand := s.Hands[playerID]
	if !hand.RemoveOne(card) {
		return ErrCardNotHeld
	}
	s.Hands[playerID] = hand
	s.logAction(playerID, "playCard", map[string]interface{}{"card": string(card)})

	s.resolvePlayedCard(player, card)
	return nil
}

// HandleChooseFavorTarget relays the favor player's target choice to the room.
func (s *Session) HandleChooseFavorTarget(playerID, targetID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.started() {
		return ErrWrongPhase
	}
	if s.getPlayer(targetID) == nil {
		return ErrInvalidTarget
	}
	s.logAction(playerID, "chooseFavorTargetDone", map[string]interface{}{"target": targetID.String()})

	s.fireEvent(GameEvent{
		Type: EventRequestFavorCard,
		Favor: &FavorRequest{
			FromUserID: targetID.String(),
			ToUserID:   playerID.String(),
		},
	})
	s.fireState()
	return nil
}

// HandleGiveFavorCard moves the surrendered card from the favor target to the
// requester. The acting player must be the one giving the card up.
func (s *Session) HandleGiveFavorCard(playerID, fromID, toID uuid.UUID, card models.Card) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.started() {
		return ErrWrongPhase
	}
	if playerID != fromID {
		return ErrInvalidTarget
	}
	if s.getPlayer(fromID) == nil || s.getPlayer(toID) == nil {
		return ErrInvalidTarget
	}
	s.logAction(playerID, "giveFavorCard", map[string]interface{}{
		"to": toID.String(), "card": string(card),
	})

	return s.resolveFavorGift(fromID, toID, card)
}

// HandleTakeComboCard resolves a combo steal: the acting player surrenders
// two matching cat cards to pull a named card out of the target's hand.
func (s *Session) HandleTakeComboCard(playerID, fromID uuid.UUID, card, comboCard models.Card) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !s.started() {
		return ErrWrongPhase
	}
	if !comboCard.IsCat() {
		return ErrCardNotHeld
	}
	if fromID == playerID || s.getPlayer(fromID) == nil {
		return ErrInvalidTarget
	}
	s.logAction(playerID, "takeComboCard", map[string]interface{}{
		"from": fromID.String(), "card": string(card), "combo": string(comboCard),
	})

	return s.resolveComboSteal(playerID, fromID, card, comboCard)
}

// HandleDisconnect marks the player disconnected so broadcasts skip their
// connection. The player stays seated; there are no resume semantics.
func (s *Session) HandleDisconnect(playerID uuid.UUID) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if p := s.getPlayer(playerID); p != nil {
		p.Connected = false
		p.Conn = nil
		s.log.WithField("player", playerID).Info("player disconnected")
	}
}

// getPlayer returns the seated player or nil. Lock must be held.
func (s *Session) getPlayer(id uuid.UUID) *models.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// firstActiveSeat returns the ID of the first non-eliminated player in seat
// order, or uuid.Nil when there is none. Lock must be held.
func (s *Session) firstActiveSeat() uuid.UUID {
	for _, p := range s.Players {
		if !p.Eliminated {
			return p.ID
		}
	}
	return uuid.Nil
}

// activeCount returns the number of non-eliminated players. Lock must be held.
func (s *Session) activeCount() int {
	n := 0
	for _, p := range s.Players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

// snapshot builds the full gameState payload. Lock must be held.
func (s *Session) snapshot() *Snapshot {
	snap := &Snapshot{
		RoomID:      s.RoomID,
		Players:     make([]models.Player, len(s.Players)),
		CurrentTurn: s.Turn.Current.String(),
		CardsToDraw: s.Turn.PendingDraws,
		Started:     s.started(),
		PlayerHands: make(map[string][]models.Card, len(s.Hands)),
	}
	for i, p := range s.Players {
		snap.Players[i] = *p
	}
	for id, hand := range s.Hands {
		cards := make([]models.Card, len(hand))
		copy(cards, hand)
		snap.PlayerHands[id.String()] = cards
	}
	if s.Deck != nil {
		snap.DeckSize = s.Deck.Size()
	}
	if s.Turn.Current == uuid.Nil {
		snap.CurrentTurn = ""
	}
	return snap
}

// fireEvent broadcasts an event to all connected players. Lock must be held.
func (s *Session) fireEvent(ev GameEvent) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player. Lock must be held.
func (s *Session) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if s.BroadcastToPlayerFn != nil {
		s.BroadcastToPlayerFn(playerID, ev)
	}
}

// fireState broadcasts the current snapshot. Always emitted after any effect
// events for the same action. Lock must be held.
func (s *Session) fireState() {
	s.fireEvent(GameEvent{Type: EventGameState, State: s.snapshot()})
}

// logAction pushes an action record onto the journal queue when the journal
// is connected. Best effort; gameplay never waits on it. Lock must be held.
func (s *Session) logAction(actor uuid.UUID, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if cache.Rdb == nil {
		return
	}
	rec := cache.GameActionRecord{
		RoomID:        s.RoomID,
		ActionIndex:   s.actionIndex,
		ActorUserID:   actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			s.log.WithError(err).Warn("failed to journal game action")
		}
	}()
}
