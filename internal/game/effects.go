// internal/game/effects.go
//
// The effect resolver: one case per card type. Each resolver mutates the
// session state under the caller-held lock and emits its effect events
// before the trailing state snapshot.
package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kittenboom/server/internal/models"
)

// resolveDrawnCard applies the outcome of a draw. A drawn bomb is defused if
// the hand holds a defuse (the bomb goes back into the deck and the deck is
// reshuffled); otherwise the player explodes: eliminated, hand cleared,
// remaining draw obligations voided. Any other card simply joins the hand.
// Lock must be held.
func (s *Session) resolveDrawnCard(player *models.Player, card models.Card) {
	effect := fmt.Sprintf("%s drew a card.", player.Username)

	if card == models.CardBomb {
		hand := s.Hands[player.ID]
		if hand.RemoveOne(models.CardDefuse) {
			s.Hands[player.ID] = hand
			s.Deck.PushTop(models.CardBomb)
			s.Deck.Shuffle()
			s.Turn.PendingDraws--
			effect = fmt.Sprintf("%s defused the bomb!", player.Username)
		} else {
			player.Eliminated = true
			s.Hands[player.ID] = Hand{}
			s.Turn.PendingDraws = 0
			effect = fmt.Sprintf("%s exploded and is out of the game!", player.Username)
		}
	} else {
		hand := s.Hands[player.ID]
		hand.Add(card)
		s.Hands[player.ID] = hand
		s.Turn.PendingDraws--
	}

	if s.Turn.PendingDraws == 0 {
		s.Turn.Advance(s.Players, true)
	}

	s.fireEvent(GameEvent{
		Type:   EventCardEffect,
		Effect: &CardEffect{Player: player.Username, Effect: effect},
	})

	if s.checkRoundOver() {
		return
	}
	s.fireState()
}

// resolvePlayedCard applies a played card's effect. The card has already been
// removed from the hand. Cards without an active effect (the cat types) are
// simply announced. Lock must be held.
func (s *Session) resolvePlayedCard(player *models.Player, card models.Card) {
	effect := fmt.Sprintf("%s played %s", player.Username, card)

	switch card {
	case models.CardAttack:
		// Attack transfers outstanding draw obligations forward instead of
		// resetting them: the forced advance itself re-arms the counter.
		if s.Turn.PendingDraws != 1 {
			s.Turn.PendingDraws++
		}
		s.Turn.Advance(s.Players, true)
		effect = fmt.Sprintf("%s used Attack!", player.Username)

	case models.CardSkip:
		if s.Turn.PendingDraws > 0 {
			s.Turn.PendingDraws--
		}
		if s.Turn.PendingDraws == 0 {
			s.Turn.Advance(s.Players, true)
		}
		effect = fmt.Sprintf("%s skipped the turn!", player.Username)

	case models.CardShuffle:
		s.Deck.Shuffle()
		effect = fmt.Sprintf("%s shuffled the deck!", player.Username)

	case models.CardSeeTheFuture:
		s.fireEventToPlayer(player.ID, GameEvent{
			Type:  EventSeeFuture,
			Cards: s.Deck.PeekTop(3),
		})
		effect = fmt.Sprintf("%s saw the future!", player.Username)

	case models.CardFavor:
		s.fireEvent(GameEvent{
			Type:   EventChooseFavorTarget,
			Player: player.ID.String(),
		})
		effect = fmt.Sprintf("%s played Favor and must choose a target!", player.Username)
	}

	s.fireEvent(GameEvent{
		Type:   EventCardEffect,
		Effect: &CardEffect{Player: player.Username, Effect: effect},
	})
	s.fireState()
}

// resolveFavorGift moves the chosen card from the favor target's hand to the
// requester's. Lock must be held.
func (s *Session) resolveFavorGift(fromID, toID uuid.UUID, card models.Card) error {
	fromHand := s.Hands[fromID]
	if !fromHand.RemoveOne(card) {
		return ErrCardNotHeld
	}
	s.Hands[fromID] = fromHand

	toHand := s.Hands[toID]
	toHand.Add(card)
	s.Hands[toID] = toHand

	giver := s.displayName(fromID)
	receiver := s.displayName(toID)

	s.fireEvent(GameEvent{
		Type:   EventCardEffect,
		Effect: &CardEffect{Player: giver, Effect: fmt.Sprintf("gave %s to %s", card, receiver)},
	})
	s.fireState()
	s.fireEvent(GameEvent{Type: EventGiveFavorCardDone, Player: toID.String()})
	return nil
}

// resolveComboSteal surrenders two matching cat cards from the acting player
// and pulls exactly one copy of the named card from the target's hand, even
// if the target holds several. Lock must be held.
func (s *Session) resolveComboSteal(actorID, fromID uuid.UUID, card, comboCard models.Card) error {
	actorHand := s.Hands[actorID]
	if actorHand.Count(comboCard) < 2 {
		return ErrCardNotHeld
	}

	fromHand := s.Hands[fromID]
	if !fromHand.RemoveOne(card) {
		return ErrCardNotHeld
	}
	s.Hands[fromID] = fromHand

	actorHand.RemoveN(comboCard, 2)
	actorHand.Add(card)
	s.Hands[actorID] = actorHand

	giver := s.displayName(fromID)
	receiver := s.displayName(actorID)

	s.fireEvent(GameEvent{
		Type:   EventCardEffect,
		Effect: &CardEffect{Player: giver, Effect: fmt.Sprintf("%s took %s from %s", receiver, card, giver)},
	})
	s.fireState()
	return nil
}

// checkRoundOver fires the game-over path when exactly one non-eliminated
// player remains: the winner is announced, the phase flips to RoundOver, and
// no trailing snapshot is emitted for the action. Lock must be held.
func (s *Session) checkRoundOver() bool {
	if s.activeCount() != 1 {
		return false
	}
	var winner *models.Player
	for _, p := range s.Players {
		if !p.Eliminated {
			winner = p
			break
		}
	}
	w := *winner
	s.phase = PhaseRoundOver
	s.log.WithField("winner", winner.ID).Info("round over")
	s.logAction(winner.ID, "gameOver", nil)
	s.fireEvent(GameEvent{Type: EventGameOver, Winner: &w})
	return true
}

// displayName resolves a seated player's username, falling back to the raw
// id for players no longer in the roster. Lock must be held.
func (s *Session) displayName(id uuid.UUID) string {
	if p := s.getPlayer(id); p != nil {
		return p.Username
	}
	return id.String()
}
