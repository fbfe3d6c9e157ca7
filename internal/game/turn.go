// internal/game/turn.go
package game

import (
	"github.com/google/uuid"
	"github.com/kittenboom/server/internal/models"
)

// TurnTracker holds whose turn it is and how many draw actions the turn
// holder still owes before the turn can pass. PendingDraws starts at 1 each
// round and is inflated by Attack and deflated by Skip and draws.
type TurnTracker struct {
	Current      uuid.UUID
	PendingDraws int
}

// Advance moves Current to the next seat in roster order, skipping eliminated
// players. When incrementDraws is set (the natural end-of-draw-phase path,
// also used by Attack to stack obligations forward), the new turn holder's
// pending draw count is incremented by one rather than reset.
//
// If every player is eliminated there is no valid next player and Current is
// left unchanged; the game-over path fires before that state is reachable.
func (t *TurnTracker) Advance(players []*models.Player, incrementDraws bool) {
	if len(players) == 0 {
		t.Current = uuid.Nil
		return
	}

	cur := -1
	for i, p := range players {
		if p.ID == t.Current {
			cur = i
			break
		}
	}

	next := (cur + 1) % len(players)
	for hops := 0; players[next].Eliminated; hops++ {
		if hops >= len(players) {
			return // nobody left to take the turn
		}
		next = (next + 1) % len(players)
	}
	t.Current = players[next].ID

	if incrementDraws {
		t.PendingDraws++
	}
}
