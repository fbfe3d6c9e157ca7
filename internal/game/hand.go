// internal/game/hand.go
package game

import "github.com/kittenboom/server/internal/models"

// Hand is a multiset of card tokens owned by a single player. Only the draw
// path and the effect resolver mutate hands.
type Hand []models.Card

// Add appends a card to the hand.
func (h *Hand) Add(c models.Card) {
	*h = append(*h, c)
}

// RemoveOne removes a single copy of c, reporting whether one was held.
func (h *Hand) RemoveOne(c models.Card) bool {
	for i, held := range *h {
		if held == c {
			*h = append((*h)[:i], (*h)[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveN removes up to n copies of c and returns how many were removed.
func (h *Hand) RemoveN(c models.Card, n int) int {
	removed := 0
	for removed < n && h.RemoveOne(c) {
		removed++
	}
	return removed
}

// Count returns the number of copies of c held.
func (h Hand) Count(c models.Card) int {
	n := 0
	for _, held := range h {
		if held == c {
			n++
		}
	}
	return n
}

// Contains reports whether at least one copy of c is held.
func (h Hand) Contains(c models.Card) bool {
	return h.Count(c) > 0
}
