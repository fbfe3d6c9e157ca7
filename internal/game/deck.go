// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/kittenboom/server/internal/models"
)

// Deck is an ordered stack of card tokens. The top of the deck is the end of
// the slice; DrawTop pops from there and PushTop appends there.
type Deck struct {
	cards []models.Card
	rng   *rand.Rand
}

// NewDeck builds a deck from the given cards using rng for all shuffles.
// The cards are taken over by the deck; callers should not retain the slice.
func NewDeck(cards []models.Card, rng *rand.Rand) *Deck {
	return &Deck{cards: cards, rng: rng}
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Shuffle randomizes the deck order in place with a uniform permutation.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// DrawTop removes and returns the top card. Returns ErrDeckEmpty if no cards
// remain; the session layer substitutes the sentinel empty token in that case.
func (d *Deck) DrawTop() (models.Card, error) {
	if len(d.cards) == 0 {
		return "", ErrDeckEmpty
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, nil
}

// PushTop places a card on top of the deck.
func (d *Deck) PushTop(c models.Card) {
	d.cards = append(d.cards, c)
}

// PeekTop returns copies of up to n cards from the draw end without mutating
// the deck, in deck order with the next draw last.
func (d *Deck) PeekTop(n int) []models.Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	out := make([]models.Card, n)
	copy(out, d.cards[len(d.cards)-n:])
	return out
}
