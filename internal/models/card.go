// internal/models/card.go
package models

// Card is an opaque card token. Cards carry no per-instance identity;
// two tokens of the same type are interchangeable.
type Card string

const (
	CardBomb         Card = "bomb"
	CardDefuse       Card = "defuse"
	CardAttack       Card = "attack"
	CardSkip         Card = "skip"
	CardShuffle      Card = "shuffle"
	CardSeeTheFuture Card = "see_the_future"
	CardFavor        Card = "favor"

	// Cat cards have no effect on their own; two matching ones are
	// surrendered to steal a named card from another player.
	CardTacoCat        Card = "taco_cat"
	CardHairyPotatoCat Card = "hairy_potato_cat"

	// CardEmpty is the sentinel substituted when the draw deck is empty.
	CardEmpty Card = "empty"
)

// IsCat reports whether the token is a cat-type card usable in a combo steal.
func (c Card) IsCat() bool {
	return c == CardTacoCat || c == CardHairyPotatoCat
}

// DeckTemplate is the fixed multiset a fresh round's deck is built from.
func DeckTemplate() []Card {
	return []Card{
		CardBomb, CardBomb, CardBomb,
		CardDefuse, CardDefuse,
		CardAttack, CardAttack,
		CardSkip, CardSkip,
		CardShuffle, CardShuffle,
		CardSeeTheFuture, CardSeeTheFuture,
		CardFavor, CardFavor,
		CardTacoCat, CardTacoCat, CardTacoCat,
		CardHairyPotatoCat, CardHairyPotatoCat, CardHairyPotatoCat,
	}
}
