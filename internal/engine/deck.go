package engine

import "errors"

// ErrDeckExhausted means a round needed more cards than the shoe held.
// It is fatal to the round; hands are never silently truncated.
var ErrDeckExhausted = errors.New("deck exhausted")

// BuildDeck enumerates deckCount copies of the 52 cards in a fixed
// suit-major order. No randomness; Shuffle supplies that.
func BuildDeck(deckCount int) []Card {
	if deckCount < 1 {
		deckCount = 1
	}
	deck := make([]Card, 0, deckCount*52)
	for d := 0; d < deckCount; d++ {
		for i := uint8(0); i < 52; i++ {
			deck = append(deck, CardFromIndex(i))
		}
	}
	return deck
}

// Shuffle is a Fisher-Yates pass from the last index down to 1 with the
// swap index drawn as Next() mod (i+1). Replay verification depends on
// this exact formula.
func Shuffle(deck []Card, seed uint64) {
	rng := NewRng(seed)
	for i := len(deck) - 1; i > 0; i-- {
		j := int(rng.Next() % uint64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// ShuffledDeck builds and shuffles a shoe in one step.
func ShuffledDeck(deckCount int, seed uint64) []Card {
	deck := BuildDeck(deckCount)
	Shuffle(deck, seed)
	return deck
}

// Draw pops a card from the end of the deck.
func Draw(deck *[]Card) (Card, error) {
	d := *deck
	if len(d) == 0 {
		return Card{}, ErrDeckExhausted
	}
	c := d[len(d)-1]
	*deck = d[:len(d)-1]
	return c, nil
}
