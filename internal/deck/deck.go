// Package deck builds and manipulates the two draw stacks. Everything here
// is a pure function: shuffles and draws return new slices and never mutate
// their input, so the resolver can retry a computation from any snapshot.
package deck

import (
	"errors"
	rand "math/rand/v2"

	"github.com/lox/powuno/internal/card"
)

// ErrInsufficientCards indicates a deal was requested that the deck cannot
// cover. Raised during game creation only; runtime draws reshuffle instead.
var ErrInsufficientCards = errors.New("deck: not enough cards to deal")

// HandSize is the number of base cards dealt to each player at game start.
const HandSize = 7

// PowerDeckCopies is the default number of copies of each power kind in the
// power deck.
const PowerDeckCopies = 4

// NewBase returns the deterministic 108-card base deck, unshuffled.
// Per color: one 0, two each of 1-9, two each of SKIP/REVERSE/DRAW2.
// Plus four WILD and four WILD_DRAW4.
func NewBase() []card.Card {
	deck := make([]card.Card, 0, 108)

	for _, c := range card.Colors {
		deck = append(deck, card.New(c, card.Zero))
		for r := card.One; r <= card.Nine; r++ {
			deck = append(deck, card.New(c, r), card.New(c, r))
		}
		for _, r := range []card.Rank{card.Skip, card.Reverse, card.Draw2} {
			deck = append(deck, card.New(c, r), card.New(c, r))
		}
	}

	for i := 0; i < 4; i++ {
		deck = append(deck, card.NewWild(card.Wild))
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, card.NewWild(card.WildDraw4))
	}

	return deck
}

// NewPower returns a power deck holding copies instances of each power kind,
// unshuffled. Non-positive copies falls back to the default.
func NewPower(copies int) []card.PowerCard {
	if copies <= 0 {
		copies = PowerDeckCopies
	}
	deck := make([]card.PowerCard, 0, copies*len(card.PowerCards))
	for _, p := range card.PowerCards {
		for i := 0; i < copies; i++ {
			deck = append(deck, p)
		}
	}
	return deck
}

// Shuffle returns a uniformly shuffled copy of s using rng. The input slice
// is left untouched.
func Shuffle[T any](rng *rand.Rand, s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Deal slices the first handSize cards per player, in seating order, from the
// top of deck. Returns one hand per player plus the remaining stack.
func Deal(deck []card.Card, players, handSize int) ([][]card.Card, []card.Card, error) {
	if len(deck) < players*handSize {
		return nil, nil, ErrInsufficientCards
	}
	hands := make([][]card.Card, players)
	for i := range hands {
		hands[i] = append([]card.Card(nil), deck[:handSize]...)
		deck = deck[handSize:]
	}
	return hands, append([]card.Card(nil), deck...), nil
}

// FlipInitialDiscard removes the first card that is not a WILD_DRAW4,
// scanning from the top, to seed the discard pile. An opening forced draw
// of four is too punishing. If the whole deck is WILD_DRAW4 the first card
// is taken anyway.
func FlipInitialDiscard(deck []card.Card) (card.Card, []card.Card) {
	idx := 0
	for i, c := range deck {
		if c.Rank != card.WildDraw4 {
			idx = i
			break
		}
	}
	flipped := deck[idx]
	remaining := make([]card.Card, 0, len(deck)-1)
	remaining = append(remaining, deck[:idx]...)
	remaining = append(remaining, deck[idx+1:]...)
	return flipped, remaining
}

// Draw removes up to n cards from the top of stack. When the stack holds
// fewer than n cards the caller gets what is there; reshuffling the discard
// history back into the stack is the caller's job.
func Draw[T any](stack []T, n int) (drawn, remaining []T) {
	if n > len(stack) {
		n = len(stack)
	}
	drawn = append([]T(nil), stack[:n]...)
	remaining = append([]T(nil), stack[n:]...)
	return drawn, remaining
}

// PopTop removes the single top card of stack. ok is false when the stack
// is empty.
func PopTop[T any](stack []T) (top T, remaining []T, ok bool) {
	if len(stack) == 0 {
		return top, nil, false
	}
	return stack[0], append([]T(nil), stack[1:]...), true
}
