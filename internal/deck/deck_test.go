package deck

import (
	"testing"

	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/randutil"
)

func TestNewBaseComposition(t *testing.T) {
	t.Parallel()

	deck := NewBase()

	if len(deck) != 108 {
		t.Fatalf("expected 108 cards, got %d", len(deck))
	}

	counts := make(map[card.Card]int)
	for _, c := range deck {
		counts[c]++
	}

	for _, color := range card.Colors {
		if got := counts[card.New(color, card.Zero)]; got != 1 {
			t.Errorf("%s zero: got %d, want 1", color, got)
		}
		for r := card.One; r <= card.Nine; r++ {
			if got := counts[card.New(color, r)]; got != 2 {
				t.Errorf("%s %s: got %d, want 2", color, r, got)
			}
		}
		for _, r := range []card.Rank{card.Skip, card.Reverse, card.Draw2} {
			if got := counts[card.New(color, r)]; got != 2 {
				t.Errorf("%s %s: got %d, want 2", color, r, got)
			}
		}
	}

	if got := counts[card.NewWild(card.Wild)]; got != 4 {
		t.Errorf("WILD: got %d, want 4", got)
	}
	if got := counts[card.NewWild(card.WildDraw4)]; got != 4 {
		t.Errorf("WILD_DRAW4: got %d, want 4", got)
	}
}

func TestNewPowerComposition(t *testing.T) {
	t.Parallel()

	deck := NewPower(4)

	if len(deck) != 20 {
		t.Fatalf("expected 20 power cards, got %d", len(deck))
	}

	counts := make(map[card.PowerCard]int)
	for _, p := range deck {
		counts[p]++
	}
	for _, p := range card.PowerCards {
		if counts[p] != 4 {
			t.Errorf("%s: got %d, want 4", p, counts[p])
		}
	}
}

func TestNewPowerDefaultCopies(t *testing.T) {
	t.Parallel()

	if got := len(NewPower(0)); got != PowerDeckCopies*len(card.PowerCards) {
		t.Errorf("NewPower(0) length = %d", got)
	}
	if got := len(NewPower(2)); got != 2*len(card.PowerCards) {
		t.Errorf("NewPower(2) length = %d", got)
	}
}

func TestShuffleIsPureAndDeterministic(t *testing.T) {
	t.Parallel()

	original := NewBase()
	snapshot := append([]card.Card(nil), original...)

	a := Shuffle(randutil.New(42), original)
	b := Shuffle(randutil.New(42), original)

	// Input untouched
	for i := range original {
		if original[i] != snapshot[i] {
			t.Fatal("Shuffle mutated its input")
		}
	}

	// Same seed, same order
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same seed produced different shuffles")
		}
	}

	// Different seed, different order (overwhelmingly likely for 108 cards)
	c := Shuffle(randutil.New(43), original)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical shuffles")
	}
}

func TestDeal(t *testing.T) {
	t.Parallel()

	deck := NewBase()

	hands, remaining, err := Deal(deck, 4, HandSize)
	if err != nil {
		t.Fatalf("Deal failed: %v", err)
	}

	if len(hands) != 4 {
		t.Fatalf("expected 4 hands, got %d", len(hands))
	}
	for i, h := range hands {
		if len(h) != HandSize {
			t.Errorf("hand %d has %d cards, want %d", i, len(h), HandSize)
		}
	}
	if len(remaining) != 108-4*HandSize {
		t.Errorf("remaining = %d, want %d", len(remaining), 108-4*HandSize)
	}
}

func TestDealInsufficient(t *testing.T) {
	t.Parallel()

	small := NewBase()[:10]
	if _, _, err := Deal(small, 2, HandSize); err != ErrInsufficientCards {
		t.Errorf("expected ErrInsufficientCards, got %v", err)
	}
}

func TestFlipInitialDiscardSkipsWildDrawFour(t *testing.T) {
	t.Parallel()

	deck := []card.Card{
		card.NewWild(card.WildDraw4),
		card.NewWild(card.WildDraw4),
		card.New(card.Red, card.Five),
		card.New(card.Green, card.Two),
	}

	flipped, remaining := FlipInitialDiscard(deck)
	if flipped != card.New(card.Red, card.Five) {
		t.Errorf("flipped %s, want R-5", flipped)
	}
	if len(remaining) != 3 {
		t.Fatalf("remaining = %d, want 3", len(remaining))
	}
	// The skipped wilds stay in the deck in order
	if remaining[0].Rank != card.WildDraw4 || remaining[1].Rank != card.WildDraw4 {
		t.Error("skipped cards should remain at the top of the deck")
	}
}

func TestFlipInitialDiscardAllWildDrawFour(t *testing.T) {
	t.Parallel()

	deck := []card.Card{
		card.NewWild(card.WildDraw4),
		card.NewWild(card.WildDraw4),
	}

	flipped, remaining := FlipInitialDiscard(deck)
	if flipped.Rank != card.WildDraw4 {
		t.Errorf("flipped %s, want WILD_DRAW4", flipped)
	}
	if len(remaining) != 1 {
		t.Errorf("remaining = %d, want 1", len(remaining))
	}
}

func TestDrawPartialWhenShort(t *testing.T) {
	t.Parallel()

	stack := []card.Card{card.New(card.Red, card.One), card.New(card.Blue, card.Two)}

	drawn, remaining := Draw(stack, 5)
	if len(drawn) != 2 {
		t.Errorf("drawn = %d, want 2", len(drawn))
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %d, want 0", len(remaining))
	}
}

func TestPopTop(t *testing.T) {
	t.Parallel()

	top, remaining, ok := PopTop([]card.PowerCard{card.Freeze, card.Whirlwind})
	if !ok || top != card.Freeze || len(remaining) != 1 {
		t.Errorf("PopTop = %v, %v, %v", top, remaining, ok)
	}

	_, _, ok = PopTop([]card.PowerCard{})
	if ok {
		t.Error("PopTop on empty stack should report !ok")
	}
}
