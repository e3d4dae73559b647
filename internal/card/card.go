// Package card defines the closed set of card values used by the game:
// the 108-card base deck (colored numbers, colored actions, wilds) and
// the five power card kinds earned through play.
package card

import (
	"fmt"
	"strconv"
	"strings"
)

// Color represents one of the four base card colors.
type Color int

const (
	Red Color = iota
	Green
	Blue
	Yellow
)

// Colors lists every color in a fixed order, used for deck construction.
var Colors = []Color{Red, Green, Blue, Yellow}

// String returns the single-letter wire code for a color.
func (c Color) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	case Yellow:
		return "Y"
	default:
		return "?"
	}
}

// ParseColor parses a single-letter wire code into a Color.
func ParseColor(s string) (Color, error) {
	switch s {
	case "R":
		return Red, nil
	case "G":
		return Green, nil
	case "B":
		return Blue, nil
	case "Y":
		return Yellow, nil
	default:
		return 0, fmt.Errorf("invalid color %q", s)
	}
}

// MarshalText encodes the color as its wire code.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a wire code.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Rank identifies what a base card is: a number, a colored action, or a wild.
type Rank int

const (
	Zero Rank = iota
	One
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Skip
	Reverse
	Draw2
	Wild
	WildDraw4
)

// String returns the rank's wire token ("5", "SKIP", "WILD_DRAW4", ...).
func (r Rank) String() string {
	switch {
	case r >= Zero && r <= Nine:
		return strconv.Itoa(int(r))
	case r == Skip:
		return "SKIP"
	case r == Reverse:
		return "REVERSE"
	case r == Draw2:
		return "DRAW2"
	case r == Wild:
		return "WILD"
	case r == WildDraw4:
		return "WILD_DRAW4"
	default:
		return "?"
	}
}

// IsNumber reports whether the rank is a plain number card.
func (r Rank) IsNumber() bool { return r >= Zero && r <= Nine }

// IsWild reports whether the rank is one of the colorless wilds.
func (r Rank) IsWild() bool { return r == Wild || r == WildDraw4 }

// Card is an immutable base-deck card value. Wild cards are colorless and
// their Color field is ignored; everything else pairs a color with a rank.
// Cards are values, not entities. Two equal cards are interchangeable.
type Card struct {
	Color Color
	Rank  Rank
}

// New constructs a colored card.
func New(color Color, rank Rank) Card {
	return Card{Color: color, Rank: rank}
}

// NewWild constructs one of the colorless wilds. Panics if rank is not a wild,
// which indicates a programming error rather than bad input.
func NewWild(rank Rank) Card {
	if !rank.IsWild() {
		panic("card: NewWild called with non-wild rank " + rank.String())
	}
	return Card{Rank: rank}
}

// IsWild reports whether the card is colorless.
func (c Card) IsWild() bool { return c.Rank.IsWild() }

// String returns the wire code for the card: "R-5", "G-SKIP", "WILD",
// "WILD_DRAW4". Wilds carry no color prefix.
func (c Card) String() string {
	if c.IsWild() {
		return c.Rank.String()
	}
	return c.Color.String() + "-" + c.Rank.String()
}

// Parse parses a wire code produced by String back into a Card.
func Parse(s string) (Card, error) {
	switch s {
	case "WILD":
		return Card{Rank: Wild}, nil
	case "WILD_DRAW4":
		return Card{Rank: WildDraw4}, nil
	}

	color, rest, ok := strings.Cut(s, "-")
	if !ok {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	c, err := ParseColor(color)
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}

	switch rest {
	case "SKIP":
		return Card{Color: c, Rank: Skip}, nil
	case "REVERSE":
		return Card{Color: c, Rank: Reverse}, nil
	case "DRAW2":
		return Card{Color: c, Rank: Draw2}, nil
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n > 9 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	return Card{Color: c, Rank: Rank(n)}, nil
}

// MarshalText encodes the card as its wire code.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a wire code.
func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Playable reports whether playing c on top of top is legal given the color
// currently in play. Wilds are always playable. Otherwise the card must match
// the active color, or match the top card's rank (same number or same action).
func Playable(c, top Card, current Color) bool {
	if c.IsWild() {
		return true
	}
	if c.Color == current {
		return true
	}
	// Rank match works across colors: a G-5 on an R-5, a B-SKIP on a Y-SKIP.
	if !top.IsWild() && c.Rank == top.Rank {
		return true
	}
	return false
}
