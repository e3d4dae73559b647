package card

import "fmt"

// PowerCard is one of the special-effect cards drawn from the power deck.
type PowerCard int

const (
	CardRush  PowerCard = iota // every other player draws 2 base cards
	Freeze                     // target skips their next two turns
	ColorRush                  // discard all cards of a chosen color
	SwapHands                  // exchange base hands with a target
	Whirlwind                  // pool, shuffle and redeal every hand
)

// PowerCards lists every power kind in a fixed order, used for deck
// construction.
var PowerCards = []PowerCard{CardRush, Freeze, ColorRush, SwapHands, Whirlwind}

// String returns the power card's wire code.
func (p PowerCard) String() string {
	switch p {
	case CardRush:
		return "POWER_CARD_RUSH"
	case Freeze:
		return "POWER_FREEZE"
	case ColorRush:
		return "POWER_COLOR_RUSH"
	case SwapHands:
		return "POWER_SWAP_HANDS"
	case Whirlwind:
		return "POWER_WHIRLWIND"
	default:
		return "?"
	}
}

// ParsePower parses a power card wire code.
func ParsePower(s string) (PowerCard, error) {
	for _, p := range PowerCards {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid power card %q", s)
}

// MarshalText encodes the power card as its wire code.
func (p PowerCard) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a wire code.
func (p *PowerCard) UnmarshalText(b []byte) error {
	parsed, err := ParsePower(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PowerThreshold is the number of power points a player must accumulate to
// earn one power-card draw. Points past the threshold carry over.
const PowerThreshold = 4

// PowerPoints returns the points awarded for playing an action card.
// Plain number cards award nothing.
func PowerPoints(r Rank) int {
	switch r {
	case Skip, Reverse:
		return 1
	case Draw2, Wild:
		return 2
	case WildDraw4:
		return 3
	default:
		return 0
	}
}
