package game

import (
	"fmt"
	"time"

	"github.com/lox/powuno/internal/card"
)

// MoveKind discriminates the five accepted move kinds.
type MoveKind int

const (
	MovePlayBase MoveKind = iota
	MoveDrawBase
	MoveSetColor
	MoveDrawPower
	MovePlayPower
)

// String returns the wire form of the move kind.
func (k MoveKind) String() string {
	switch k {
	case MovePlayBase:
		return "PLAY_BASE"
	case MoveDrawBase:
		return "DRAW_BASE"
	case MoveSetColor:
		return "SET_COLOR"
	case MoveDrawPower:
		return "DRAW_POWER"
	case MovePlayPower:
		return "PLAY_POWER"
	default:
		return "?"
	}
}

// ParseMoveKind parses a wire form move kind.
func ParseMoveKind(s string) (MoveKind, error) {
	switch s {
	case "PLAY_BASE":
		return MovePlayBase, nil
	case "DRAW_BASE":
		return MoveDrawBase, nil
	case "SET_COLOR":
		return MoveSetColor, nil
	case "DRAW_POWER":
		return MoveDrawPower, nil
	case "PLAY_POWER":
		return MovePlayPower, nil
	default:
		return 0, fmt.Errorf("invalid move kind %q", s)
	}
}

// MarshalText encodes the move kind as its wire form.
func (k MoveKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a wire form.
func (k *MoveKind) UnmarshalText(b []byte) error {
	parsed, err := ParseMoveKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Move is one submitted state transition. Which payload fields matter
// depends on the kind; unused fields are ignored.
type Move struct {
	By   string
	Kind MoveKind

	// PLAY_BASE: the card played; ChosenColor required when it is a wild
	// (or supplied later via SET_COLOR).
	Card        *card.Card
	ChosenColor *card.Color

	// PLAY_POWER: the power card and, for FREEZE/SWAP_HANDS, the target.
	// COLOR_RUSH reuses ChosenColor.
	PowerCard *card.PowerCard
	TargetID  string

	// ClientMoveID is the client-supplied idempotency token. Resubmitting
	// a move with a token the engine has already applied returns the
	// original result instead of re-applying.
	ClientMoveID string
}

// MovePayload is the audit-log description of what a move did.
type MovePayload struct {
	BaseCard     *card.Card      `json:"baseCard,omitempty"`
	ChosenColor  *card.Color     `json:"chosenColor,omitempty"`
	PowerCard    *card.PowerCard `json:"powerCard,omitempty"`
	TargetUserID *string         `json:"targetUserId,omitempty"`
	DrawAmount   *int            `json:"drawAmount,omitempty"`
}

// MoveRecord is one append-only audit entry, immutable once written.
type MoveRecord struct {
	By             string      `json:"by"`
	Kind           MoveKind    `json:"kind"`
	Payload        MovePayload `json:"payload"`
	ClientMoveID   string      `json:"clientMoveId,omitempty"`
	At             time.Time   `json:"at"`
	VersionApplied int64       `json:"versionApplied"`
}

// Result is what one accepted move produces: the new public summary for
// broadcast, the actor's updated private hand, and the audit record.
// Results are cached per idempotency token and returned unchanged on replay.
type Result struct {
	Summary Summary
	Hand    HandView
	Record  MoveRecord
}
