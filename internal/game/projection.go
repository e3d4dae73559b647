package game

import (
	"time"

	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/randutil"
)

// CardRef wraps a base card for the wire, matching the stored document shape.
type CardRef struct {
	Code card.Card `json:"code"`
}

// PowerCardRef wraps a power card for the wire.
type PowerCardRef struct {
	Code card.PowerCard `json:"code"`
}

// FreezeState is a player's freeze counter as exposed publicly.
type FreezeState struct {
	FrozenTurnsRemaining int `json:"frozenTurnsRemaining"`
}

// Summary is the public projection of a game: everything every player may
// see. It is a full snapshot, not a delta; clients reconcile by comparing
// Version against their last-seen value and discard stale ones.
type Summary struct {
	Status           Status                 `json:"status"`
	Players          []string               `json:"players"`
	Turn             TurnState              `json:"turn"`
	CurrentColor     *card.Color            `json:"currentColor"`
	DiscardTop       *CardRef               `json:"discardTop"`
	PowerDiscardTop  *PowerCardRef          `json:"powerDiscardTop"`
	DrawCount        int                    `json:"drawCount"`
	PowerDrawCount   int                    `json:"powerDrawCount"`
	PowerPoints      map[string]int         `json:"powerPoints"`
	PowerBars        map[string]int         `json:"powerBars"`
	EarnedPowerDraws map[string]int         `json:"earnedPowerDraws"`
	Freezes          map[string]FreezeState `json:"freezes"`
	PendingDraw      int                    `json:"pendingDraw"`
	Winner           *string                `json:"winner"`
	Version          int64                  `json:"version"`
	LastMoveAt       time.Time              `json:"lastMoveAt"`
	CreatedAt        time.Time              `json:"createdAt"`
	CreatedBy        string                 `json:"createdBy"`
}

// HandView is the private projection of one player's hand.
type HandView struct {
	Cards      []card.Card      `json:"cards"`
	PowerCards []card.PowerCard `json:"powerCards"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// HiddenState is the server-only projection: the draw stacks and full
// discard histories, never exposed to clients. Persisted so a reloaded
// engine can keep reshuffling and auditing.
type HiddenState struct {
	BaseDeck           []card.Card      `json:"baseDeck"`
	PowerDeck          []card.PowerCard `json:"powerDeck"`
	BaseDiscard        []card.Card      `json:"baseDiscard"`
	PowerDiscard       []card.PowerCard `json:"powerDiscard"`
	RNGSeed            string           `json:"rngSeed,omitempty"`
	LastAppliedVersion int64            `json:"lastAppliedVersion"`
}

// Summary builds the public snapshot of the current state.
func (g *Game) Summary() Summary {
	s := Summary{
		Status:           g.status,
		Players:          append([]string(nil), g.players...),
		Turn:             g.turn,
		DrawCount:        len(g.baseDeck),
		PowerDrawCount:   len(g.powerDeck),
		PowerPoints:      make(map[string]int, len(g.players)),
		PowerBars:        make(map[string]int, len(g.players)),
		EarnedPowerDraws: make(map[string]int, len(g.players)),
		Freezes:          make(map[string]FreezeState, len(g.players)),
		PendingDraw:      g.pendingDraw,
		Version:          g.version,
		LastMoveAt:       g.lastMoveAt,
		CreatedAt:        g.createdAt,
		CreatedBy:        g.createdBy,
	}

	if g.currentColor != nil {
		c := *g.currentColor
		s.CurrentColor = &c
	}
	top := g.discardTop
	s.DiscardTop = &CardRef{Code: top}
	if g.powerDiscardTop != nil {
		s.PowerDiscardTop = &PowerCardRef{Code: *g.powerDiscardTop}
	}

	for _, p := range g.players {
		s.PowerPoints[p] = g.powerPoints[p]
		// The power bar meters how many power cards the player is holding.
		s.PowerBars[p] = len(g.hands[p].PowerCards)
		s.EarnedPowerDraws[p] = g.earnedDraws[p]
		s.Freezes[p] = FreezeState{FrozenTurnsRemaining: g.freezes[p]}
	}

	if g.winner != "" {
		w := g.winner
		s.Winner = &w
	}
	return s
}

// HandView builds the private projection for one seated player.
func (g *Game) HandView(playerID string) (HandView, error) {
	h, ok := g.hands[playerID]
	if !ok {
		return HandView{}, ErrUnknownPlayer
	}
	return HandView{
		Cards:      append([]card.Card(nil), h.Cards...),
		PowerCards: append([]card.PowerCard(nil), h.PowerCards...),
		UpdatedAt:  g.lastMoveAt,
	}, nil
}

// Hidden builds the server-only projection for persistence.
func (g *Game) Hidden() HiddenState {
	return HiddenState{
		BaseDeck:           append([]card.Card(nil), g.baseDeck...),
		PowerDeck:          append([]card.PowerCard(nil), g.powerDeck...),
		BaseDiscard:        append([]card.Card(nil), g.baseDiscard...),
		PowerDiscard:       append([]card.PowerCard(nil), g.powerDiscard...),
		RNGSeed:            randutil.FormatSeed(g.seed),
		LastAppliedVersion: g.version,
	}
}

// Moves returns a copy of the append-only audit log.
func (g *Game) Moves() []MoveRecord {
	return append([]MoveRecord(nil), g.moves...)
}

// Snapshot bundles every projection the synchronization layer must commit
// as one atomic unit after a mutation.
type Snapshot struct {
	GameID  string
	Summary Summary
	Hands   map[string]HandView
	Hidden  HiddenState
	Record  *MoveRecord
}

// Snapshot captures the full persistent state of the game. Record is the
// latest audit entry, or nil when the log is empty.
func (g *Game) Snapshot() Snapshot {
	hands := make(map[string]HandView, len(g.players))
	for _, p := range g.players {
		hv, _ := g.HandView(p)
		hands[p] = hv
	}
	snap := Snapshot{
		GameID:  g.id,
		Summary: g.Summary(),
		Hands:   hands,
		Hidden:  g.Hidden(),
	}
	if len(g.moves) > 0 {
		rec := g.moves[len(g.moves)-1]
		snap.Record = &rec
	}
	return snap
}
