package game

import (
	"time"

	"github.com/coder/quartz"

	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/randutil"
)

// Restore rebuilds an in-memory aggregate from its persisted projections,
// typically after an engine restart. The seed recorded in the hidden state
// reseeds the RNG; the shuffle stream position is not recovered, so
// post-restore shuffles differ from a never-restarted run, which only
// matters for deterministic replay of a complete game.
func Restore(gameID string, summary Summary, hands map[string]HandView, hidden HiddenState, moves []MoveRecord, opts ...Option) (*Game, error) {
	if len(summary.Players) < 2 || len(summary.Players) > 4 {
		return nil, ErrInvalidRoster
	}

	g := &Game{
		id:          gameID,
		players:     append([]string(nil), summary.Players...),
		status:      summary.Status,
		turn:        summary.Turn,
		baseDeck:    append([]card.Card(nil), hidden.BaseDeck...),
		powerDeck:   append([]card.PowerCard(nil), hidden.PowerDeck...),
		baseDiscard: append([]card.Card(nil), hidden.BaseDiscard...),
		powerDiscard: append([]card.PowerCard(nil),
			hidden.PowerDiscard...),
		hands:       make(map[string]*Hand, len(summary.Players)),
		powerPoints: make(map[string]int, len(summary.Players)),
		earnedDraws: make(map[string]int, len(summary.Players)),
		freezes:     make(map[string]int, len(summary.Players)),
		pendingDraw: summary.PendingDraw,
		version:     summary.Version,
		createdBy:   summary.CreatedBy,
		createdAt:   summary.CreatedAt,
		lastMoveAt:  summary.LastMoveAt,
		threshold:   card.PowerThreshold,
		moves:       append([]MoveRecord(nil), moves...),
		applied:     make(map[string]*Result),
		clock:       quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if summary.CurrentColor != nil {
		c := *summary.CurrentColor
		g.currentColor = &c
	}
	if summary.DiscardTop != nil {
		g.discardTop = summary.DiscardTop.Code
	} else if n := len(g.baseDiscard); n > 0 {
		g.discardTop = g.baseDiscard[n-1]
	}
	if summary.PowerDiscardTop != nil {
		p := summary.PowerDiscardTop.Code
		g.powerDiscardTop = &p
	}
	if summary.Winner != nil {
		g.winner = *summary.Winner
	}

	for _, p := range summary.Players {
		hv, ok := hands[p]
		if !ok {
			return nil, ErrUnknownPlayer
		}
		g.hands[p] = &Hand{
			Cards:      append([]card.Card(nil), hv.Cards...),
			PowerCards: append([]card.PowerCard(nil), hv.PowerCards...),
		}
		g.powerPoints[p] = summary.PowerPoints[p]
		g.earnedDraws[p] = summary.EarnedPowerDraws[p]
		g.freezes[p] = summary.Freezes[p].FrozenTurnsRemaining
	}

	if seed, ok := randutil.ParseSeed(hidden.RNGSeed); ok {
		g.seed = seed
	} else {
		g.seed = time.Now().UnixNano()
	}
	g.rng = randutil.New(g.seed)

	// Replays of moves applied before the restart return the current
	// snapshot. The summary is full-state, so last-wins reconciliation
	// holds and the retried client still converges.
	for _, rec := range g.moves {
		if rec.ClientMoveID == "" {
			continue
		}
		hand, _ := g.HandView(rec.By)
		g.applied[appliedKey(rec.By, rec.ClientMoveID)] = &Result{
			Summary: g.Summary(),
			Hand:    hand,
			Record:  rec,
		}
	}

	return g, nil
}
