// Package game implements the authoritative rule engine: deck deal-out,
// turn progression, power-card economy, pending-draw stacking, win
// detection, and the idempotent move application that makes at-least-once
// delivery from the transport safe.
//
// A Game is a single mutation-ordering domain. Callers must serialize calls
// into one Game instance; distinct games are fully independent.
package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/deck"
	"github.com/lox/powuno/internal/randutil"
)

// Status is the lifecycle state of a game.
type Status int

const (
	StatusActive Status = iota
	StatusPaused
	StatusFinished
)

// String returns the wire form of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusFinished:
		return "finished"
	default:
		return "?"
	}
}

// MarshalText encodes the status as its wire form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a wire form.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = StatusActive
	case "paused":
		*s = StatusPaused
	case "finished":
		*s = StatusFinished
	default:
		return ErrIllegalMove
	}
	return nil
}

// TurnState is the turn pointer: the current seat index plus play direction.
type TurnState struct {
	Index     int `json:"index"`
	Direction int `json:"direction"` // 1 clockwise, -1 counterclockwise
}

// Hand is one player's private state. Power cards are held separately and
// do not count toward hand size or the win condition.
type Hand struct {
	Cards      []card.Card
	PowerCards []card.PowerCard
}

// Game is the aggregate root. All fields are private; the state leaves the
// package only through the Summary/HandView/Hidden projections.
type Game struct {
	id      string
	players []string
	status  Status
	turn    TurnState

	currentColor    *card.Color
	discardTop      card.Card
	powerDiscardTop *card.PowerCard

	// Hidden stacks. Discard slices are full histories with the top at the
	// end, so reshuffles can recycle everything below the top.
	baseDeck     []card.Card
	powerDeck    []card.PowerCard
	baseDiscard  []card.Card
	powerDiscard []card.PowerCard

	hands       map[string]*Hand
	powerPoints map[string]int
	earnedDraws map[string]int
	freezes     map[string]int

	pendingDraw int
	version     int64
	winner      string

	createdBy  string
	createdAt  time.Time
	lastMoveAt time.Time

	seed        int64
	rng         *rand.Rand
	threshold   int
	powerCopies int

	moves   []MoveRecord
	applied map[string]*Result

	clock quartz.Clock
}

// Option customises game construction.
type Option func(*Game)

// WithSeed fixes the RNG seed so shuffles are reproducible. The seed is
// recorded in the hidden state for replay.
func WithSeed(seed int64) Option {
	return func(g *Game) {
		g.seed = seed
	}
}

// WithClock substitutes the wall clock, for tests.
func WithClock(clock quartz.Clock) Option {
	return func(g *Game) {
		g.clock = clock
	}
}

// WithPowerDeckCopies tunes how many copies of each power kind the power
// deck holds.
func WithPowerDeckCopies(copies int) Option {
	return func(g *Game) {
		g.powerCopies = copies
	}
}

// WithPowerThreshold tunes the point threshold for earning a power draw.
func WithPowerThreshold(threshold int) Option {
	return func(g *Game) {
		if threshold > 0 {
			g.threshold = threshold
		}
	}
}

// New assembles the complete initial state for a validated roster: both
// decks built and shuffled, seven base cards per seat, the initial discard
// flipped, counters zeroed, and a genesis audit entry recording the flip.
func New(id string, playerIDs []string, creatorID string, opts ...Option) (*Game, error) {
	if len(playerIDs) < 2 || len(playerIDs) > 4 {
		return nil, ErrInvalidRoster
	}
	seen := make(map[string]bool, len(playerIDs))
	for _, p := range playerIDs {
		if p == "" || seen[p] {
			return nil, ErrInvalidRoster
		}
		seen[p] = true
	}

	g := &Game{
		id:          id,
		players:     append([]string(nil), playerIDs...),
		status:      StatusActive,
		turn:        TurnState{Index: 0, Direction: 1},
		hands:       make(map[string]*Hand, len(playerIDs)),
		powerPoints: make(map[string]int, len(playerIDs)),
		earnedDraws: make(map[string]int, len(playerIDs)),
		freezes:     make(map[string]int, len(playerIDs)),
		createdBy:   creatorID,
		seed:        time.Now().UnixNano(),
		threshold:   card.PowerThreshold,
		applied:     make(map[string]*Result),
		clock:       quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.rng = randutil.New(g.seed)
	g.createdAt = g.clock.Now().UTC()
	g.lastMoveAt = g.createdAt

	baseShuffled := deck.Shuffle(g.rng, deck.NewBase())
	powerShuffled := deck.Shuffle(g.rng, deck.NewPower(g.powerCopies))

	hands, remaining, err := deck.Deal(baseShuffled, len(playerIDs), deck.HandSize)
	if err != nil {
		return nil, err
	}
	for i, p := range playerIDs {
		g.hands[p] = &Hand{Cards: hands[i]}
	}

	flipped, remaining := deck.FlipInitialDiscard(remaining)
	g.baseDeck = remaining
	g.powerDeck = powerShuffled
	g.discardTop = flipped
	g.baseDiscard = []card.Card{flipped}

	// A colored flip fixes the opening color. A wild flip leaves it unset
	// until the first player resolves it with SET_COLOR.
	if !flipped.IsWild() {
		c := flipped.Color
		g.currentColor = &c
	}

	g.moves = append(g.moves, MoveRecord{
		By:             creatorID,
		Kind:           MovePlayBase,
		Payload:        MovePayload{BaseCard: &flipped},
		At:             g.createdAt,
		VersionApplied: 0,
	})

	return g, nil
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

// Players returns the fixed seating order.
func (g *Game) Players() []string {
	return append([]string(nil), g.players...)
}

// Status returns the lifecycle status.
func (g *Game) Status() Status { return g.status }

// Version returns the version of the last committed state.
func (g *Game) Version() int64 { return g.version }

// Winner returns the winner id, or "" while the game is running.
func (g *Game) Winner() string { return g.winner }

// CurrentPlayer returns the id of the seat owning the turn.
func (g *Game) CurrentPlayer() string {
	return g.players[g.turn.Index]
}

// seatOf returns the seat index of a player, or -1.
func (g *Game) seatOf(id string) int {
	for i, p := range g.players {
		if p == id {
			return i
		}
	}
	return -1
}

// advance moves the turn pointer steps seats in the current direction.
func (g *Game) advance(steps int) {
	n := len(g.players)
	g.turn.Index = ((g.turn.Index+steps*g.turn.Direction)%n + n) % n
}

// now returns the injected clock's current UTC time.
func (g *Game) now() time.Time {
	return g.clock.Now().UTC()
}
