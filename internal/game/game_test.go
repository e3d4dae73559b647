package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/powuno/internal/card"
)

func newTestGame(t *testing.T, players ...string) *Game {
	t.Helper()
	g, err := New("game-1", players, players[0], WithSeed(42))
	require.NoError(t, err)
	return g
}

// forceTop pins the discard top to a known card so tests can script exact
// plays. Wild tops leave the active color unresolved.
func forceTop(g *Game, top card.Card) {
	g.discardTop = top
	g.baseDiscard = []card.Card{top}
	if top.IsWild() {
		g.currentColor = nil
	} else {
		c := top.Color
		g.currentColor = &c
	}
}

func giveCards(g *Game, player string, cards ...card.Card) {
	g.hands[player].Cards = append([]card.Card(nil), cards...)
}

func setTurn(g *Game, player string) {
	g.turn.Index = g.seatOf(player)
}

func TestNewGameInvariants(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, "alice", "bob", "carol")

	assert.Equal(t, StatusActive, g.Status())
	assert.Equal(t, int64(0), g.Version())
	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Players())
	assert.Equal(t, "alice", g.CurrentPlayer())

	for _, p := range g.Players() {
		hand, err := g.HandView(p)
		require.NoError(t, err)
		assert.Len(t, hand.Cards, 7)
		assert.Empty(t, hand.PowerCards)
	}

	// Every base card is accounted for: deck + discard + hands = 108.
	total := len(g.baseDeck) + len(g.baseDiscard)
	for _, h := range g.hands {
		total += len(h.Cards)
	}
	assert.Equal(t, 108, total)

	// The initial discard is never a WILD_DRAW4.
	assert.NotEqual(t, card.WildDraw4, g.discardTop.Rank)

	// A colored flip fixes the opening color.
	if !g.discardTop.IsWild() {
		require.NotNil(t, g.currentColor)
		assert.Equal(t, g.discardTop.Color, *g.currentColor)
	} else {
		assert.Nil(t, g.currentColor)
	}

	// Genesis audit entry records the flip at version zero.
	moves := g.Moves()
	require.Len(t, moves, 1)
	assert.Equal(t, int64(0), moves[0].VersionApplied)
	require.NotNil(t, moves[0].Payload.BaseCard)
	assert.Equal(t, g.discardTop, *moves[0].Payload.BaseCard)
}

func TestNewGameSeedDeterminism(t *testing.T) {
	t.Parallel()

	a, err := New("g", []string{"p1", "p2"}, "p1", WithSeed(7))
	require.NoError(t, err)
	b, err := New("g", []string{"p1", "p2"}, "p1", WithSeed(7))
	require.NoError(t, err)

	ah, _ := a.HandView("p1")
	bh, _ := b.HandView("p1")
	assert.Equal(t, bh.Cards, ah.Cards)
	assert.Equal(t, b.discardTop, a.discardTop)
}

func TestNewGameRosterValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		players []string
	}{
		{"too few", []string{"alice"}},
		{"too many", []string{"a", "b", "c", "d", "e"}},
		{"duplicate", []string{"alice", "bob", "alice"}},
		{"empty id", []string{"alice", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("g", tc.players, "alice")
			assert.ErrorIs(t, err, ErrInvalidRoster)
		})
	}
}

func TestSummaryProjection(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, "alice", "bob")
	g.powerPoints["alice"] = 3
	g.earnedDraws["bob"] = 1
	g.freezes["bob"] = 2
	g.hands["alice"].PowerCards = []card.PowerCard{card.Freeze, card.Whirlwind}

	s := g.Summary()

	assert.Equal(t, 3, s.PowerPoints["alice"])
	assert.Equal(t, 1, s.EarnedPowerDraws["bob"])
	assert.Equal(t, 2, s.Freezes["bob"].FrozenTurnsRemaining)
	assert.Equal(t, 2, s.PowerBars["alice"])
	assert.Equal(t, 0, s.PowerBars["bob"])
	assert.Equal(t, len(g.baseDeck), s.DrawCount)
	assert.Equal(t, len(g.powerDeck), s.PowerDrawCount)
	assert.Nil(t, s.Winner)
	require.NotNil(t, s.DiscardTop)
	assert.Equal(t, g.discardTop, s.DiscardTop.Code)

	// The public projection never leaks hidden stacks or other hands.
	hidden := g.Hidden()
	assert.Len(t, hidden.BaseDeck, s.DrawCount)
}

func TestSummaryIsACopy(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, "alice", "bob")

	s := g.Summary()
	s.PowerPoints["alice"] = 99
	s.Players[0] = "mallory"

	assert.Equal(t, 0, g.powerPoints["alice"])
	assert.Equal(t, "alice", g.players[0])
}

func TestRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, "alice", "bob")
	forceTop(g, card.New(card.Red, card.Three))
	giveCards(g, "alice", card.New(card.Red, card.Five), card.New(card.Blue, card.Nine))

	_, err := g.Apply(Move{
		By: "alice", Kind: MovePlayBase,
		Card:         ptr(card.New(card.Red, card.Five)),
		ClientMoveID: "m1",
	})
	require.NoError(t, err)

	snap := g.Snapshot()
	restored, err := Restore(g.ID(), snap.Summary, snap.Hands, snap.Hidden, g.Moves())
	require.NoError(t, err)

	assert.Equal(t, g.Version(), restored.Version())
	assert.Equal(t, g.Summary(), restored.Summary())
	rh, err := restored.HandView("alice")
	require.NoError(t, err)
	gh, _ := g.HandView("alice")
	assert.Equal(t, gh.Cards, rh.Cards)

	// A replayed submission against the restored engine still short-circuits.
	res, err := restored.Apply(Move{
		By: "alice", Kind: MovePlayBase,
		Card:         ptr(card.New(card.Red, card.Five)),
		ClientMoveID: "m1",
	})
	require.NoError(t, err)
	assert.Equal(t, restored.Version(), res.Summary.Version)

	// And the restored engine keeps accepting fresh moves.
	giveCards(restored, "bob", card.New(card.Red, card.Seven))
	_, err = restored.Apply(Move{
		By: "bob", Kind: MovePlayBase,
		Card: ptr(card.New(card.Red, card.Seven)),
	})
	require.NoError(t, err)
	assert.Equal(t, g.Version()+1, restored.Version())
}

func ptr[T any](v T) *T { return &v }
