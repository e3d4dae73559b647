package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/game"
	"github.com/lox/powuno/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestGame(t *testing.T, id string) *game.Game {
	t.Helper()
	g, err := game.New(id, []string{"alice", "bob"}, "alice", game.WithSeed(42))
	require.NoError(t, err)
	return g
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
	_, err = Open("   ")
	assert.Error(t, err)
}

func TestCreateAndLoadGame(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")

	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))

	state, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)

	assert.Equal(t, g.Summary(), state.Summary)
	assert.Equal(t, g.Hidden(), state.Hidden)
	require.Len(t, state.Hands, 2)
	want, _ := g.HandView("alice")
	assert.Equal(t, want.Cards, state.Hands["alice"].Cards)
	require.Len(t, state.Moves, 1)
	assert.Equal(t, int64(0), state.Moves[0].VersionApplied)
}

func TestCreateGameTwice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")

	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))
	err := s.CreateGame(ctx, g.Snapshot())
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestLoadMissingGame(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LoadGame(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.LoadSummary(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.LoadHand(ctx, "nope", "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommitMoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")
	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))

	// Drive one real move through the engine and commit the snapshot.
	applyAnyMove(t, g)
	require.NoError(t, s.CommitMove(ctx, g.Snapshot()))

	state, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, g.Version(), state.Summary.Version)
	assert.Equal(t, g.Summary(), state.Summary)
	require.Len(t, state.Moves, 2)
	assert.Equal(t, int64(1), state.Moves[1].VersionApplied)
}

func TestCommitMoveVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")
	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))

	applyAnyMove(t, g)
	snap := g.Snapshot()
	require.NoError(t, s.CommitMove(ctx, snap))

	// Replaying the same snapshot fails the version precondition, and the
	// stored state is untouched.
	err := s.CommitMove(ctx, snap)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	state, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, snap.Summary.Version, state.Summary.Version)
	assert.Len(t, state.Moves, 2)
}

func TestCommitMoveMissingGame(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")
	applyAnyMove(t, g)

	err := s.CommitMove(ctx, g.Snapshot())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListMovesOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")
	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))

	for i := 0; i < 3; i++ {
		applyAnyMove(t, g)
		require.NoError(t, s.CommitMove(ctx, g.Snapshot()))
	}

	moves, err := s.ListMoves(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, moves, 4)
	for i, m := range moves {
		assert.Equal(t, int64(i), m.VersionApplied)
	}
}

func TestRestoreFromStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newTestGame(t, "g1")
	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))

	applyAnyMove(t, g)
	require.NoError(t, s.CommitMove(ctx, g.Snapshot()))

	state, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)

	restored, err := game.Restore("g1", state.Summary, state.Hands, state.Hidden, state.Moves)
	require.NoError(t, err)
	assert.Equal(t, g.Version(), restored.Version())
	assert.Equal(t, g.Summary(), restored.Summary())
}

// applyAnyMove advances the game by one accepted move: the first playable
// card if there is one, otherwise a draw.
func applyAnyMove(t *testing.T, g *game.Game) {
	t.Helper()
	actor := g.CurrentPlayer()
	summary := g.Summary()

	if summary.CurrentColor == nil {
		_, err := g.Apply(game.Move{By: actor, Kind: game.MoveSetColor, ChosenColor: ptr(card.Red)})
		require.NoError(t, err)
		return
	}

	hand, err := g.HandView(actor)
	require.NoError(t, err)
	for _, c := range hand.Cards {
		if card.Playable(c, summary.DiscardTop.Code, *summary.CurrentColor) {
			move := game.Move{By: actor, Kind: game.MovePlayBase, Card: ptr(c)}
			if c.IsWild() {
				move.ChosenColor = ptr(card.Green)
			}
			if _, err := g.Apply(move); err == nil {
				return
			}
		}
	}
	_, err = g.Apply(game.Move{By: actor, Kind: game.MoveDrawBase})
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }
