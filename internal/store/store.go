// Package store defines the persistence contract for game state. The engine
// is the source of truth; the store is its durable mirror, written one
// atomic multi-document commit per accepted move.
package store

import (
	"context"
	"errors"

	"github.com/lox/powuno/internal/game"
)

var (
	// ErrNotFound indicates the requested game or document is missing.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists indicates a game with this id was already created.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrVersionConflict indicates the commit's version is not exactly one
	// ahead of the stored version. The caller recomputes from the durable
	// snapshot or surfaces the conflict.
	ErrVersionConflict = errors.New("store: version conflict")
)

// GameState is everything the store holds for one game.
type GameState struct {
	Summary game.Summary
	Hands   map[string]game.HandView
	Hidden  game.HiddenState
	Moves   []game.MoveRecord
}

// Store persists game snapshots. Every write method lands all of its
// documents or none of them.
type Store interface {
	// CreateGame persists a freshly initialized game: summary, all hands,
	// hidden state, and the genesis move entry, atomically.
	// Returns ErrAlreadyExists if the id is taken.
	CreateGame(ctx context.Context, snap game.Snapshot) error

	// CommitMove persists the outcome of one accepted move: the new
	// summary, every hand, the hidden state, and the appended move record,
	// atomically. The stored version must be exactly snap.Summary.Version-1
	// or ErrVersionConflict is returned and nothing is written.
	CommitMove(ctx context.Context, snap game.Snapshot) error

	// LoadGame reads the full persisted state of a game.
	LoadGame(ctx context.Context, gameID string) (GameState, error)

	// LoadSummary reads just the public summary.
	LoadSummary(ctx context.Context, gameID string) (game.Summary, error)

	// LoadHand reads one player's private hand.
	LoadHand(ctx context.Context, gameID, playerID string) (game.HandView, error)

	// ListMoves reads the audit log in version order.
	ListMoves(ctx context.Context, gameID string) ([]game.MoveRecord, error)

	// Close releases the underlying resources.
	Close() error
}
