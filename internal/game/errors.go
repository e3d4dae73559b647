package game

import "errors"

// Rejection errors. Every one of these leaves the game state unchanged,
// with the single exception of ErrPlayerFrozen, which consumes one unit of
// the offender's freeze counter per rejected own-turn attempt.
var (
	// ErrInvalidRoster indicates a bad player count or duplicate ids at
	// creation time. No game state is created.
	ErrInvalidRoster = errors.New("game: roster must be 2-4 distinct players")

	// ErrNotYourTurn indicates the submitting player does not own the turn.
	ErrNotYourTurn = errors.New("game: not your turn")

	// ErrIllegalMove indicates the move is malformed or the card is not
	// legal against the discard top and current color.
	ErrIllegalMove = errors.New("game: illegal move")

	// ErrPendingDrawUnresolved indicates the player tried to act while a
	// forced-draw penalty is outstanding.
	ErrPendingDrawUnresolved = errors.New("game: pending draw must be resolved first")

	// ErrPlayerFrozen indicates the player is frozen and cannot take
	// turn-consuming moves.
	ErrPlayerFrozen = errors.New("game: player is frozen")

	// ErrGameOver indicates the game is finished; no further moves are
	// accepted.
	ErrGameOver = errors.New("game: game is over")

	// ErrUnknownPlayer indicates a move or lookup referenced an id outside
	// the seated roster.
	ErrUnknownPlayer = errors.New("game: unknown player")
)
