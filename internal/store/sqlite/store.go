// Package sqlite provides the SQLite-backed game store. SQLite transactions
// give the atomic multi-document commit the engine requires: summary, hands,
// hidden state, and move record land together or not at all.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/powuno/internal/game"
	"github.com/lox/powuno/internal/store"
	"github.com/lox/powuno/internal/store/sqlite/migrations"
)

// Store persists game state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) a SQLite store at path and applies
// embedded migrations. Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would get its own empty in-memory database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateGame persists a freshly initialized game atomically.
func (s *Store) CreateGame(ctx context.Context, snap game.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	summaryDoc, hiddenDoc, handDocs, moveDoc, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	row := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE game_id = ?`, snap.GameID)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("check game: %w", err)
	}
	if exists > 0 {
		return store.ErrAlreadyExists
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (game_id, version, summary, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		snap.GameID, snap.Summary.Version, summaryDoc, now, now,
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	for playerID, doc := range handDocs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hands (game_id, player_id, doc, updated_at) VALUES (?, ?, ?, ?)`,
			snap.GameID, playerID, doc, now,
		); err != nil {
			return fmt.Errorf("insert hand: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO server_state (game_id, doc, updated_at) VALUES (?, ?, ?)`,
		snap.GameID, hiddenDoc, now,
	); err != nil {
		return fmt.Errorf("insert server state: %w", err)
	}
	if moveDoc != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO moves (game_id, version, doc) VALUES (?, ?, ?)`,
			snap.GameID, snap.Record.VersionApplied, moveDoc,
		); err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CommitMove persists the outcome of one accepted move atomically, guarded
// by an optimistic version check against the stored summary.
func (s *Store) CommitMove(ctx context.Context, snap game.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	summaryDoc, hiddenDoc, handDocs, moveDoc, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET version = ?, summary = ?, updated_at = ? WHERE game_id = ? AND version = ?`,
		snap.Summary.Version, summaryDoc, now, snap.GameID, snap.Summary.Version-1,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		row := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE game_id = ?`, snap.GameID)
		if err := row.Scan(&exists); err != nil {
			return fmt.Errorf("check game: %w", err)
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}

	for playerID, doc := range handDocs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hands (game_id, player_id, doc, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (game_id, player_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
			snap.GameID, playerID, doc, now,
		); err != nil {
			return fmt.Errorf("upsert hand: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE server_state SET doc = ?, updated_at = ? WHERE game_id = ?`,
		hiddenDoc, now, snap.GameID,
	); err != nil {
		return fmt.Errorf("update server state: %w", err)
	}
	if moveDoc != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO moves (game_id, version, doc) VALUES (?, ?, ?)`,
			snap.GameID, snap.Record.VersionApplied, moveDoc,
		); err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadGame reads the full persisted state of a game.
func (s *Store) LoadGame(ctx context.Context, gameID string) (store.GameState, error) {
	var state store.GameState

	summary, err := s.LoadSummary(ctx, gameID)
	if err != nil {
		return state, err
	}
	state.Summary = summary

	state.Hands = make(map[string]game.HandView)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player_id, doc FROM hands WHERE game_id = ?`, gameID)
	if err != nil {
		return state, fmt.Errorf("query hands: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var playerID string
		var doc []byte
		if err := rows.Scan(&playerID, &doc); err != nil {
			return state, fmt.Errorf("scan hand: %w", err)
		}
		var hv game.HandView
		if err := json.Unmarshal(doc, &hv); err != nil {
			return state, fmt.Errorf("decode hand: %w", err)
		}
		state.Hands[playerID] = hv
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("iterate hands: %w", err)
	}

	var hiddenDoc []byte
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT doc FROM server_state WHERE game_id = ?`, gameID)
	if err := row.Scan(&hiddenDoc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state, store.ErrNotFound
		}
		return state, fmt.Errorf("query server state: %w", err)
	}
	if err := json.Unmarshal(hiddenDoc, &state.Hidden); err != nil {
		return state, fmt.Errorf("decode server state: %w", err)
	}

	state.Moves, err = s.ListMoves(ctx, gameID)
	if err != nil {
		return state, err
	}
	return state, nil
}

// LoadSummary reads just the public summary.
func (s *Store) LoadSummary(ctx context.Context, gameID string) (game.Summary, error) {
	var doc []byte
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT summary FROM games WHERE game_id = ?`, gameID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Summary{}, store.ErrNotFound
		}
		return game.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	var summary game.Summary
	if err := json.Unmarshal(doc, &summary); err != nil {
		return game.Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

// LoadHand reads one player's private hand.
func (s *Store) LoadHand(ctx context.Context, gameID, playerID string) (game.HandView, error) {
	var doc []byte
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT doc FROM hands WHERE game_id = ? AND player_id = ?`, gameID, playerID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.HandView{}, store.ErrNotFound
		}
		return game.HandView{}, fmt.Errorf("query hand: %w", err)
	}
	var hv game.HandView
	if err := json.Unmarshal(doc, &hv); err != nil {
		return game.HandView{}, fmt.Errorf("decode hand: %w", err)
	}
	return hv, nil
}

// ListMoves reads the audit log in version order.
func (s *Store) ListMoves(ctx context.Context, gameID string) ([]game.MoveRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT doc FROM moves WHERE game_id = ? ORDER BY version ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var moves []game.MoveRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		var rec game.MoveRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode move: %w", err)
		}
		moves = append(moves, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moves: %w", err)
	}
	return moves, nil
}

// encodeSnapshot marshals one snapshot's documents for storage.
func encodeSnapshot(snap game.Snapshot) (summary, hidden []byte, hands map[string][]byte, move []byte, err error) {
	summary, err = json.Marshal(snap.Summary)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode summary: %w", err)
	}
	hidden, err = json.Marshal(snap.Hidden)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode hidden state: %w", err)
	}
	hands = make(map[string][]byte, len(snap.Hands))
	for playerID, hv := range snap.Hands {
		doc, err := json.Marshal(hv)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode hand: %w", err)
		}
		hands[playerID] = doc
	}
	if snap.Record != nil {
		move, err = json.Marshal(snap.Record)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode move: %w", err)
		}
	}
	return summary, hidden, hands, move, nil
}
