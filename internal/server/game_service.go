package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/powuno/internal/auth"
	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/game"
	"github.com/lox/powuno/internal/gameid"
	"github.com/lox/powuno/internal/store"
)

// Roster limits for a single game.
const (
	MinPlayers = 2
	MaxPlayers = 4
)

var (
	ErrNotInGame = errors.New("server: user is not a player in this game")
	ErrBadRoster = errors.New("server: roster must contain 2 to 4 distinct players")
)

// Broadcaster multicasts a message to every connection joined to a game room.
type Broadcaster interface {
	BroadcastToGame(gameID string, msg *Message)
}

// gameRuntime is the in-memory authority for one active game. All mutations
// to a game pass through its mutex, which gives each game a single total
// order of moves regardless of how many connections submit concurrently.
type gameRuntime struct {
	mu   sync.Mutex
	game *game.Game
}

// GameServiceConfig tunes game creation.
type GameServiceConfig struct {
	// Seed fixes the RNG seed for every created game. Zero means each game
	// gets its own seed from the wall clock.
	Seed            int64
	PowerDeckCopies int
	PowerThreshold  int
}

// GameService owns game lifecycle and move resolution. Durable state lives
// in the store; the runtime map is a write-through cache that is rebuilt
// from the store on demand, so a restart loses nothing but warm state.
type GameService struct {
	store       store.Store
	validator   auth.Validator
	logger      *log.Logger
	config      GameServiceConfig
	broadcaster Broadcaster

	mu       sync.Mutex
	runtimes map[string]*gameRuntime
}

// NewGameService creates a game service backed by the given store.
func NewGameService(st store.Store, validator auth.Validator, logger *log.Logger, config GameServiceConfig) *GameService {
	return &GameService{
		store:     st,
		validator: validator,
		logger:    logger.WithPrefix("game"),
		config:    config,
		runtimes:  make(map[string]*gameRuntime),
	}
}

// SetBroadcaster attaches the room multicast sink. Called once during server
// construction; nil broadcasts are dropped.
func (gs *GameService) SetBroadcaster(b Broadcaster) {
	gs.broadcaster = b
}

// Authenticate resolves a token (or a claimed user ID in dev mode) to a
// verified user ID.
func (gs *GameService) Authenticate(ctx context.Context, token, claimedUserID string) (string, error) {
	identity, err := gs.validator.Validate(ctx, token)
	if err != nil {
		return "", err
	}
	if identity == nil {
		// Auth disabled: trust the claimed ID, but require one.
		if claimedUserID == "" {
			return "", errors.New("server: userId required when auth is disabled")
		}
		return claimedUserID, nil
	}
	return identity.UserID, nil
}

// StartGame creates a new game for the given roster. The caller is always a
// player; duplicates are collapsed before the size check.
func (gs *GameService) StartGame(ctx context.Context, creatorID string, players []string) (string, *game.Summary, error) {
	roster := normalizeRoster(creatorID, players)
	if len(roster) < MinPlayers || len(roster) > MaxPlayers {
		return "", nil, ErrBadRoster
	}

	gameID := gameid.Generate()

	opts := []game.Option{}
	seed := gs.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts = append(opts, game.WithSeed(seed))
	if gs.config.PowerDeckCopies > 0 {
		opts = append(opts, game.WithPowerDeckCopies(gs.config.PowerDeckCopies))
	}
	if gs.config.PowerThreshold > 0 {
		opts = append(opts, game.WithPowerThreshold(gs.config.PowerThreshold))
	}

	g, err := game.New(gameID, roster, creatorID, opts...)
	if err != nil {
		return "", nil, err
	}

	if err := gs.store.CreateGame(ctx, g.Snapshot()); err != nil {
		return "", nil, fmt.Errorf("persist new game: %w", err)
	}

	gs.mu.Lock()
	gs.runtimes[gameID] = &gameRuntime{game: g}
	gs.mu.Unlock()

	summary := g.Summary()
	gs.logger.Info("Game started", "game", gameID, "players", roster, "by", creatorID)
	return gameID, &summary, nil
}

// JoinGame validates membership and returns the current summary along with
// the caller's private hand. It is also the reconnect path: the snapshot it
// returns carries the version the client reconciles against.
func (gs *GameService) JoinGame(ctx context.Context, gameID, userID string) (game.Summary, *game.HandView, error) {
	rt, err := gs.runtime(ctx, gameID)
	if err != nil {
		return game.Summary{}, nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !isPlayer(rt.game.Players(), userID) {
		return game.Summary{}, nil, ErrNotInGame
	}

	summary := rt.game.Summary()
	hand, err := rt.game.HandView(userID)
	if err != nil {
		return summary, nil, nil
	}
	return summary, &hand, nil
}

// Hand returns the caller's private hand view.
func (gs *GameService) Hand(ctx context.Context, gameID, userID string) (game.HandView, error) {
	rt, err := gs.runtime(ctx, gameID)
	if err != nil {
		return game.HandView{}, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.game.HandView(userID)
}

// SubmitMove resolves one move under the game's mutex: apply to the engine,
// commit the resulting snapshot with a version precondition, then broadcast.
// A rejected move mutates nothing and nothing is persisted or broadcast.
func (gs *GameService) SubmitMove(ctx context.Context, data SubmitMoveData, userID string) (*game.Result, error) {
	move, err := parseMove(data, userID)
	if err != nil {
		return nil, err
	}

	rt, err := gs.runtime(ctx, data.GameID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	before := rt.game.Version()
	result, err := rt.game.Apply(move)
	if err != nil {
		return nil, err
	}

	if rt.game.Version() == before {
		// Idempotent replay of an already-applied move. The store already
		// holds this state; just hand the cached result back.
		return result, nil
	}

	snap := rt.game.Snapshot()
	if err := gs.store.CommitMove(ctx, snap); err != nil {
		// The runtime is now ahead of the durable store. Evict it so the
		// next access rebuilds from what was actually persisted.
		gs.evict(data.GameID)
		return nil, fmt.Errorf("persist move: %w", err)
	}

	gs.logger.Info("Move applied",
		"game", data.GameID, "by", userID, "kind", move.Kind,
		"version", snap.Summary.Version)

	gs.BroadcastState(data.GameID, snap.Summary)
	return result, nil
}

// BroadcastState multicasts a full game summary to the room.
func (gs *GameService) BroadcastState(gameID string, summary game.Summary) {
	if gs.broadcaster == nil {
		return
	}
	msg, err := NewMessage(MessageTypeGameState, GameStateData{GameID: gameID, Game: summary})
	if err != nil {
		gs.logger.Error("Failed to encode game state", "error", err)
		return
	}
	gs.broadcaster.BroadcastToGame(gameID, msg)
}

// runtime returns the in-memory runtime for a game, restoring it from the
// store if this process has never touched the game (or evicted it).
func (gs *GameService) runtime(ctx context.Context, gameID string) (*gameRuntime, error) {
	gs.mu.Lock()
	if rt, ok := gs.runtimes[gameID]; ok {
		gs.mu.Unlock()
		return rt, nil
	}
	gs.mu.Unlock()

	state, err := gs.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var opts []game.Option
	if gs.config.PowerThreshold > 0 {
		opts = append(opts, game.WithPowerThreshold(gs.config.PowerThreshold))
	}
	g, err := game.Restore(gameID, state.Summary, state.Hands, state.Hidden, state.Moves, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", gameID, err)
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()
	// Lost the race with another restorer? Keep theirs.
	if rt, ok := gs.runtimes[gameID]; ok {
		return rt, nil
	}
	rt := &gameRuntime{game: g}
	gs.runtimes[gameID] = rt
	return rt, nil
}

func (gs *GameService) evict(gameID string) {
	gs.mu.Lock()
	delete(gs.runtimes, gameID)
	gs.mu.Unlock()
}

// parseMove converts wire move data into an engine move. The actor is the
// authenticated connection user, never a field of the payload.
func parseMove(data SubmitMoveData, userID string) (game.Move, error) {
	kind, err := game.ParseMoveKind(data.Kind)
	if err != nil {
		return game.Move{}, err
	}

	move := game.Move{
		By:           userID,
		Kind:         kind,
		TargetID:     data.TargetUserID,
		ClientMoveID: data.ClientMoveID,
	}

	if data.BaseCard != "" {
		c, err := card.Parse(data.BaseCard)
		if err != nil {
			return game.Move{}, err
		}
		move.Card = &c
	}
	if data.ChosenColor != "" {
		col, err := card.ParseColor(data.ChosenColor)
		if err != nil {
			return game.Move{}, err
		}
		move.ChosenColor = &col
	}
	if data.PowerCard != "" {
		p, err := card.ParsePower(data.PowerCard)
		if err != nil {
			return game.Move{}, err
		}
		move.PowerCard = &p
	}

	return move, nil
}

func normalizeRoster(creatorID string, players []string) []string {
	seen := map[string]bool{}
	roster := make([]string, 0, len(players)+1)
	for _, id := range append([]string{creatorID}, players...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		roster = append(roster, id)
	}
	return roster
}

func isPlayer(players []string, userID string) bool {
	for _, p := range players {
		if p == userID {
			return true
		}
	}
	return false
}
