package server

import (
	"encoding/json"
	"time"

	"github.com/lox/powuno/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"userId,omitempty"` // dev mode only, ignored when a validator is configured
}

type JoinGameData struct {
	GameID string `json:"gameId"`
}

type StartGameData struct {
	Players []string `json:"players"`
}

// SubmitMoveData carries one move submission. Kind selects which of the
// optional payload fields apply; ClientMoveID is the idempotency token the
// client reuses on retry.
type SubmitMoveData struct {
	GameID       string `json:"gameId"`
	Kind         string `json:"kind"`
	BaseCard     string `json:"baseCard,omitempty"`
	ChosenColor  string `json:"chosenColor,omitempty"`
	PowerCard    string `json:"powerCard,omitempty"`
	TargetUserID string `json:"targetUserId,omitempty"`
	ClientMoveID string `json:"clientMoveId,omitempty"`
}

type PingData struct {
	Echo string `json:"echo,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type StartAckData struct {
	OK     bool   `json:"ok"`
	GameID string `json:"gameId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GameStateData is the room broadcast sent on every accepted mutation and
// on join. The summary is a full snapshot; clients drop versions at or
// below their last-seen one.
type GameStateData struct {
	GameID string       `json:"gameId"`
	Game   game.Summary `json:"game"`
}

// HandStateData is sent privately to one player: their hand after their own
// accepted move, or on join for reconnect reconciliation.
type HandStateData struct {
	GameID string        `json:"gameId"`
	Hand   game.HandView `json:"hand"`
}

type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type PongData struct {
	OK     bool   `json:"ok"`
	Echo   string `json:"echo,omitempty"`
	At     int64  `json:"at"`
	UserID string `json:"userId,omitempty"`
}
