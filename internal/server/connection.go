package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client. It is the
// explicit per-connection session object: identity and room membership live
// here, never in process-wide state.
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	userID      string
	gameID      string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetUser associates this connection with a verified user identity
func (c *Connection) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

// GetUser returns the associated user ID
func (c *Connection) GetUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetGame associates this connection with a game room
func (c *Connection) SetGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

// GetGame returns the associated game room ID
func (c *Connection) GetGame() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "user", c.GetUser())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeJoinGame:
		var data JoinGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join game data")
			return
		}
		c.handleJoinGame(data)

	case MessageTypeStartGame:
		var data StartGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start game data")
			return
		}
		c.handleStartGame(data, msg.RequestID)

	case MessageTypeSubmitMove:
		var data SubmitMoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse move data")
			return
		}
		c.handleSubmitMove(data)

	case MessageTypePing:
		var data PingData
		_ = json.Unmarshal(msg.Data, &data)
		c.handlePing(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) handleAuth(data AuthData) {
	identity, err := c.gameService.Authenticate(c.ctx, data.Token, data.UserID)
	if err != nil {
		c.logger.Info("Auth rejected", "error", err)
		response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
			Success: false,
			Error:   err.Error(),
		})
		_ = c.SendMessage(response)
		return
	}

	c.SetUser(identity)
	c.logger.Info("Authenticated", "user", identity)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success: true,
		UserID:  identity,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinGame(data JoinGameData) {
	userID := c.GetUser()
	if userID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}

	summary, hand, err := c.gameService.JoinGame(c.ctx, data.GameID, userID)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	c.SetGame(data.GameID)

	// The durable summary plus the caller's private hand is everything a
	// reconnecting client needs to reconcile by version.
	state, _ := NewMessage(MessageTypeGameState, GameStateData{GameID: data.GameID, Game: summary})
	_ = c.SendMessage(state)
	if hand != nil {
		private, _ := NewMessage(MessageTypeHandState, HandStateData{GameID: data.GameID, Hand: *hand})
		_ = c.SendMessage(private)
	}
}

func (c *Connection) handleStartGame(data StartGameData, requestID string) {
	userID := c.GetUser()
	if userID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}

	gameID, summary, err := c.gameService.StartGame(c.ctx, userID, data.Players)
	ack := StartAckData{OK: err == nil, GameID: gameID}
	if err != nil {
		ack.Error = err.Error()
	}
	response, _ := NewMessage(MessageTypeStartAck, ack)
	response.RequestID = requestID
	_ = c.SendMessage(response)

	if err != nil {
		c.sendError("start_failed", err.Error())
		return
	}

	c.SetGame(gameID)
	c.gameService.BroadcastState(gameID, *summary)

	hand, err := c.gameService.Hand(c.ctx, gameID, userID)
	if err == nil {
		private, _ := NewMessage(MessageTypeHandState, HandStateData{GameID: gameID, Hand: hand})
		_ = c.SendMessage(private)
	}
}

func (c *Connection) handleSubmitMove(data SubmitMoveData) {
	userID := c.GetUser()
	if userID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	if data.GameID == "" {
		c.sendError("invalid_message", "gameId required")
		return
	}

	result, err := c.gameService.SubmitMove(c.ctx, data, userID)
	if err != nil {
		c.sendError("move_rejected", err.Error())
		return
	}

	// The room broadcast is handled by the service; the mover additionally
	// gets their updated private hand.
	private, _ := NewMessage(MessageTypeHandState, HandStateData{GameID: data.GameID, Hand: result.Hand})
	_ = c.SendMessage(private)
}

func (c *Connection) handlePing(data PingData) {
	response, _ := NewMessage(MessageTypePong, PongData{
		OK:     true,
		Echo:   data.Echo,
		At:     time.Now().UnixMilli(),
		UserID: c.GetUser(),
	})
	_ = c.SendMessage(response)
}
