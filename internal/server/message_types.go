package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants used for the client-server protocol.
const (
	// Client to server messages
	MessageTypeAuth       MessageType = "auth"
	MessageTypeJoinGame   MessageType = "join_game"
	MessageTypeStartGame  MessageType = "start_game"
	MessageTypeSubmitMove MessageType = "submit_move"
	MessageTypePing       MessageType = "ping"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeStartAck     MessageType = "start_ack"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeHandState    MessageType = "hand_state"
	MessageTypeError        MessageType = "error_msg"
	MessageTypePong         MessageType = "pong"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
