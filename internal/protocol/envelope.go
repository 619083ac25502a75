package protocol

import "time"

// EventName enumerates the chat channel's event vocabulary.
type EventName string

// Inbound events (client to server).
const (
	EventRegisterUser EventName = "registerUser"
	EventJoinRoom     EventName = "joinRoom"
	EventTyping       EventName = "typing"
	EventStopTyping   EventName = "stopTyping"
	EventSendMessage  EventName = "sendMessage"
)

// Outbound events (server to client).
const (
	EventOnlineStatus   EventName = "onlineStatus"
	EventReceiveMessage EventName = "receiveMessage"
	EventChatHistory    EventName = "chatHistory"
)

// Presence states carried by onlineStatus.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Envelope wraps every event sent over the websocket, in either direction.
type Envelope struct {
	ID        string      `json:"id,omitempty"`
	Event     EventName   `json:"event"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// RegisterUser announces the identity owning this connection.
type RegisterUser struct {
	UserID string `json:"userId" validate:"required"`
}

// JoinRoom subscribes the connection to the conversation between the two
// identities. Authorization for the pairing happens upstream; the room layer
// does not re-validate it.
type JoinRoom struct {
	UserID     string `json:"userId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
}

// Typing is the payload of both typing and stopTyping, client to server.
type Typing struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// TypingNotice is the rebroadcast form: room members only learn who.
type TypingNotice struct {
	From string `json:"from"`
}

// SendMessage asks the server to persist and fan out a chat message.
type SendMessage struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// OnlineStatus notifies every connection of a presence change.
type OnlineStatus struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// ReceiveMessage carries a persisted message to the room, sender included.
// Timestamp is the store-assigned creation time.
type ReceiveMessage struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is one entry of a conversation history seed.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatHistory seeds a freshly joined conversation, oldest first.
type ChatHistory struct {
	With     string        `json:"with"`
	Messages []ChatMessage `json:"messages"`
}

// LoginRequest carries credentials to the HTTP login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns token and identity details to the client.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}
