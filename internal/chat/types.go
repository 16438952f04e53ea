// Package chat is the client side of the backend's conversational
// refinement sessions: session creation over HTTP and a WebSocket relay
// that fans inbound events out to subscribers.
package chat

import (
	"encoding/json"
	"time"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// MessageType classifies a chat message.
type MessageType string

const (
	TypeQuestion MessageType = "question"
	TypeAnswer   MessageType = "answer"
	TypeInfo     MessageType = "info"
	TypeError    MessageType = "error"
)

// Message is one chat line, in either direction.
type Message struct {
	MessageID        string      `json:"message_id"`
	SessionID        string      `json:"session_id"`
	Sender           Sender      `json:"sender"`
	Content          string      `json:"content"`
	Timestamp        time.Time   `json:"timestamp"`
	MessageType      MessageType `json:"message_type"`
	Options          []string    `json:"options,omitempty"`
	RequiresResponse bool        `json:"requires_response,omitempty"`
}

// Session is the backend's description of a chat session.
type Session struct {
	SessionID    string  `json:"session_id"`
	Status       string  `json:"status"`
	ContextType  string  `json:"context_type"`
	CreatedAt    string  `json:"created_at,omitempty"`
	WebsocketURL string  `json:"websocket_url,omitempty"`
	MessageCount int     `json:"message_count,omitempty"`
	Progress     float64 `json:"progress,omitempty"`
}

// StatusUpdate is a session_update event. Raw keeps the full payload.
type StatusUpdate struct {
	Status       string          `json:"status,omitempty"`
	Progress     float64         `json:"progress,omitempty"`
	MessageCount int             `json:"message_count,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// Frame types on the wire.
const (
	frameUserMessage   = "user_message"
	frameBotMessage    = "bot_message"
	frameSessionUpdate = "session_update"
	frameError         = "error"
	frameSessionAction = "session_action"
)

// frame is an inbound WebSocket envelope.
type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type botData struct {
	MessageID        string      `json:"message_id"`
	Content          string      `json:"content"`
	Timestamp        string      `json:"timestamp"`
	RequiresResponse bool        `json:"requires_response"`
	Options          []string    `json:"options"`
	MessageType      MessageType `json:"message_type"`
}

type userMessage struct {
	Type        string      `json:"type"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type"`
}

type sessionAction struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}
