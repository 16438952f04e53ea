package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultWSBaseURL is the chat endpoint root used when none is configured.
const DefaultWSBaseURL = "ws://localhost:8000"

// ErrNotConnected is returned when sending without a live connection.
var ErrNotConnected = errors.New("websocket not connected")

// Subscription is returned by OnMessage and OnStatusUpdate.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the handler. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Client relays one chat session over a WebSocket. There is no automatic
// reconnection; a dropped connection has to be re-established with Connect.
type Client struct {
	sessionID string
	wsBaseURL string
	dialer    *websocket.Dialer
	now       func() time.Time

	mu         sync.Mutex
	conn       *websocket.Conn
	done       chan struct{}
	nextID     uint64
	msgSubs    map[uint64]func(Message)
	statusSubs map[uint64]func(StatusUpdate)

	writeMu sync.Mutex
}

// NewClient creates a client for sessionID. It does not connect.
func NewClient(sessionID, wsBaseURL string) *Client {
	if wsBaseURL == "" {
		wsBaseURL = DefaultWSBaseURL
	}
	return &Client{
		sessionID:  sessionID,
		wsBaseURL:  strings.TrimRight(wsBaseURL, "/"),
		dialer:     websocket.DefaultDialer,
		now:        time.Now,
		msgSubs:    make(map[uint64]func(Message)),
		statusSubs: make(map[uint64]func(StatusUpdate)),
	}
}

// SessionID returns the session this client relays.
func (c *Client) SessionID() string { return c.sessionID }

// URL returns the WebSocket endpoint for the session.
func (c *Client) URL() string {
	return c.wsBaseURL + "/ws/chat/" + url.PathEscape(c.sessionID)
}

// Connect dials the session endpoint and starts relaying inbound frames.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.URL(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect to chat session %s: %w (status %s)", c.sessionID, err, resp.Status)
		}
		return fmt.Errorf("connect to chat session %s: %w", c.sessionID, err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.done = done
	c.mu.Unlock()

	slog.Debug("connected to chat session", "session_id", c.sessionID)
	go c.readLoop(conn, done)
	return nil
}

// Connected reports whether the connection is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// OnMessage registers fn for bot messages.
func (c *Client) OnMessage(fn func(Message)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.msgSubs[id] = fn
	return &Subscription{cancel: func() {
		c.mu.Lock()
		delete(c.msgSubs, id)
		c.mu.Unlock()
	}}
}

// OnStatusUpdate registers fn for session status changes.
func (c *Client) OnStatusUpdate(fn func(StatusUpdate)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.statusSubs[id] = fn
	return &Subscription{cancel: func() {
		c.mu.Lock()
		delete(c.statusSubs, id)
		c.mu.Unlock()
	}}
}

// SendMessage sends a user message. An empty messageType means answer.
// Without a live connection the message is dropped and ErrNotConnected
// is returned.
func (c *Client) SendMessage(content string, messageType MessageType) error {
	if messageType == "" {
		messageType = TypeAnswer
	}
	err := c.send(userMessage{Type: frameUserMessage, Content: content, MessageType: messageType})
	if errors.Is(err, ErrNotConnected) {
		slog.Error("chat message dropped", "session_id", c.sessionID, "error", err)
	}
	return err
}

// PauseSession asks the backend to pause the session.
func (c *Client) PauseSession() error { return c.action("pause") }

// ResumeSession asks the backend to resume a paused session.
func (c *Client) ResumeSession() error { return c.action("resume") }

// CancelSession asks the backend to cancel the session.
func (c *Client) CancelSession() error { return c.action("cancel") }

func (c *Client) action(name string) error {
	return c.send(sessionAction{Type: frameSessionAction, Action: name})
}

func (c *Client) send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("chat send: %w", err)
	}
	return nil
}

// Close sends a close frame, closes the connection and waits for the read
// loop to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := conn.Close()
	<-done
	return err
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("chat connection closed", "session_id", c.sessionID, "error", err)
			}
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				_ = conn.Close()
			}
			c.mu.Unlock()
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("malformed chat frame", "session_id", c.sessionID, "error", err)
		return
	}

	switch f.Type {
	case frameBotMessage:
		var d botData
		if err := json.Unmarshal(f.Data, &d); err != nil {
			slog.Warn("malformed bot message", "session_id", c.sessionID, "error", err)
			return
		}
		msg := c.botMessage(d)
		for _, fn := range c.messageHandlers() {
			fn(msg)
		}

	case frameSessionUpdate:
		update := StatusUpdate{Raw: f.Data}
		if len(f.Data) > 0 {
			_ = json.Unmarshal(f.Data, &update)
		}
		for _, fn := range c.statusHandlers() {
			fn(update)
		}

	case frameError:
		slog.Error("chat error", "session_id", c.sessionID, "data", string(f.Data))

	default:
		slog.Debug("ignoring chat frame", "session_id", c.sessionID, "type", f.Type)
	}
}

func (c *Client) botMessage(d botData) Message {
	msg := Message{
		MessageID:        d.MessageID,
		SessionID:        c.sessionID,
		Sender:           SenderBot,
		Content:          d.Content,
		MessageType:      d.MessageType,
		Options:          d.Options,
		RequiresResponse: d.RequiresResponse,
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.MessageType == "" {
		msg.MessageType = TypeInfo
	}
	if ts, err := time.Parse(time.RFC3339Nano, d.Timestamp); err == nil {
		msg.Timestamp = ts
	} else {
		msg.Timestamp = c.now()
	}
	return msg
}

func (c *Client) messageHandlers() []func(Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]func(Message), 0, len(c.msgSubs))
	for _, fn := range c.msgSubs {
		out = append(out, fn)
	}
	return out
}

func (c *Client) statusHandlers() []func(StatusUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]func(StatusUpdate), 0, len(c.statusSubs))
	for _, fn := range c.statusSubs {
		out = append(out, fn)
	}
	return out
}
