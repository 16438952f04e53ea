package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer upgrades /ws/chat/{id} and hands each connection to handle.
func wsServer(t *testing.T, handle func(id string, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/chat/{id}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		handle(r.PathValue("id"), conn)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, srv *httptest.Server, id string) *Client {
	t.Helper()
	c := NewClient(id, wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_URL(t *testing.T) {
	c := NewClient("s 1", "ws://host:8000/")
	assert.Equal(t, "ws://host:8000/ws/chat/s%201", c.URL())
	assert.Equal(t, DefaultWSBaseURL+"/ws/chat/x", NewClient("x", "").URL())
}

func TestClient_BotMessageDefaults(t *testing.T) {
	srv := wsServer(t, func(_ string, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bot_message","data":{"content":"What auth do you need?","requires_response":true,"options":["JWT","OAuth"]}}`))
		_, _, _ = conn.ReadMessage()
	})
	c := NewClient("s-1", wsURL(srv))
	got := make(chan Message, 1)
	c.OnMessage(func(m Message) { got <- m })
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	select {
	case m := <-got:
		assert.Equal(t, "What auth do you need?", m.Content)
		assert.Equal(t, TypeInfo, m.MessageType)
		assert.Equal(t, SenderBot, m.Sender)
		assert.Equal(t, "s-1", m.SessionID)
		assert.NotEmpty(t, m.MessageID)
		assert.False(t, m.Timestamp.IsZero())
		assert.True(t, m.RequiresResponse)
		assert.Equal(t, []string{"JWT", "OAuth"}, m.Options)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestClient_StatusUpdateAndUnsubscribe(t *testing.T) {
	release := make(chan struct{})
	srv := wsServer(t, func(_ string, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","data":"boom"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session_update","data":{"status":"paused","progress":0.4}}`))
		<-release
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session_update","data":{"status":"active"}}`))
		_, _, _ = conn.ReadMessage()
	})

	c := NewClient("s-2", wsURL(srv))
	first := make(chan StatusUpdate, 4)
	second := make(chan StatusUpdate, 4)
	sub := c.OnStatusUpdate(func(u StatusUpdate) { first <- u })
	c.OnStatusUpdate(func(u StatusUpdate) { second <- u })
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	u := <-first
	assert.Equal(t, "paused", u.Status)
	assert.InDelta(t, 0.4, u.Progress, 1e-9)
	assert.JSONEq(t, `{"status":"paused","progress":0.4}`, string(u.Raw))
	<-second

	sub.Unsubscribe()
	sub.Unsubscribe()
	close(release)

	assert.Equal(t, "active", (<-second).Status)
	assert.Empty(t, first)
}

func TestClient_SendAndActions(t *testing.T) {
	frames := make(chan map[string]string, 4)
	srv := wsServer(t, func(_ string, conn *websocket.Conn) {
		for {
			var f map[string]string
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	})
	c := connect(t, srv, "s-3")

	require.NoError(t, c.SendMessage("Use JWT", ""))
	require.NoError(t, c.SendMessage("Why?", TypeQuestion))
	require.NoError(t, c.PauseSession())
	require.NoError(t, c.CancelSession())

	assert.Equal(t, map[string]string{"type": "user_message", "content": "Use JWT", "message_type": "answer"}, <-frames)
	assert.Equal(t, "question", (<-frames)["message_type"])
	assert.Equal(t, map[string]string{"type": "session_action", "action": "pause"}, <-frames)
	assert.Equal(t, "cancel", (<-frames)["action"])
}

func TestClient_SendWithoutConnection(t *testing.T) {
	c := NewClient("s-4", "ws://127.0.0.1:1")
	assert.ErrorIs(t, c.SendMessage("hello", TypeAnswer), ErrNotConnected)
	assert.ErrorIs(t, c.ResumeSession(), ErrNotConnected)
	assert.False(t, c.Connected())
	assert.NoError(t, c.Close())
}

func TestClient_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient("missing", wsURL(srv))
	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.False(t, c.Connected())
}

func TestClient_CloseWaitsForReader(t *testing.T) {
	srv := wsServer(t, func(_ string, conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})
	c := NewClient("s-5", wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Connected())

	require.NoError(t, c.Close())
	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.SendMessage("late", ""), ErrNotConnected)
}

func TestClient_ServerCloseMarksDisconnected(t *testing.T) {
	srv := wsServer(t, func(_ string, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})
	c := NewClient("s-6", wsURL(srv))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	require.Eventually(t, func() bool { return !c.Connected() }, 2*time.Second, 10*time.Millisecond)
}

func TestBotMessage_KeepsBackendFields(t *testing.T) {
	c := NewClient("s-7", "")
	raw := `{"message_id":"m-1","content":"hi","timestamp":"2025-03-01T10:00:00Z","message_type":"question"}`
	var d botData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	m := c.botMessage(d)
	assert.Equal(t, "m-1", m.MessageID)
	assert.Equal(t, TypeQuestion, m.MessageType)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), m.Timestamp.UTC())
}
