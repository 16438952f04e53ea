package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/chat"
)

type fakeConn struct {
	sent    []string
	actions []string
	err     error
}

func (f *fakeConn) SendMessage(content string, _ chat.MessageType) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, content)
	return nil
}

func (f *fakeConn) SessionID() string { return "s-42" }

func (f *fakeConn) PauseSession() error  { f.actions = append(f.actions, "pause"); return f.err }
func (f *fakeConn) ResumeSession() error { f.actions = append(f.actions, "resume"); return f.err }
func (f *fakeConn) CancelSession() error { f.actions = append(f.actions, "cancel"); return f.err }

func typeAndEnter(t *testing.T, m tea.Model, text string) (ChatModel, tea.Cmd) {
	t.Helper()
	cm := m.(ChatModel)
	cm.input.SetValue(text)
	next, cmd := cm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(ChatModel), cmd
}

func TestChatModel_Conversation(t *testing.T) {
	conn := &fakeConn{}
	var recorded []chat.Message
	m := NewChatModel("Step 2 chat", conn, func(msg chat.Message) { recorded = append(recorded, msg) })

	next, _ := m.Update(ChatMessageMsg{Message: chat.Message{
		Sender: chat.SenderBot, Content: "Which auth scheme?", MessageType: chat.TypeQuestion,
		Options: []string{"JWT", "OAuth2"},
	}})
	cm := next.(ChatModel)
	assert.False(t, cm.waiting)

	cm, _ = typeAndEnter(t, cm, "JWT")
	assert.Equal(t, []string{"JWT"}, conn.sent)
	assert.True(t, cm.waiting)
	assert.Empty(t, cm.input.Value())

	require.Len(t, recorded, 2)
	assert.Equal(t, chat.SenderUser, recorded[1].Sender)
	assert.Equal(t, chat.TypeAnswer, recorded[1].MessageType)
	assert.Equal(t, "s-42", recorded[1].SessionID)
	assert.NotEmpty(t, recorded[1].MessageID)
	assert.False(t, recorded[1].Timestamp.IsZero())

	view := cm.View()
	assert.Contains(t, view, "Which auth scheme?")
	assert.Contains(t, view, "2) OAuth2")
	assert.Contains(t, view, "JWT")
}

func TestChatModel_Commands(t *testing.T) {
	conn := &fakeConn{}
	cm := NewChatModel("chat", conn, nil)

	cm, _ = typeAndEnter(t, cm, "/pause")
	assert.True(t, cm.paused)
	assert.Contains(t, cm.View(), "paused")

	cm, _ = typeAndEnter(t, cm, "/resume")
	assert.False(t, cm.paused)

	cm, cmd := typeAndEnter(t, cm, "/cancel")
	assert.Equal(t, []string{"pause", "resume", "cancel"}, conn.actions)
	assert.Equal(t, ChatCancelled, cm.Result().Outcome)
	assert.NotNil(t, cmd)
	assert.Empty(t, conn.sent)
}

func TestChatModel_SendError(t *testing.T) {
	conn := &fakeConn{err: errors.New("not connected")}
	cm, _ := typeAndEnter(t, NewChatModel("chat", conn, nil), "hello")
	assert.Empty(t, cm.Result().Messages)
	assert.Contains(t, cm.View(), "Error: not connected")
}

func TestChatModel_StatusUpdates(t *testing.T) {
	cm := NewChatModel("chat", &fakeConn{}, nil)

	next, _ := cm.Update(ChatStatusMsg{Update: chat.StatusUpdate{Status: "active", Progress: 40}})
	assert.Contains(t, next.View(), "active · 40%")

	next, cmd := next.Update(ChatStatusMsg{Update: chat.StatusUpdate{Status: "completed", Progress: 100}})
	assert.NotNil(t, cmd)
	assert.Equal(t, ChatFinished, next.(ChatModel).Result().Outcome)
}

func TestChatModel_DetachByDefault(t *testing.T) {
	cm := NewChatModel("chat", &fakeConn{}, nil)
	next, cmd := cm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotNil(t, cmd)
	assert.Equal(t, ChatDetached, next.(ChatModel).Result().Outcome)
}

func TestRunChat_DeliversGreetingSentOnConnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bot_message","data":{"content":"Welcome! What should the API cover?","message_type":"question"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session_update","data":{"status":"completed","progress":100}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	client := chat.NewClient("s-1", "ws"+strings.TrimPrefix(srv.URL, "http"))
	defer func() { _ = client.Close() }()

	var recorded []chat.Message
	started := 0
	res, err := RunChat(context.Background(), client, "chat",
		func(m chat.Message) { recorded = append(recorded, m) },
		func() error { started++; return nil },
		tea.WithInput(nil), tea.WithOutput(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, 1, started)
	assert.Equal(t, ChatFinished, res.Outcome)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Welcome! What should the API cover?", res.Messages[0].Content)
	assert.Equal(t, chat.TypeQuestion, res.Messages[0].MessageType)
	assert.Len(t, recorded, 1)
}

func TestRunChat_StartedErrorAborts(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bot_message","data":{"content":"hi"}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	client := chat.NewClient("s-1", "ws"+strings.TrimPrefix(srv.URL, "http"))
	_, err := RunChat(context.Background(), client, "chat", nil,
		func() error { return errors.New("resume failed") },
		tea.WithInput(nil), tea.WithOutput(io.Discard))
	require.EqualError(t, err, "resume failed")
	assert.NoError(t, client.Close())
}
