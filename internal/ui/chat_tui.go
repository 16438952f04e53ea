package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/chat"
)

// ChatConn is the subset of the chat client the TUI drives.
type ChatConn interface {
	SessionID() string
	SendMessage(content string, messageType chat.MessageType) error
	PauseSession() error
	ResumeSession() error
	CancelSession() error
}

// ChatOutcome is how the user left the chat.
type ChatOutcome string

const (
	ChatDetached  ChatOutcome = "detached"
	ChatFinished  ChatOutcome = "completed"
	ChatCancelled ChatOutcome = "cancelled"
)

// ChatResult summarizes a finished TUI session.
type ChatResult struct {
	Outcome  ChatOutcome
	Paused   bool
	Messages []chat.Message
}

// ChatMessageMsg delivers an inbound chat message to the model.
type ChatMessageMsg struct{ Message chat.Message }

// ChatStatusMsg delivers a session status update to the model.
type ChatStatusMsg struct{ Update chat.StatusUpdate }

// ChatModel is the bubbletea model of an interactive refinement session.
type ChatModel struct {
	Title    string
	conn     ChatConn
	record   func(chat.Message)
	input    textinput.Model
	spinner  spinner.Model
	messages []chat.Message
	status   string
	progress float64
	waiting  bool
	paused   bool
	outcome  ChatOutcome
	notice   string
	width    int
	events   <-chan tea.Msg
}

// NewChatModel builds the model. record, when set, sees every message
// shown in the transcript, in order.
func NewChatModel(title string, conn ChatConn, record func(chat.Message)) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Type an answer, /pause, /resume, /cancel or /quit"
	ti.Focus()
	ti.CharLimit = 0

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StylePrimary

	return ChatModel{
		Title:   title,
		conn:    conn,
		record:  record,
		input:   ti,
		spinner: s,
		waiting: true,
		outcome: ChatDetached,
		width:   80,
	}
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

// waitForEvent delivers the next relayed chat event to the program.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg { return <-events }
}

func (m *ChatModel) add(msg chat.Message) {
	m.messages = append(m.messages, msg)
	if m.record != nil {
		m.record(msg)
	}
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-6)

	case ChatMessageMsg:
		m.add(msg.Message)
		m.waiting = false
		m.notice = ""
		cmds = append(cmds, waitForEvent(m.events))

	case ChatStatusMsg:
		m.status = msg.Update.Status
		m.progress = msg.Update.Progress
		switch msg.Update.Status {
		case "completed":
			m.outcome = ChatFinished
			return m, tea.Quit
		case "cancelled":
			m.outcome = ChatCancelled
			return m, tea.Quit
		case "paused":
			m.paused = true
		case "active":
			m.paused = false
		}
		cmds = append(cmds, waitForEvent(m.events))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}

	var err error
	switch text {
	case "/quit":
		return m, tea.Quit
	case "/pause":
		if err = m.conn.PauseSession(); err == nil {
			m.paused = true
			m.notice = "Session paused."
		}
	case "/resume":
		if err = m.conn.ResumeSession(); err == nil {
			m.paused = false
			m.notice = "Session resumed."
		}
	case "/cancel":
		if err = m.conn.CancelSession(); err == nil {
			m.outcome = ChatCancelled
			return m, tea.Quit
		}
	default:
		if err = m.conn.SendMessage(text, chat.TypeAnswer); err == nil {
			m.add(chat.Message{
				MessageID:   uuid.NewString(),
				SessionID:   m.conn.SessionID(),
				Sender:      chat.SenderUser,
				Content:     text,
				Timestamp:   time.Now(),
				MessageType: chat.TypeAnswer,
			})
			m.waiting = true
		}
	}
	if err != nil {
		m.notice = "Error: " + err.Error()
	}
	return m, nil
}

// Result reports how the session ended.
func (m ChatModel) Result() ChatResult {
	return ChatResult{Outcome: m.outcome, Paused: m.paused, Messages: m.messages}
}

func (m ChatModel) View() string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(m.Title))
	if m.status != "" {
		sb.WriteString(StyleSubtle.Render(fmt.Sprintf(" %s · %.0f%%", m.status, m.progress)))
	}
	sb.WriteString("\n\n")

	wrap := max(20, m.width-4)
	for _, msg := range m.messages {
		sb.WriteString(renderChatLine(msg, wrap))
		sb.WriteString("\n")
	}

	switch {
	case m.paused:
		sb.WriteString(StyleWarning.Render("⏸ paused, /resume to continue") + "\n")
	case m.waiting:
		sb.WriteString(m.spinner.View() + StyleSubtle.Render(" waiting for the assistant...") + "\n")
	}
	if m.notice != "" {
		sb.WriteString(StyleSubtle.Render(m.notice) + "\n")
	}

	sb.WriteString("\n" + StyleInputBox.Render(m.input.View()) + "\n")
	sb.WriteString(StyleSubtle.Render("enter send • esc detach") + "\n")
	return sb.String()
}

func renderChatLine(msg chat.Message, width int) string {
	var prefix string
	switch {
	case msg.Sender == chat.SenderUser:
		prefix = StylePrefixUser.Render("you ›")
	case msg.MessageType == chat.TypeError:
		prefix = StylePrefixError.Render("err ›")
	case msg.MessageType == chat.TypeQuestion:
		prefix = StylePrefixQuestion.Render("bot ?")
	default:
		prefix = StylePrefixBot.Render("bot ›")
	}
	line := prefix + " " + WrapText(msg.Content, width-6)
	for i, opt := range msg.Options {
		line += "\n      " + StyleSubtle.Render(fmt.Sprintf("%d) %s", i+1, opt))
	}
	return line
}

// RunChat subscribes to client, connects it, calls started (when set) and
// runs the chat TUI until the user leaves or the session ends. Frames that
// arrive before the program starts are queued, not dropped.
func RunChat(ctx context.Context, client *chat.Client, title string, record func(chat.Message), started func() error, opts ...tea.ProgramOption) (ChatResult, error) {
	events := make(chan tea.Msg, 64)
	stop := make(chan struct{})
	defer close(stop)
	forward := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-stop:
		}
	}

	msgSub := client.OnMessage(func(m chat.Message) { forward(ChatMessageMsg{Message: m}) })
	defer msgSub.Unsubscribe()
	statusSub := client.OnStatusUpdate(func(u chat.StatusUpdate) { forward(ChatStatusMsg{Update: u}) })
	defer statusSub.Unsubscribe()

	if err := client.Connect(ctx); err != nil {
		return ChatResult{}, fmt.Errorf("connect to chat session: %w", err)
	}
	if started != nil {
		if err := started(); err != nil {
			return ChatResult{}, err
		}
	}

	model := NewChatModel(title, client, record)
	model.events = events
	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return ChatResult{}, fmt.Errorf("error running chat: %w", err)
	}
	return final.(ChatModel).Result(), nil
}
