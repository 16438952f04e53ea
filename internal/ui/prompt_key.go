package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PromptAPIKey asks for the API key of an LLM provider. The input is masked.
// storedIn names the file the key will be written to.
func PromptAPIKey(provider, storedIn string) (string, error) {
	ti := textinput.New()
	ti.Placeholder = "api-key"
	ti.Focus()
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 256
	ti.Width = 50

	final, err := tea.NewProgram(apiKeyModel{textInput: ti, provider: provider, storedIn: storedIn}).Run()
	if err != nil {
		return "", fmt.Errorf("error running prompt: %w", err)
	}
	result := final.(apiKeyModel)
	if result.quit || result.value == "" {
		return "", ErrSelectionCancelled
	}
	return result.value, nil
}

type apiKeyModel struct {
	textInput textinput.Model
	provider  string
	storedIn  string
	value     string
	quit      bool
}

func (m apiKeyModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m apiKeyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.value = m.textInput.Value()
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m apiKeyModel) View() string {
	s := "\n" + StyleSelectTitle.Render(fmt.Sprintf("API key required for %s", m.provider)) + "\n"
	if m.storedIn != "" {
		s += StyleSubtle.Render("It will be stored in "+m.storedIn) + "\n"
	}
	s += "\n" + m.textInput.View() + "\n\n"
	s += StyleSubtle.Render("Enter to confirm • Esc to cancel") + "\n"
	return s
}
