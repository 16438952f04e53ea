package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrSelectionCancelled is returned when the user leaves a prompt without choosing.
var ErrSelectionCancelled = errors.New("selection cancelled")

// Option is one entry of a selection list.
type Option struct {
	ID          string
	Name        string
	Description string
}

// Select runs an interactive single-choice list and returns the chosen ID.
// The cursor starts on the option whose ID equals current, if any.
func Select(title string, options []Option, current string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", title)
	}
	m := newSelectModel(title, options, current)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", fmt.Errorf("error running selection: %w", err)
	}
	result := final.(selectModel)
	if result.quit {
		return "", ErrSelectionCancelled
	}
	return result.selectedID, nil
}

type selectModel struct {
	title      string
	options    []Option
	cursor     int
	selectedID string
	quit       bool
}

func newSelectModel(title string, options []Option, current string) selectModel {
	m := selectModel{title: title, options: options}
	for i, o := range options {
		if o.ID == current {
			m.cursor = i
		}
	}
	return m
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quit = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.selectedID = m.options[m.cursor].ID
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n" + StyleSelectTitle.Render(m.title) + "\n\n")

	width := 0
	for _, o := range m.options {
		width = max(width, len(o.Name))
	}
	for i, opt := range m.options {
		cursor := "  "
		style := StyleSelectNormal
		if m.cursor == i {
			cursor = "▶ "
			style = StyleSelectActive
		}
		sb.WriteString(cursor + style.Render(fmt.Sprintf("%-*s", width, opt.Name)))
		if opt.Description != "" {
			sb.WriteString(StyleSelectDim.Render("  " + opt.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n" + StyleSelectDim.Render("↑/↓ navigate • enter select • esc cancel") + "\n")
	return sb.String()
}
