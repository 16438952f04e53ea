package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

// RenderPageHeader writes a consistent styled header for commands.
func RenderPageHeader(w io.Writer, title, subtitle string) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		MarginBottom(1)

	fmt.Fprintln(w, titleStyle.Render(title))
	if subtitle != "" {
		fmt.Fprintf(w, "  %s\n", StyleSubtle.Render(subtitle))
	}
}

// Panel is a bordered box with an optional title.
type Panel struct {
	Title       string
	Content     string
	BorderColor lipgloss.Color
	Width       int
}

// NewPanel creates a new panel with default styling.
func NewPanel(title, content string) *Panel {
	return &Panel{Title: title, Content: content, BorderColor: ColorSecondary}
}

// WithBorderColor sets the border color and returns the panel.
func (p *Panel) WithBorderColor(color lipgloss.Color) *Panel {
	p.BorderColor = color
	return p
}

// WithWidth sets the panel width and returns the panel.
func (p *Panel) WithWidth(width int) *Panel {
	p.Width = width
	return p
}

// Render returns the panel as a string.
func (p *Panel) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.BorderColor).
		Padding(0, 1)
	if p.Width > 0 {
		style = style.Width(p.Width)
	}

	content := p.Content
	if p.Title != "" {
		content = StyleTitle.Render(p.Title) + "\n\n" + p.Content
	}
	return style.Render(content)
}

// RenderPanel is a convenience function to create and render a panel.
func RenderPanel(title, content string) string {
	return NewPanel(title, content).Render()
}

// RenderErrorPanel renders a panel with a red border.
func RenderErrorPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorError).Render()
}

// Truncate shortens s to maxLen runes, ending with an ellipsis when cut.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(r[:maxLen-1]) + "…"
}

// WrapText wraps text to the specified width.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		if len(line) <= width {
			result.WriteString(line)
			continue
		}

		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+1+len(word) <= width:
				current += " " + word
			default:
				result.WriteString(current + "\n")
				current = word
			}
		}
		result.WriteString(current)
	}
	return result.String()
}

var levelIcons = map[wizard.Level]string{
	wizard.LevelInfo:    StyleSubtle.Render("•"),
	wizard.LevelSuccess: StyleSuccess.Render("✓"),
	wizard.LevelWarning: StyleWarning.Render("!"),
	wizard.LevelError:   StyleError.Render("✗"),
}

// RenderActivity formats log entries one per line, newest first.
func RenderActivity(entries []wizard.LogEntry) string {
	if len(entries) == 0 {
		return StyleSubtle.Render("No activity yet.")
	}
	var sb strings.Builder
	for _, e := range entries {
		icon, ok := levelIcons[e.Level]
		if !ok {
			icon = " "
		}
		step := "   "
		if e.Step.Valid() {
			step = fmt.Sprintf("[%d]", e.Step)
		}
		fmt.Fprintf(&sb, "%s %s %s %s\n",
			StyleSubtle.Render(e.Timestamp.Local().Format("15:04:05")), icon, StyleSubtle.Render(step), e.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderAgents formats a progress snapshot on a single line.
func RenderAgents(agents []progress.Agent) string {
	parts := make([]string, 0, len(agents))
	for _, a := range agents {
		switch a.Status {
		case progress.Completed:
			parts = append(parts, StyleSuccess.Render("✓ "+a.Name))
		case progress.Active:
			parts = append(parts, StylePrimary.Render("● "+a.Name))
		default:
			parts = append(parts, StyleSubtle.Render("○ "+a.Name))
		}
	}
	return strings.Join(parts, StyleSubtle.Render("  →  "))
}

// ActiveAgent returns the description of the first active agent, or "".
func ActiveAgent(agents []progress.Agent) string {
	for _, a := range agents {
		if a.Status == progress.Active {
			if a.Description != "" {
				return a.Description
			}
			return a.Name
		}
	}
	return ""
}

// RenderRecommendations lists recommendations grouped under their category.
func RenderRecommendations(recs []gateway.Recommendation) string {
	if len(recs) == 0 {
		return StyleSubtle.Render("No recommendations.")
	}
	width := max(TerminalWidth(100)-10, 40)
	var sb strings.Builder
	for i, r := range recs {
		category := r.Category
		if category == "" {
			category = "General"
		}
		fmt.Fprintf(&sb, "%s %s\n", StylePrimary.Render(fmt.Sprintf("%d.", i+1)), StyleTitle.Render(category))
		if r.Issue != "" {
			fmt.Fprintf(&sb, "   %s %s\n", StyleWarning.Render("issue:"), indent(WrapText(r.Issue, width)))
		}
		if r.Suggestion != "" {
			fmt.Fprintf(&sb, "   %s %s\n", StyleSuccess.Render("fix:  "), indent(WrapText(r.Suggestion, width)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// indent aligns continuation lines under the recommendation text.
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n          ")
}

// RenderAnalysis formats the requirements analysis with its metric table.
func RenderAnalysis(a *wizard.Analysis) string {
	if a == nil {
		return StyleSubtle.Render("Requirements have not been analyzed.")
	}
	green, orange := quality.CountByClass(a.Metrics)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s   %s\n",
		StyleTitle.Render("Overall:"),
		ScoreStyle(a.Overall).Render(fmt.Sprintf("%d%%", a.Overall)),
		StyleSubtle.Render(fmt.Sprintf("%d passing, %d below %d", green, orange, quality.PassThreshold)))
	if a.TypeDetected != "" {
		fmt.Fprintf(&sb, "%s %s (%.0f%% confidence)\n", StyleTitle.Render("Type:"), a.TypeDetected, a.Confidence)
	}
	sb.WriteString("\n")
	sb.WriteString(MetricTable(a.Metrics).Render())
	return strings.TrimRight(sb.String(), "\n")
}
