package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

// Table renders data in a compact markdown-style table format.
// Widths are measured in terminal cells, so pre-styled cells line up.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // Max width per column (0 = auto)
}

// ColumnWidths calculates optimal column widths based on content.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			widths[i] = min(widths[i], t.MaxWidth)
		}
	}
	return widths
}

// Render outputs the table to a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var headerCells []string
	for i, h := range t.Headers {
		headerCells = append(headerCells, headerStyle.Render(padRight(h, widths[i])))
	}
	sb.WriteString(" " + strings.Join(headerCells, "  ") + "\n")

	var sepParts []string
	for _, w := range widths {
		sepParts = append(sepParts, StyleSubtle.Render(strings.Repeat("─", w)))
	}
	sb.WriteString(" " + strings.Join(sepParts, "──") + "\n")

	for _, row := range t.Rows {
		var cells []string
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if lipgloss.Width(val) > widths[i] {
				val = Truncate(val, widths[i])
			}
			cells = append(cells, padRight(val, widths[i]))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}

	return sb.String()
}

// padRight pads a string to the specified cell width.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// MetricTable lists criterion scores with a pass/below marker.
func MetricTable(metrics []quality.Metric) *Table {
	t := &Table{Headers: []string{"Criterion", "Score", ""}}
	for _, m := range metrics {
		mark := StyleSuccess.Render("✓")
		if m.ColorClass != quality.Green {
			mark = StyleWarning.Render("▲")
		}
		t.Rows = append(t.Rows, []string{m.Name, ScoreStyle(m.Value).Render(fmt.Sprintf("%3d%%", m.Value)), mark})
	}
	return t
}

// StepTable summarizes every pipeline step of s.
func StepTable(s *wizard.State) *Table {
	t := &Table{Headers: []string{"", "Step", "Status", "Score", "Recs", "Size"}}
	for _, id := range wizard.AllSteps() {
		rec := s.Step(id)
		marker := " "
		if id == s.CurrentStep {
			marker = StylePrimary.Render("▶")
		}
		status := StyleSubtle.Render("empty")
		switch {
		case rec.Completed:
			status = StyleSuccess.Render("completed")
		case rec.HasArtifact():
			status = StyleText.Render("draft")
		}
		score := StyleSubtle.Render("-")
		if rec.HasArtifact() || rec.Score > 0 {
			score = ScoreStyle(rec.Score).Render(fmt.Sprintf("%d%%", rec.Score))
		}
		size := "-"
		if rec.HasArtifact() {
			size = fmt.Sprintf("%d lines", strings.Count(rec.Content(), "\n")+1)
		}
		t.Rows = append(t.Rows, []string{
			marker,
			fmt.Sprintf("%d. %s", id, id),
			status,
			score,
			fmt.Sprintf("%d", len(rec.Recommendations)),
			size,
		})
	}
	return t
}
