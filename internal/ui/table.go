package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/charmbracelet/lipgloss"
)

// Table renders rows in a compact fixed-width layout for the terminal.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // Max width per column (0 = auto)
}

// StoryTable builds the table shown by `list`.
func StoryTable(entries []store.Entry) *Table {
	t := &Table{
		Headers:  []string{"#", "Title", "File", "Updated"},
		MaxWidth: 48,
	}
	for i, e := range entries {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			e.Title,
			e.File,
			e.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return t
}

// ColumnWidths calculates column widths in display cells.
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
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)

	var cells []string
	for i, h := range t.Headers {
		cells = append(cells, headerStyle.Render(padRight(h, widths[i])))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	var sep []string
	for _, w := range widths {
		sep = append(sep, StyleSubtle.Render(strings.Repeat("─", w)))
	}
	sb.WriteString(" " + strings.Join(sep, "──") + "\n")

	for _, row := range t.Rows {
		cells = cells[:0]
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = fit(row[i], widths[i])
			}
			cells = append(cells, cellStyle.Render(padRight(val, widths[i])))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

// fit shortens s to width cells, marking the cut with an ellipsis.
func fit(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width < 2 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
