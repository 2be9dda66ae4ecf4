package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is a minimal fixed-width table renderer for the uuids status
// command's output.
type Table struct {
	headers []string
	rows    [][]string
	title   string
}

func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

func (t *Table) WithTitle(title string) *Table {
	t.title = title
	return t
}

func (t *Table) AddRow(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

func (t *Table) Render() string {
	if len(t.rows) == 0 {
		return mutedStyle.Render("(no rows)") + "\n"
	}

	colWidths := make([]int, len(t.headers))
	for i, h := range t.headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(colWidths) && lipgloss.Width(cell) > colWidths[i] {
				colWidths[i] = lipgloss.Width(cell)
			}
		}
	}

	var out strings.Builder
	if t.title != "" {
		out.WriteString("\n")
		out.WriteString(titleStyle.Render(t.title))
		out.WriteString("\n\n")
	}

	headerParts := make([]string, len(t.headers))
	for i, h := range t.headers {
		headerParts[i] = tableHeaderStyle.Copy().Width(colWidths[i]).Render(h)
	}
	out.WriteString(strings.Join(headerParts, "  "))
	out.WriteString("\n")

	sepParts := make([]string, len(t.headers))
	for i := range t.headers {
		sepParts[i] = mutedStyle.Render(strings.Repeat("─", colWidths[i]))
	}
	out.WriteString(strings.Join(sepParts, "  "))
	out.WriteString("\n")

	for _, row := range t.rows {
		rowParts := make([]string, len(t.headers))
		for i, cell := range row {
			if i < len(colWidths) {
				rowParts[i] = tableCellStyle.Copy().Width(colWidths[i]).Render(cell)
			}
		}
		out.WriteString(strings.Join(rowParts, "  "))
		out.WriteString("\n")
	}
	return out.String()
}

func (t *Table) Print() {
	fmt.Print(t.Render())
}
