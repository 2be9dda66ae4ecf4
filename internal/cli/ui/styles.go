package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#0070F3")
	warningColor = lipgloss.Color("#F5A623")
	errorColor   = lipgloss.Color("#E00")
	mutedColor   = lipgloss.Color("#888")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFF"))

	successStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor).Width(14)
	valueStyle   = lipgloss.NewStyle().Bold(true)

	tableHeaderStyle = lipgloss.NewStyle().Foreground(mutedColor).Bold(true).PaddingRight(2)
	tableCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// Success returns a styled success message.
func Success(text string) string { return successStyle.Render("✓ " + text) }

// Error returns a styled error message.
func Error(text string) string { return errorStyle.Render("✗ " + text) }

// Warning returns a styled warning message.
func Warning(text string) string { return warningStyle.Render("⚠ " + text) }

// Muted returns a styled muted text.
func Muted(text string) string { return mutedStyle.Render(text) }

// KeyValue returns a styled key-value pair.
func KeyValue(key, value string) string {
	return labelStyle.Render(key+":") + " " + valueStyle.Render(value)
}

// Info renders a titled box around the given lines.
func Info(title string, lines ...string) string {
	content := titleStyle.Render(title)
	for i, line := range lines {
		if i == 0 {
			content += "\n\n"
		} else {
			content += "\n"
		}
		content += line
	}
	return boxStyle.Render(content)
}
