package ui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultBodyLines caps how much of a response body is shown in a box
const DefaultBodyLines = 40

// Body is a box for displaying a device response body.
// JSON bodies are indented; anything else is shown as received.
type Body struct {
	Title    string // e.g., "Response"
	Content  string // The raw response text
	Width    int    // Terminal width
	MaxLines int    // Maximum lines to display (0 = unlimited)
}

// NewBody creates a response body box
func NewBody(content string) *Body {
	return &Body{
		Title:    "Response",
		Content:  content,
		Width:    GetTerminalWidth(),
		MaxLines: DefaultBodyLines,
	}
}

// SetWidth sets the terminal width for responsive rendering
func (b *Body) SetWidth(width int) *Body {
	b.Width = width
	return b
}

// SetMaxLines limits the number of lines displayed
func (b *Body) SetMaxLines(max int) *Body {
	b.MaxLines = max
	return b
}

// Lines returns the display lines after formatting and truncation
func (b *Body) Lines() []string {
	text := FormatBody(b.Content)
	if text == "" {
		return []string{"(empty)"}
	}

	lines := strings.Split(text, "\n")
	if b.MaxLines > 0 && len(lines) > b.MaxLines {
		lines = append(lines[:b.MaxLines:b.MaxLines], "... (output truncated)")
	}
	return lines
}

// Render returns the styled body box as a string
func (b *Body) Render() string {
	width := b.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		BodyTitleStyle.Render(b.Title),
		"",
		BodyContentStyle.Render(strings.Join(b.Lines(), "\n")),
	)

	boxWidth := width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(boxWidth).
		Padding(0, 1).
		MarginLeft(2).
		Render(inner)
}

// String implements fmt.Stringer
func (b *Body) String() string {
	return b.Render()
}

// FormatBody indents JSON text and trims surrounding whitespace from anything else
func FormatBody(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return trimmed
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return trimmed
	}
	return buf.String()
}
