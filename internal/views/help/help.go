// Package help renders the key binding reference overlay from markdown.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/fraud-watch/monitor/internal/theme"
)

// Model caches the rendered help text per width.
type Model struct {
	style    string
	bindings []key.Binding

	width    int
	rendered string
}

// New creates a help overlay for bindings. style is a glamour standard
// style name ("dark", "light", "notty"); empty picks one from the terminal.
func New(style string, bindings ...key.Binding) Model {
	return Model{style: style, bindings: bindings}
}

// Markdown returns the source document.
func (m Model) Markdown() string {
	var b strings.Builder
	b.WriteString("# fraudwatch\n\n")
	b.WriteString("Live view of the fraud detection feed. Switching mode or resetting ")
	b.WriteString("drops the current stream and opens a new one.\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, kb := range m.bindings {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\n## Outcomes\n\n")
	b.WriteString("- **DETECTED**: fraud the model flagged\n")
	b.WriteString("- **MISSED**: fraud the model let through\n")
	b.WriteString("- **FALSE ALARM**: legitimate transaction flagged\n")
	b.WriteString("- **LEGIT**: legitimate and not flagged\n")
	return b.String()
}

// Render returns the styled document wrapped to width.
func (m *Model) Render(width int) (string, error) {
	if width < 40 {
		width = 40
	}
	if m.rendered != "" && m.width == width {
		return m.rendered, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width - 6)}
	if m.style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(m.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("help renderer: %w", err)
	}
	out, err := r.Render(m.Markdown())
	if err != nil {
		return "", fmt.Errorf("render help: %w", err)
	}
	m.width = width
	m.rendered = out
	return out, nil
}

// View renders the overlay panel. Rendering failures fall back to the raw
// markdown.
func (m *Model) View(width int) string {
	body, err := m.Render(width)
	if err != nil {
		body = m.Markdown()
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Padding(0, 1).
		Render(strings.TrimRight(body, "\n") + "\n" + theme.StyleDimmed.Render("esc:close"))
}
