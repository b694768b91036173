// Package status renders the one-line connection status bar.
package status

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/session"
	"github.com/fraud-watch/monitor/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Mode       feed.Mode
	Generation uint64
	Phase      session.Phase
	Resetting  bool
	BatchSize  int
	Filter     string
	Width      int

	spinner spinner.Model
}

// New creates a status bar model.
func New() Model {
	return Model{
		Phase:     session.PhaseIdle,
		BatchSize: feed.DefaultBatchSize,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorWarning)),
		),
	}
}

// Tick starts the spinner animation.
func (m Model) Tick() tea.Cmd {
	return m.spinner.Tick
}

// SetState copies the fields the bar shows.
func (m *Model) SetState(st session.State) {
	m.Mode = st.Mode
	m.Generation = st.Generation
	m.Phase = st.Phase
	m.Resetting = st.Resetting
	m.BatchSize = st.BatchSize
}

// Update advances the spinner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) busy() bool {
	return m.Resetting || m.Phase == session.PhaseConnecting
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.Phase {
	case session.PhaseConnected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case session.PhaseConnecting:
		connStr = m.spinner.View() + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(" Connecting...")
	case session.PhaseDisconnected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Disconnected")
	default:
		connStr = theme.StyleDimmed.Render("○ Idle")
	}

	modeStr := lipgloss.NewStyle().Foreground(theme.ModeColor(string(m.Mode))).Bold(true).
		Render(m.Mode.Label())
	genStr := theme.StyleDimmed.Render(fmt.Sprintf("gen %d", m.Generation))
	batchStr := theme.StyleDimmed.Render(fmt.Sprintf("batch %d", m.BatchSize))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + modeStr + sep + genStr + sep + batchStr
	if m.Filter != "" {
		content += sep + theme.StyleDimmed.Render("filter "+m.Filter)
	}
	if m.Resetting {
		content += sep + m.spinner.View() + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(" resetting")
	}
	if m.Phase == session.PhaseDisconnected && !m.busy() {
		content += sep + theme.StyleDimmed.Render("1/2 or r to reconnect")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
