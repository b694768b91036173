// Package dashboard provides the stats cards and the animated detection
// rate gauge.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/theme"
)

const fps = 30

// FrameMsg advances the gauge animation by one frame.
type FrameMsg struct{}

// Model holds the dashboard state.
type Model struct {
	Width int
	stats feed.Stats

	spring   harmonica.Spring
	gauge    float64 // displayed detection rate
	velocity float64
	animate  bool
}

// New creates a dashboard model.
func New() Model {
	return Model{
		stats:  feed.ZeroStats(),
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.8),
	}
}

// SetStats replaces the displayed snapshot and returns a frame command when
// the gauge needs to move.
func (m *Model) SetStats(s feed.Stats) tea.Cmd {
	m.stats = s
	if m.settled() || m.animate {
		return nil
	}
	m.animate = true
	return frame()
}

// Stats returns the displayed snapshot.
func (m Model) Stats() feed.Stats { return m.stats }

// Gauge returns the currently drawn detection rate.
func (m Model) Gauge() float64 { return m.gauge }

// Update steps the spring on FrameMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(FrameMsg); !ok {
		return m, nil
	}
	m.gauge, m.velocity = m.spring.Update(m.gauge, m.velocity, m.target())
	if m.settled() {
		m.gauge = m.target()
		m.velocity = 0
		m.animate = false
		return m, nil
	}
	return m, frame()
}

func (m Model) target() float64 {
	return math.Max(0, math.Min(100, m.stats.DetectionRate))
}

func (m Model) settled() bool {
	return math.Abs(m.gauge-m.target()) < 0.05 && math.Abs(m.velocity) < 0.05
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// View renders the stats cards above the gauge.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderCards(width),
		m.renderGauge(width),
	)
}

func (m Model) renderCards(width int) string {
	s := m.stats
	cards := []string{
		card("Processed", formatCount(s.TotalProcessed), theme.ColorBright),
		card("Detected", formatCount(s.FraudDetected), theme.ColorDetected),
		card("Missed", formatCount(s.MissedFraud), theme.ColorMissed),
		card("False Alarms", formatCount(s.FalseAlarms), theme.ColorFalseAlarm),
		card("Alert Rate", fmt.Sprintf("%.1f%%", s.AlertRate), theme.ColorWarning),
		card("Speed", fmt.Sprintf("%.0f/s", s.ProcessingSpeed), theme.ColorSimulation),
		card("Threshold", fmt.Sprintf("%.3f", s.Threshold), theme.ColorDimmed),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	return lipgloss.NewStyle().MaxWidth(width).Render(row)
}

func card(label, value string, color lipgloss.Color) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleDimmed.Render(label),
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(value),
	)
	return theme.StyleBorder.Padding(0, 1).Render(body)
}

// renderGauge draws a bar for the detection rate.
func (m Model) renderGauge(width int) string {
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	filled := max(0, min(int(m.gauge/100*float64(barWidth)), barWidth))
	color := theme.RateColor(m.stats.DetectionRate)

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", barWidth-filled))
	label := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf(" %5.1f%%", m.stats.DetectionRate))

	return "  " + theme.StyleHeader.Render("Detection ") + bar + label
}

// formatCount formats large numbers with K/M suffixes.
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
