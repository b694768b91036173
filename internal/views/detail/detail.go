// Package detail renders the transaction info flyout overlay.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/theme"
)

const (
	panelWidth = 56
	barWidth   = 24
	labelWidth = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	Tx        *feed.Transaction
	Threshold float64
}

// New creates a detail model for tx.
func New(tx feed.Transaction, threshold float64) Model {
	return Model{Tx: &tx, Threshold: threshold}
}

// View renders the detail panel. Returns an empty string if no record is set.
func (m Model) View() string {
	if m.Tx == nil {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner(*m.Tx))
}

func (m Model) renderInner(tx feed.Transaction) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Transaction: "+tx.ID) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	outcome := string(tx.Type)
	color := theme.OutcomeColor(outcome)
	writeRow(&b, "Outcome", lipgloss.NewStyle().Foreground(color).Render(
		theme.OutcomeGlyph(outcome)+" "+theme.OutcomeLabel(outcome)))
	writeRow(&b, "Time", tx.Timestamp)
	writeRow(&b, "Amount", tx.Currency()+" "+tx.Amount.StringFixed(2))

	flagged := "no"
	if tx.IsFlagged {
		flagged = "yes"
	}
	writeRow(&b, "Flagged", flagged)

	b.WriteString("\n")
	writeRow(&b, "Risk", renderRiskBar(tx.FraudProb, m.Threshold)+fmt.Sprintf(" %.1f%%", tx.FraudProb*100))
	writeRow(&b, "Threshold", fmt.Sprintf("%.3f", m.Threshold))

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

// renderRiskBar fills to prob and marks the decision threshold with │.
func renderRiskBar(prob, threshold float64) string {
	prob = clamp(prob)
	filled := int(prob * float64(barWidth))
	mark := int(clamp(threshold) * float64(barWidth))
	if mark >= barWidth {
		mark = barWidth - 1
	}

	color := theme.ColorHealthy
	if prob >= threshold {
		color = theme.ColorDanger
	}

	cells := make([]string, barWidth)
	for i := range cells {
		switch {
		case i == mark:
			cells[i] = "│"
		case i < filled:
			cells[i] = "█"
		default:
			cells[i] = "░"
		}
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Join(cells, ""))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
