// Package theme provides the Lip Gloss color palette and reusable styles
// for the fraudwatch TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Outcome colors.
var (
	ColorDetected   = lipgloss.Color("#16a34a")
	ColorMissed     = lipgloss.Color("#dc2626")
	ColorFalseAlarm = lipgloss.Color("#d97706")
	ColorLegitimate = lipgloss.Color("#6b7280")
	ColorDefault    = lipgloss.Color("#9ca3af")
)

// Mode colors.
var (
	ColorSimulation = lipgloss.Color("#3b82f6")
	ColorRealModel  = lipgloss.Color("#a855f7")
)

// Rate gauge thresholds.
var (
	ColorRateLow  = lipgloss.Color("#dc2626") // <50%
	ColorRateMid  = lipgloss.Color("#d97706") // 50-80%
	ColorRateHigh = lipgloss.Color("#22c55e") // >80%
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// OutcomeColor returns the color for a transaction outcome wire name.
func OutcomeColor(outcome string) lipgloss.Color {
	switch outcome {
	case "detected_fraud":
		return ColorDetected
	case "missed_fraud":
		return ColorMissed
	case "false_alarm":
		return ColorFalseAlarm
	case "legitimate":
		return ColorLegitimate
	default:
		return ColorDefault
	}
}

// OutcomeGlyph returns a Unicode glyph for a transaction outcome.
func OutcomeGlyph(outcome string) string {
	switch outcome {
	case "detected_fraud":
		return "✓"
	case "missed_fraud":
		return "✗"
	case "false_alarm":
		return "⚠"
	case "legitimate":
		return "○"
	default:
		return "?"
	}
}

// OutcomeLabel returns a short display label for an outcome.
func OutcomeLabel(outcome string) string {
	switch outcome {
	case "detected_fraud":
		return "DETECTED"
	case "missed_fraud":
		return "MISSED"
	case "false_alarm":
		return "FALSE ALARM"
	case "legitimate":
		return "LEGIT"
	default:
		return outcome
	}
}

// ModeColor returns the accent color for a mode wire name.
func ModeColor(mode string) lipgloss.Color {
	switch mode {
	case "simulation":
		return ColorSimulation
	case "real_model":
		return ColorRealModel
	default:
		return ColorDefault
	}
}

// RateColor returns the color for a detection rate percentage.
func RateColor(pct float64) lipgloss.Color {
	switch {
	case pct > 80:
		return ColorRateHigh
	case pct >= 50:
		return ColorRateMid
	default:
		return ColorRateLow
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
