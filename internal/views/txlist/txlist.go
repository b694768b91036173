// Package txlist renders the recent-transactions list, newest first, with
// an outcome glyph, amount and risk per row.
package txlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/theme"
)

// Filter selects which records are shown.
type Filter int

const (
	FilterAll Filter = iota
	FilterInteresting
)

func (f Filter) String() string {
	if f == FilterInteresting {
		return "interesting"
	}
	return "all"
}

const idWidth = 22

// Model holds the list state.
type Model struct {
	items   []feed.Transaction
	visible []feed.Transaction

	Filter      Filter
	SelectedIdx int
	BatchSize   int

	Width  int
	Height int

	vp viewport.Model
}

// New creates a list model.
func New() Model {
	return Model{BatchSize: feed.DefaultBatchSize, vp: viewport.New(80, 10)}
}

// SetTransactions replaces the list contents and reapplies the filter.
func (m *Model) SetTransactions(items []feed.Transaction) {
	m.items = items
	m.rebuild()
}

// ToggleFilter switches between all and fraud-related records.
func (m *Model) ToggleFilter() {
	if m.Filter == FilterAll {
		m.Filter = FilterInteresting
	} else {
		m.Filter = FilterAll
	}
	m.SelectedIdx = 0
	m.rebuild()
}

// Visible returns the records that pass the filter.
func (m Model) Visible() []feed.Transaction {
	return m.visible
}

// MoveDown advances the cursor.
func (m *Model) MoveDown() {
	if n := len(m.visible); n > 0 {
		m.SelectedIdx = (m.SelectedIdx + 1) % n
	}
}

// MoveUp moves the cursor back.
func (m *Model) MoveUp() {
	if n := len(m.visible); n > 0 {
		m.SelectedIdx = (m.SelectedIdx - 1 + n) % n
	}
}

// Selected returns the record under the cursor, if any.
func (m Model) Selected() (feed.Transaction, bool) {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.visible) {
		return m.visible[m.SelectedIdx], true
	}
	return feed.Transaction{}, false
}

func (m *Model) rebuild() {
	m.visible = nil
	for _, tx := range m.items {
		if m.Filter == FilterInteresting && !tx.Interesting() {
			continue
		}
		m.visible = append(m.visible, tx)
	}
	if n := len(m.visible); n == 0 {
		m.SelectedIdx = 0
	} else if m.SelectedIdx >= n {
		m.SelectedIdx = n - 1
	}
}

// View renders the list inside a scrolling viewport that follows the cursor.
func (m Model) View() string {
	width := m.Width
	if width < 60 {
		width = 60
	}
	height := m.Height
	if height < 3 {
		height = 3
	}

	title := fmt.Sprintf("═══ RECENT TRANSACTIONS  showing %d of %d  batch %d ", len(m.visible), len(m.items), m.BatchSize)
	fill := width - lipgloss.Width(title) - 2
	if fill < 4 {
		fill = 4
	}
	header := theme.StyleHeader.Render(title + strings.Repeat("═", fill))

	var body string
	if len(m.visible) == 0 {
		msg := "  No transactions yet"
		if m.Filter == FilterInteresting && len(m.items) > 0 {
			msg = "  No fraud-related transactions in the buffer"
		}
		body = theme.StyleDimmed.Render(msg)
	} else {
		lines := make([]string, len(m.visible))
		for i, tx := range m.visible {
			lines[i] = RenderLine(tx, i == m.SelectedIdx)
		}
		vp := m.vp
		vp.Width = width
		vp.Height = height
		vp.SetContent(strings.Join(lines, "\n"))
		if m.SelectedIdx >= height {
			vp.SetYOffset(m.SelectedIdx - height + 1)
		}
		body = vp.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// RenderLine formats one record.
func RenderLine(tx feed.Transaction, selected bool) string {
	outcome := string(tx.Type)
	color := theme.OutcomeColor(outcome)

	prefix := "  "
	if selected {
		prefix = "▸ "
	}
	glyph := lipgloss.NewStyle().Foreground(color).Render(theme.OutcomeGlyph(outcome))

	id := tx.ID
	if len(id) > idWidth {
		id = id[:idWidth-1] + "…"
	}
	idStr := lipgloss.NewStyle().Width(idWidth).Render(id)
	if selected {
		idStr = theme.StyleSelected.Width(idWidth).Render(id)
	}

	flag := lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("CLEAN  ")
	if tx.IsFlagged {
		flag = lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).Render("FLAGGED")
	}

	label := lipgloss.NewStyle().Foreground(color).Width(12).Render(theme.OutcomeLabel(outcome))

	return fmt.Sprintf("%s%s %s %s %s %12s %s %s risk %5.1f%%",
		prefix, glyph, idStr,
		theme.StyleDimmed.Render(ShortTime(tx.Timestamp)),
		tx.Currency(), tx.Amount.StringFixed(2),
		flag, label, tx.FraudProb*100)
}

// ShortTime trims an ISO timestamp to its clock part when possible.
func ShortTime(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+9 {
		return ts[i+1 : i+9]
	}
	return ts
}
