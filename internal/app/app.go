// Package app is the root Bubble Tea model. It renders controller state and
// turns key presses into controller intents; it never touches the network.
package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/procstat"
	"github.com/fraud-watch/monitor/internal/session"
	"github.com/fraud-watch/monitor/internal/theme"
	"github.com/fraud-watch/monitor/internal/views/dashboard"
	"github.com/fraud-watch/monitor/internal/views/debug"
	"github.com/fraud-watch/monitor/internal/views/detail"
	"github.com/fraud-watch/monitor/internal/views/help"
	"github.com/fraud-watch/monitor/internal/views/status"
	"github.com/fraud-watch/monitor/internal/views/txlist"
)

const sampleInterval = 2 * time.Second

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayDebug
	OverlayHelp
)

// Controller is the session surface the UI drives.
type Controller interface {
	SetMode(mode feed.Mode)
	StartMode()
	StopMode()
	ClearTransactions()
	Reset()
	State() session.State
	Subscribe() (<-chan session.State, func())
}

type stateMsg session.State

type stateClosedMsg struct{}

type logLineMsg string

type sampleMsg struct {
	sample procstat.Sample
	err    error
}

// Option configures the root model.
type Option func(*Model)

// WithLogLines feeds log lines into the debug overlay.
func WithLogLines(lines <-chan string) Option {
	return func(m *Model) { m.logs = lines }
}

// WithSampler shows process stats in the debug overlay.
func WithSampler(s *procstat.Sampler) Option {
	return func(m *Model) { m.sampler = s }
}

// WithHelpStyle sets the glamour style of the help overlay.
func WithHelpStyle(style string) Option {
	return func(m *Model) { m.helpStyle = style }
}

// Model is the root Bubble Tea model.
type Model struct {
	ctrl        Controller
	states      <-chan session.State
	unsubscribe func()
	logs        <-chan string
	sampler     *procstat.Sampler
	helpStyle   string

	keys   KeyMap
	width  int
	height int

	state   session.State
	overlay Overlay
	stopped bool

	// Sub-views.
	statusBar status.Model
	dashboard dashboard.Model
	txlist    txlist.Model
	debug     debug.Model
	help      *help.Model
	detail    detail.Model
}

// New creates the root model and subscribes to ctrl.
func New(ctrl Controller, opts ...Option) Model {
	m := Model{
		ctrl:      ctrl,
		keys:      DefaultKeyMap(),
		state:     ctrl.State(),
		statusBar: status.New(),
		dashboard: dashboard.New(),
		txlist:    txlist.New(),
		debug:     debug.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	h := help.New(m.helpStyle, m.keys.Bindings()...)
	m.help = &h
	m.states, m.unsubscribe = ctrl.Subscribe()
	m.apply(m.state)
	return m
}

// Init starts listening for state, log lines and process samples.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForState(m.states), m.statusBar.Tick()}
	if m.logs != nil {
		cmds = append(cmds, waitForLog(m.logs))
	}
	if m.sampler != nil {
		cmds = append(cmds, sample(m.sampler, 0))
	}
	return tea.Batch(cmds...)
}

func waitForState(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return stateClosedMsg{}
		}
		return stateMsg(st)
	}
}

func waitForLog(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return logLineMsg(line)
	}
}

func sample(s *procstat.Sampler, after time.Duration) tea.Cmd {
	read := func() tea.Msg {
		smp, err := s.Read()
		return sampleMsg{sample: smp, err: err}
	}
	if after == 0 {
		return read
	}
	return tea.Tick(after, func(time.Time) tea.Msg { return read() })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		m.txlist.Width = msg.Width
		m.txlist.Height = m.listHeight()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		cmd := m.apply(session.State(msg))
		return m, tea.Batch(cmd, waitForState(m.states))

	case stateClosedMsg:
		m.stopped = true
		return m, nil

	case logLineMsg:
		m.debug.AddLine(string(msg))
		return m, waitForLog(m.logs)

	case sampleMsg:
		if msg.err == nil {
			m.debug.Footer = msg.sample.String()
		}
		return m, sample(m.sampler, sampleInterval)

	case dashboard.FrameMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.statusBar, cmd = m.statusBar.Update(msg)
	return m, cmd
}

// apply pushes a controller snapshot into the sub-views.
func (m *Model) apply(st session.State) tea.Cmd {
	m.state = st
	m.statusBar.SetState(st)
	m.txlist.BatchSize = st.BatchSize
	m.txlist.SetTransactions(st.Transactions)
	return m.dashboard.SetStats(st.Stats)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.unsubscribe()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Simulation):
		m.ctrl.SetMode(feed.ModeSimulation)

	case key.Matches(msg, m.keys.RealModel):
		m.ctrl.SetMode(feed.ModeRealModel)

	case key.Matches(msg, m.keys.Start):
		m.ctrl.StartMode()

	case key.Matches(msg, m.keys.Stop):
		m.ctrl.StopMode()

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.ClearTransactions()

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()

	case key.Matches(msg, m.keys.Filter):
		m.txlist.ToggleFilter()
		m.statusBar.Filter = ""
		if m.txlist.Filter != txlist.FilterAll {
			m.statusBar.Filter = m.txlist.Filter.String()
		}

	case key.Matches(msg, m.keys.Down):
		m.txlist.MoveDown()

	case key.Matches(msg, m.keys.Up):
		m.txlist.MoveUp()

	case key.Matches(msg, m.keys.Enter):
		if tx, ok := m.txlist.Selected(); ok {
			m.detail = detail.New(tx, m.state.Stats.Threshold)
			m.overlay = OverlayDetail
		}

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
	}

	return m, nil
}

func (m Model) listHeight() int {
	// status bar (3) + cards (4) + gauge (1) + list header (1) + footer (1)
	h := m.height - 10
	if h < 3 {
		h = 3
	}
	return h
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case OverlayDebug:
		return m.debug.View(m.width, m.height)
	case OverlayHelp:
		return m.help.View(m.width)
	case OverlayDetail:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.detail.View())
	}

	footer := "  1/2:mode  s:start  x:stop  r:reset  c:clear  f:filter  enter:detail  d:debug  ?:help  q:quit"
	if m.stopped {
		footer = "  session stopped  q:quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		m.dashboard.View(),
		m.txlist.View(),
		theme.StyleDimmed.Render(footer),
	)
}
