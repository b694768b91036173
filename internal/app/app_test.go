package app

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-watch/monitor/internal/feed"
	"github.com/fraud-watch/monitor/internal/session"
	"github.com/fraud-watch/monitor/internal/views/txlist"
)

type fakeController struct {
	mu     sync.Mutex
	calls  []string
	state  session.State
	ch     chan session.State
	unsubs int
}

func newFakeController() *fakeController {
	return &fakeController{
		state: session.State{Mode: feed.ModeSimulation, Phase: session.PhaseConnecting, Stats: feed.ZeroStats(), BatchSize: 10},
		ch:    make(chan session.State, 1),
	}
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) SetMode(mode feed.Mode) { f.record("mode " + string(mode)) }
func (f *fakeController) StartMode()             { f.record("start") }
func (f *fakeController) StopMode()              { f.record("stop") }
func (f *fakeController) ClearTransactions()     { f.record("clear") }
func (f *fakeController) Reset()                 { f.record("reset") }
func (f *fakeController) State() session.State   { return f.state }

func (f *fakeController) Subscribe() (<-chan session.State, func()) {
	return f.ch, func() { f.unsubs++ }
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestKeysDispatchIntents(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, New(ctrl, WithHelpStyle("notty")))

	for _, k := range []string{"1", "2", "s", "x", "c", "r"} {
		m, _ = press(t, m, runes(k))
	}
	assert.Equal(t, []string{
		"mode simulation", "mode real_model", "start", "stop", "clear", "reset",
	}, ctrl.calls)
}

func TestOverlaysSwallowIntents(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, New(ctrl, WithHelpStyle("notty")))

	m, _ = press(t, m, runes("d"))
	require.Equal(t, OverlayDebug, m.overlay)
	assert.Contains(t, m.View(), "DEBUG LOG")

	m, _ = press(t, m, runes("r"))
	assert.Empty(t, ctrl.calls, "keys inside an overlay do not reach the controller")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, OverlayNone, m.overlay)

	m, _ = press(t, m, runes("?"))
	require.Equal(t, OverlayHelp, m.overlay)
	assert.Contains(t, m.View(), "reset and reconnect")
}

func TestStateMsgUpdatesViews(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, New(ctrl, WithHelpStyle("notty")))

	st := session.State{
		Mode:       feed.ModeRealModel,
		Generation: 4,
		Phase:      session.PhaseConnected,
		Connected:  true,
		Stats:      feed.Stats{TotalProcessed: 321, FraudDetected: 3, DetectionRate: 75, Threshold: feed.DefaultThreshold},
		Transactions: []feed.Transaction{
			{ID: "TXN_REAL_9", Amount: decimal.NewFromInt(5), Type: feed.OutcomeDetectedFraud, FraudProb: 0.8, IsFlagged: true},
			{ID: "TXN_REAL_8", Amount: decimal.NewFromInt(7), Type: feed.OutcomeLegitimate},
		},
		BatchSize: 10,
	}
	next, cmd := m.Update(stateMsg(st))
	m = next.(Model)
	require.NotNil(t, cmd, "keeps waiting for the next state")

	v := m.View()
	for _, want := range []string{"Connected", "Real XGBoost Model", "gen 4", "321", "TXN_REAL_9", "TXN_REAL_8"} {
		assert.Contains(t, v, want)
	}

	m, _ = press(t, m, runes("f"))
	assert.Equal(t, txlist.FilterInteresting, m.txlist.Filter)
	assert.NotContains(t, m.View(), "TXN_REAL_8")
	assert.Contains(t, m.View(), "filter interesting")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, OverlayDetail, m.overlay)
	assert.Contains(t, m.View(), "Transaction: TXN_REAL_9")
}

func TestEnterWithoutTransactionsDoesNothing(t *testing.T) {
	m := sized(t, New(newFakeController(), WithHelpStyle("notty")))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, OverlayNone, m.overlay)
}

func TestQuitUnsubscribes(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, New(ctrl, WithHelpStyle("notty")))
	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, ctrl.unsubs)
}

func TestWaitForStateReportsClose(t *testing.T) {
	ch := make(chan session.State)
	close(ch)
	assert.Equal(t, stateClosedMsg{}, waitForState(ch)())

	ctrl := newFakeController()
	m := sized(t, New(ctrl, WithHelpStyle("notty")))
	next, _ := m.Update(stateClosedMsg{})
	assert.Contains(t, next.(Model).View(), "session stopped")
}

func TestLogLinesReachDebugOverlay(t *testing.T) {
	sink := NewLogSink(8)
	m := sized(t, New(newFakeController(), WithHelpStyle("notty"), WithLogLines(sink.Lines())))

	_, err := sink.Write([]byte("2026/10/17 09:30:00 [ws] gen 1 connected\n[ctl] partial"))
	require.NoError(t, err)
	line := <-sink.Lines()

	next, cmd := m.Update(logLineMsg(line))
	m = next.(Model)
	assert.NotNil(t, cmd)
	require.Len(t, m.debug.Entries, 1)
	assert.Equal(t, "ws", m.debug.Entries[0].Kind)
	assert.Equal(t, "gen 1 connected", m.debug.Entries[0].Message)

	select {
	case extra := <-sink.Lines():
		t.Fatalf("partial line delivered early: %q", extra)
	default:
	}
}

func TestLogSinkDropsWhenFull(t *testing.T) {
	sink := NewLogSink(1)
	n, err := sink.Write([]byte("a\nb\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "a", <-sink.Lines())
	select {
	case l := <-sink.Lines():
		t.Fatalf("unexpected line %q", l)
	default:
	}
}

func TestViewBeforeSize(t *testing.T) {
	m := New(newFakeController())
	assert.True(t, strings.HasPrefix(m.View(), "Initializing"))
}
