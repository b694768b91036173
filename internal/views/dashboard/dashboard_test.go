package dashboard

import (
	"strings"
	"testing"

	"github.com/fraud-watch/monitor/internal/feed"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{2_300_000, "2.3M"},
	}
	for _, tt := range tests {
		if got := formatCount(tt.n); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestViewShowsCards(t *testing.T) {
	m := New()
	m.Width = 200
	m.SetStats(feed.Stats{
		TotalProcessed: 12500, FraudDetected: 31, MissedFraud: 4, FalseAlarms: 120,
		DetectionRate: 88.6, AlertRate: 1.2, ProcessingSpeed: 250, Threshold: feed.DefaultThreshold,
	})
	v := m.View()
	for _, want := range []string{"Processed", "12.5K", "31", "0.063", "88.6%", "250/s"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestGaugeSettlesOnTarget(t *testing.T) {
	m := New()
	cmd := m.SetStats(feed.Stats{TotalProcessed: 10, DetectionRate: 75})
	if cmd == nil {
		t.Fatal("expected a frame command when the rate moves")
	}
	if again := m.SetStats(feed.Stats{TotalProcessed: 11, DetectionRate: 75}); again != nil {
		t.Error("no second frame loop while already animating")
	}

	prev := m.Gauge()
	for i := 0; i < 600 && cmd != nil; i++ {
		m, cmd = m.Update(FrameMsg{})
		if i == 0 && m.Gauge() <= prev {
			t.Error("gauge should move toward the target on the first frame")
		}
	}
	if cmd != nil {
		t.Fatal("gauge never settled")
	}
	if m.Gauge() != 75 {
		t.Errorf("Gauge() = %v, want 75", m.Gauge())
	}
}

func TestSetStatsAtRestNeedsNoFrames(t *testing.T) {
	m := New()
	if cmd := m.SetStats(feed.ZeroStats()); cmd != nil {
		t.Error("unchanged zero rate should not animate")
	}
	if _, cmd := m.Update("other"); cmd != nil {
		t.Error("non-frame messages are ignored")
	}
}
