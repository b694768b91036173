package session

import "github.com/fraud-watch/monitor/internal/feed"

// Reconcile decides whether an incoming stats snapshot replaces the one held
// locally. A snapshot with neither processed records nor detections is
// taken to predate the server's own reset and is dropped, so a stale message
// cannot resurrect counters the client just zeroed.
//
// Known gap: a genuinely idle feed also reports zeros and is suppressed the
// same way. The rule is kept as-is for compatibility with the backend.
func Reconcile(current, incoming feed.Stats) feed.Stats {
	if incoming.TotalProcessed == 0 && incoming.FraudDetected == 0 {
		return current
	}
	if incoming.Threshold == 0 {
		incoming.Threshold = feed.DefaultThreshold
	}
	return incoming
}
