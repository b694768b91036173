// Package session implements the client-side session lifecycle: one
// generation-tagged streaming connection at a time, reconciliation of pushed
// stats, the recent-transactions ring and the stop/reset/reconnect sequence.
package session

import "github.com/fraud-watch/monitor/internal/feed"

// Capacity is the number of recent transactions kept.
const Capacity = 50

// Phase is the connection state of the controller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// State is an immutable copy of the controller's public state.
type State struct {
	Mode         feed.Mode
	Generation   uint64
	Phase        Phase
	Connected    bool
	Stats        feed.Stats
	Transactions []feed.Transaction // newest first
	BatchSize    int
	// Resetting is true while a control-surface reset is awaited.
	Resetting bool
	// Discarded counts events from superseded generations.
	Discarded uint64
}
