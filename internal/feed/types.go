// Package feed provides the streaming and control clients for the fraud
// detection backend. Types mirror the backend wire protocol.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects which upstream feed is active.
type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModeRealModel  Mode = "real_model"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeSimulation, ModeRealModel}

// ParseMode accepts the wire name of a mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case ModeSimulation:
		return ModeSimulation, nil
	case ModeRealModel:
		return ModeRealModel, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Endpoint returns the websocket path serving this mode.
func (m Mode) Endpoint() string {
	if m == ModeRealModel {
		return "/ws/real-model"
	}
	return "/ws/simulation"
}

// Label returns a display name.
func (m Mode) Label() string {
	switch m {
	case ModeSimulation:
		return "Simulation"
	case ModeRealModel:
		return "Real XGBoost Model"
	default:
		return string(m)
	}
}

// MessageType identifies the kind of websocket message.
type MessageType string

const (
	MsgConnected    MessageType = "connected"
	MsgBatch        MessageType = "batch"
	MsgTransactions MessageType = "transactions"
)

// DefaultThreshold is the fixed decision threshold of the scoring model.
const DefaultThreshold = 0.063

// DefaultBatchSize is assumed until the server reports one.
const DefaultBatchSize = 10

// Outcome classifies a scored transaction against its ground truth.
type Outcome string

const (
	OutcomeDetectedFraud Outcome = "detected_fraud"
	OutcomeMissedFraud   Outcome = "missed_fraud"
	OutcomeFalseAlarm    Outcome = "false_alarm"
	OutcomeLegitimate    Outcome = "legitimate"
)

// Transaction is a single classified record. Immutable once received.
type Transaction struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Type      Outcome         `json:"type"`
	FraudProb float64         `json:"fraud_prob"`
	IsFlagged bool            `json:"is_flagged"`
}

// MarshalJSON writes the amount as a bare JSON number, as the backend does.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(t), json.Number(t.Amount.String())})
}

// Interesting reports whether the record is fraud related.
func (t Transaction) Interesting() bool {
	return t.Type != OutcomeLegitimate
}

// Currency returns the symbol the record's amount is denominated in.
// Real-model records come from a USD dataset; simulated ones are INR.
func (t Transaction) Currency() string {
	if strings.Contains(t.ID, "REAL") {
		return "$"
	}
	return "₹"
}

// Stats is the aggregate snapshot computed by the backend. It is replaced
// wholesale, never mutated field by field.
type Stats struct {
	TotalProcessed  int64   `json:"total_processed"`
	FraudDetected   int64   `json:"fraud_detected"`
	MissedFraud     int64   `json:"missed_fraud"`
	FalseAlarms     int64   `json:"false_alarms"`
	DetectionRate   float64 `json:"detection_rate"`
	ProcessingSpeed float64 `json:"processing_speed"`
	AlertRate       float64 `json:"alert_rate"`
	Threshold       float64 `json:"threshold,omitempty"`
}

// ZeroStats returns the snapshot of a freshly reset session.
func ZeroStats() Stats {
	return Stats{Threshold: DefaultThreshold}
}

// Envelope is a decoded inbound message. Fields not carried by the
// message type are left zero.
type Envelope struct {
	Type         MessageType   `json:"type"`
	Message      string        `json:"message,omitempty"`
	BatchSize    *int          `json:"batch_size,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Stats        *Stats        `json:"stats,omitempty"`
}

// ResetResponse is returned by POST /api/reset/{mode}.
type ResetResponse struct {
	Message string `json:"message"`
}
