package feed

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoType is returned for payloads without a type tag.
var ErrNoType = errors.New("message has no type")

// Decode parses a raw websocket payload. Unknown types decode without error;
// callers decide whether to act on them.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrNoType
	}
	// The threshold is fixed for the session; the server does not send it.
	if env.Stats != nil && env.Stats.Threshold == 0 {
		env.Stats.Threshold = DefaultThreshold
	}
	return env, nil
}

// Known reports whether the envelope type is one the client acts on.
func (e Envelope) Known() bool {
	switch e.Type {
	case MsgConnected, MsgBatch, MsgTransactions:
		return true
	}
	return false
}
