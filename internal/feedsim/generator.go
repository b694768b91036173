package feedsim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fraud-watch/monitor/internal/feed"
)

const (
	detectProbability     = 0.85
	falseAlarmProbability = 0.03
)

// Generator produces scored transactions for one mode and keeps that
// mode's running counters.
type Generator struct {
	mode      feed.Mode
	fraudRate float64

	mu        sync.Mutex
	rng       *rand.Rand
	now       func() time.Time
	seq       int64
	started   bool
	startedAt time.Time
	stats     feed.Stats
}

// NewGenerator creates a stopped generator. seed makes output repeatable.
func NewGenerator(mode feed.Mode, fraudRate float64, seed int64) *Generator {
	return &Generator{
		mode:      mode,
		fraudRate: fraudRate,
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
		stats:     feed.ZeroStats(),
	}
}

// Start enables batch production. Restarting keeps the counters.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		g.started = true
		if g.startedAt.IsZero() {
			g.startedAt = g.now()
		}
	}
}

// Stop pauses batch production.
func (g *Generator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started = false
}

// Running reports whether the generator is started.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Reset zeroes the counters and the speed clock.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = feed.ZeroStats()
	g.startedAt = time.Time{}
	if g.started {
		g.startedAt = g.now()
	}
}

// Stats returns the current counters.
func (g *Generator) Stats() feed.Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Next generates n records and folds them into the counters.
func (g *Generator) Next(n int) ([]feed.Transaction, feed.Stats) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]feed.Transaction, n)
	for i := range out {
		out[i] = g.record()
		g.count(out[i])
	}
	g.derive()
	return out, g.stats
}

func (g *Generator) record() feed.Transaction {
	g.seq++
	prefix := "TXN_SIM"
	if g.mode == feed.ModeRealModel {
		prefix = "TXN_REAL"
	}

	var outcome feed.Outcome
	var prob float64
	threshold := feed.DefaultThreshold
	if g.rng.Float64() < g.fraudRate {
		if g.rng.Float64() < detectProbability {
			outcome = feed.OutcomeDetectedFraud
			prob = threshold + g.rng.Float64()*(1-threshold)
		} else {
			outcome = feed.OutcomeMissedFraud
			prob = g.rng.Float64() * threshold
		}
	} else if g.rng.Float64() < falseAlarmProbability {
		outcome = feed.OutcomeFalseAlarm
		prob = threshold + g.rng.Float64()*(0.5-threshold)
	} else {
		outcome = feed.OutcomeLegitimate
		prob = g.rng.Float64() * threshold
	}

	cents := 100 + g.rng.Int63n(5_000_000)
	return feed.Transaction{
		ID:        fmt.Sprintf("%s_%08d", prefix, g.seq),
		Timestamp: g.now().UTC().Format("2006-01-02T15:04:05.000"),
		Amount:    decimal.New(cents, -2),
		Type:      outcome,
		FraudProb: prob,
		IsFlagged: prob >= threshold,
	}
}

func (g *Generator) count(tx feed.Transaction) {
	g.stats.TotalProcessed++
	switch tx.Type {
	case feed.OutcomeDetectedFraud:
		g.stats.FraudDetected++
	case feed.OutcomeMissedFraud:
		g.stats.MissedFraud++
	case feed.OutcomeFalseAlarm:
		g.stats.FalseAlarms++
	}
}

func (g *Generator) derive() {
	s := &g.stats
	if fraud := s.FraudDetected + s.MissedFraud; fraud > 0 {
		s.DetectionRate = float64(s.FraudDetected) / float64(fraud) * 100
	}
	if s.TotalProcessed > 0 {
		s.AlertRate = float64(s.FraudDetected+s.FalseAlarms) / float64(s.TotalProcessed) * 100
	}
	if !g.startedAt.IsZero() {
		if elapsed := g.now().Sub(g.startedAt).Seconds(); elapsed > 0 {
			s.ProcessingSpeed = float64(s.TotalProcessed) / elapsed
		}
	}
	s.Threshold = feed.DefaultThreshold
}
