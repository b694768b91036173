package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/fraud-watch/monitor/internal/feed"
)

// Transport opens one streaming connection per generation.
type Transport interface {
	Open(mode feed.Mode, gen uint64, sink feed.Sink) feed.Handle
}

// Control is the backend control surface.
type Control interface {
	Start(ctx context.Context, mode feed.Mode) error
	Stop(ctx context.Context, mode feed.Mode) error
	Reset(ctx context.Context, mode feed.Mode) (string, error)
}

// ErrRunning is returned when Run is called twice.
var ErrRunning = errors.New("session: controller already running")

const eventQueueSize = 256

type eventKind int

const (
	evTransport eventKind = iota
	evSetMode
	evStart
	evStop
	evClear
	evReset
	evResetSettled
)

type event struct {
	kind      eventKind
	mode      feed.Mode
	transport feed.Event
	message   string
	err       error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the log sink. Lines are tagged [ws], [ctl], [state] or
// [err].
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller owns the session. All state below the loop marker is touched
// only by the goroutine running Run; everything else talks to it through
// the event queue.
type Controller struct {
	transport Transport
	control   Control
	logger    *log.Logger

	events  chan event
	done    chan struct{}
	running atomic.Bool
	tasks   sync.WaitGroup

	current atomic.Pointer[State]
	subMu   sync.Mutex
	subs    map[chan State]struct{}
	closed  bool

	// loop-owned
	ctx       context.Context
	mode      feed.Mode
	gen       uint64
	phase     Phase
	handle    feed.Handle
	stats     feed.Stats
	ring      *Ring[feed.Transaction]
	batchSize int
	resetting int
	discarded uint64
}

// New creates a controller in IDLE for generation 0 bound to mode. Nothing
// is opened until Run.
func New(transport Transport, control Control, mode feed.Mode, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		control:   control,
		logger:    log.Default(),
		events:    make(chan event, eventQueueSize),
		done:      make(chan struct{}),
		subs:      make(map[chan State]struct{}),
		mode:      mode,
		phase:     PhaseIdle,
		stats:     feed.ZeroStats(),
		ring:      NewRing[feed.Transaction](Capacity),
		batchSize: feed.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	st := c.snapshot()
	c.current.Store(&st)
	return c
}

// Run opens generation 0 and processes events until ctx is cancelled, then
// closes the active connection. Pending control calls are abandoned.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	c.ctx = ctx
	defer func() {
		close(c.done)
		c.tasks.Wait()
	}()

	c.open()
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case ev := <-c.events:
			c.dispatch(ev)
			c.publish()
		}
	}
}

// SetMode switches the feed. A no-op when mode is already active.
func (c *Controller) SetMode(mode feed.Mode) { c.post(event{kind: evSetMode, mode: mode}) }

// StartMode asks the backend to start producing the current mode's feed.
func (c *Controller) StartMode() { c.post(event{kind: evStart}) }

// StopMode asks the backend to stop producing the current mode's feed.
func (c *Controller) StopMode() { c.post(event{kind: evStop}) }

// ClearTransactions empties the recent-transactions display.
func (c *Controller) ClearTransactions() { c.post(event{kind: evClear}) }

// Reset stops the feed, waits for the backend reset to settle and then
// reconnects under a new generation, whatever the reset's outcome.
func (c *Controller) Reset() { c.post(event{kind: evReset}) }

// State returns the most recently published state.
func (c *Controller) State() State {
	return *c.current.Load()
}

// Subscribe returns a channel that always holds the latest state; older
// undelivered states are replaced. The channel is closed when the
// controller stops or cancel is called.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	ch <- *c.current.Load()

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) sink(ev feed.Event) {
	c.post(event{kind: evTransport, transport: ev})
}

func (c *Controller) dispatch(ev event) {
	switch ev.kind {
	case evTransport:
		c.onTransport(ev.transport)
	case evSetMode:
		c.setMode(ev.mode)
	case evStart:
		c.fire("start", c.control.Start)
	case evStop:
		c.fire("stop", c.control.Stop)
	case evClear:
		c.ring.Clear()
	case evReset:
		c.reset()
	case evResetSettled:
		c.resetSettled(ev)
	}
}

func (c *Controller) setMode(mode feed.Mode) {
	if _, err := feed.ParseMode(string(mode)); err != nil {
		c.logf("err", "ignoring mode change: %v", err)
		return
	}
	if mode == c.mode {
		return
	}
	c.logf("state", "mode %s -> %s", c.mode, mode)
	c.mode = mode
	c.bump()
}

// reset runs the three-step sequence. Step 3 happens in resetSettled, after
// the control call has completed either way.
func (c *Controller) reset() {
	c.fire("stop", c.control.Stop)

	c.resetting++
	mode := c.mode
	ctx := c.ctx
	c.logf("ctl", "resetting backend for %s", mode)
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		msg, err := c.control.Reset(ctx, mode)
		c.post(event{kind: evResetSettled, mode: mode, message: msg, err: err})
	}()
}

func (c *Controller) resetSettled(ev event) {
	if c.resetting > 0 {
		c.resetting--
	}
	if ev.err != nil {
		c.logf("ctl", "backend reset for %s failed, continuing with local reset: %v", ev.mode, ev.err)
	} else {
		c.logf("ctl", "backend reset for %s: %s", ev.mode, ev.message)
	}
	c.bump()
}

// fire runs a control call in the background; failures are only logged.
func (c *Controller) fire(action string, call func(context.Context, feed.Mode) error) {
	mode := c.mode
	ctx := c.ctx
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		if err := call(ctx, mode); err != nil {
			c.logf("ctl", "could not %s %s: %v", action, mode, err)
			return
		}
		c.logf("ctl", "%s %s ok", action, mode)
	}()
}

// bump retires the current generation and opens the next one. Closing the
// old handle is only requested; its late events are dropped by generation.
func (c *Controller) bump() {
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
	c.gen++
	c.open()
}

func (c *Controller) open() {
	c.phase = PhaseConnecting
	c.handle = c.transport.Open(c.mode, c.gen, c.sink)
	c.logf("state", "gen %d connecting to %s", c.gen, c.mode)
}

func (c *Controller) onTransport(ev feed.Event) {
	if ev.Generation != c.gen {
		c.discarded++
		return
	}
	switch ev.Kind {
	case feed.EventOpen:
		if c.phase == PhaseConnecting {
			c.phase = PhaseConnected
			c.logf("ws", "gen %d connected", ev.Generation)
		}
	case feed.EventMessage:
		c.onMessage(ev.Data)
	case feed.EventError:
		c.logf("err", "gen %d transport error: %v", ev.Generation, ev.Err)
		c.phase = PhaseDisconnected
	case feed.EventClose:
		if c.phase != PhaseDisconnected {
			c.logf("ws", "gen %d closed", ev.Generation)
		}
		c.phase = PhaseDisconnected
	}
}

func (c *Controller) onMessage(data []byte) {
	env, err := feed.Decode(data)
	if err != nil {
		c.logf("err", "discarding message: %v", err)
		return
	}

	switch env.Type {
	case feed.MsgConnected:
		c.logf("ws", "server connected: %s", env.Message)
		// The server may not have finished its own reset yet.
		c.stats = feed.ZeroStats()
		c.ring.Clear()

	case feed.MsgBatch, feed.MsgTransactions:
		if env.BatchSize != nil && *env.BatchSize > 0 {
			c.batchSize = *env.BatchSize
		}
		if len(env.Transactions) > 0 {
			c.ring.Push(env.Transactions)
		}
		if env.Stats != nil {
			c.stats = Reconcile(c.stats, *env.Stats)
		}

	default:
		c.logf("ws", "ignoring message type %q", env.Type)
	}
}

func (c *Controller) shutdown() {
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
	c.phase = PhaseDisconnected
	c.publish()
	c.logf("state", "controller stopped at gen %d", c.gen)

	c.subMu.Lock()
	c.closed = true
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.subMu.Unlock()
}

func (c *Controller) snapshot() State {
	return State{
		Mode:         c.mode,
		Generation:   c.gen,
		Phase:        c.phase,
		Connected:    c.phase == PhaseConnected,
		Stats:        c.stats,
		Transactions: c.ring.Snapshot(),
		BatchSize:    c.batchSize,
		Resetting:    c.resetting > 0,
		Discarded:    c.discarded,
	}
}

func (c *Controller) publish() {
	st := c.snapshot()
	c.current.Store(&st)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (c *Controller) logf(kind, format string, args ...interface{}) {
	c.logger.Printf("["+kind+"] "+format, args...)
}
