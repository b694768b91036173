package feed

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	pongTimeout      = 60 * time.Second
	pingInterval     = 30 * time.Second
	closeGrace       = 2 * time.Second
)

// EventKind identifies a transport callback.
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventError
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is delivered by a connection, tagged with the generation it was
// opened for.
type Event struct {
	Generation uint64
	Kind       EventKind
	Data       []byte
	Err        error
}

// Sink receives connection events. It is called from the connection's own
// goroutine and must not block for long.
type Sink func(Event)

// Handle is one open (or opening) streaming connection.
type Handle interface {
	Generation() uint64
	Mode() Mode
	Close()
}

// Dialer opens streaming connections against one backend.
type Dialer struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
	logger  *log.Logger
}

// NewDialer creates a dialer for the given websocket base URL
// (e.g. "ws://localhost:8000"). A nil logger uses log.Default().
func NewDialer(baseURL, token string, logger *log.Logger) *Dialer {
	if logger == nil {
		logger = log.Default()
	}
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = handshakeTimeout
	return &Dialer{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  &d,
		logger:  logger,
	}
}

// URL returns the websocket URL serving mode.
func (d *Dialer) URL(mode Mode) string {
	return d.baseURL + mode.Endpoint()
}

// Open starts connecting in the background and returns immediately.
// Every event of the returned handle carries gen.
func (d *Dialer) Open(mode Mode, gen uint64, sink Sink) Handle {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		mode:   mode,
		gen:    gen,
		url:    d.URL(mode),
		sink:   sink,
		logger: d.logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var header http.Header
	if d.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + d.token}}
	}

	d.logger.Printf("[ws] gen %d dialing %s", gen, c.url)
	go c.run(ctx, d.dialer, header)
	return c
}

// Conn is a single websocket connection owned by one generation. It never
// reconnects.
type Conn struct {
	mode   Mode
	gen    uint64
	url    string
	sink   Sink
	logger *log.Logger
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	ws        *websocket.Conn
	closing   bool
	closeOnce sync.Once
}

// Generation returns the generation this connection belongs to.
func (c *Conn) Generation() uint64 { return c.gen }

// Mode returns the mode this connection streams.
func (c *Conn) Mode() Mode { return c.mode }

// Done is closed once the connection goroutine has exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close requests a normal closure. It is idempotent and does not wait for
// the closing handshake.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		ws := c.ws
		c.mu.Unlock()

		if ws == nil {
			// Still dialing: abort the handshake.
			c.cancel()
			return
		}

		go func() {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session superseded")
			if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil {
				ws.Close()
				return
			}
			select {
			case <-c.done:
			case <-time.After(closeGrace):
				ws.Close()
			}
		}()
	})
}

func (c *Conn) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *Conn) emit(kind EventKind, data []byte, err error) {
	if c.sink == nil {
		return
	}
	c.sink(Event{Generation: c.gen, Kind: kind, Data: data, Err: err})
}

func (c *Conn) run(ctx context.Context, dialer *websocket.Dialer, header http.Header) {
	defer close(c.done)
	defer c.cancel()

	ws, resp, err := dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if !c.isClosing() {
			c.emit(EventError, nil, err)
		}
		c.emit(EventClose, nil, nil)
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		ws.Close()
		c.emit(EventClose, nil, nil)
		return
	}
	c.ws = ws
	c.mu.Unlock()
	defer ws.Close()

	c.emit(EventOpen, nil, nil)

	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	ws.SetReadDeadline(time.Now().Add(pongTimeout))
	go c.pingLoop(ctx, ws)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !c.isClosing() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emit(EventError, nil, err)
			}
			c.emit(EventClose, nil, nil)
			return
		}
		c.emit(EventMessage, data, nil)
	}
}

// pingLoop keeps the read deadline alive on an otherwise quiet feed. It
// exits when the connection goroutine does.
func (c *Conn) pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
