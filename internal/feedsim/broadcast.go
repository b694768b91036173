package feedsim

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fraud-watch/monitor/internal/feed"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Broadcaster fans one mode's messages out to its websocket clients.
type Broadcaster struct {
	mode    feed.Mode
	logger  *log.Logger
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewBroadcaster(mode feed.Mode, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		mode:    mode,
		logger:  logger,
		clients: make(map[*client]bool),
	}
}

// AddClient registers conn and greets it with a connected message.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	// The greeting goes first so no batch can overtake it.
	hello := feed.Envelope{
		Type:    feed.MsgConnected,
		Message: "Connected to " + b.mode.Label() + " feed",
	}
	data, _ := json.Marshal(hello)
	c.send <- data

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Broadcast sends env to every client, disconnecting any that cannot keep up.
func (b *Broadcaster) Broadcast(env feed.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Printf("[err] broadcast marshal: %v", err)
		return
	}

	// Sends happen under the read lock so no channel is closed mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.logger.Printf("[ws] %s client too slow, disconnecting", b.mode)
		b.RemoveClient(c)
	}
}

// CloseAll disconnects every client.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
