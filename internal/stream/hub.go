// Package stream fans change-monitor events out to websocket subscribers.
// Clients subscribe to one sport or to everything; slow clients are dropped
// rather than allowed to stall the broadcast loop.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is broadcast-only and carries no credentials, so any origin
	// may subscribe.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Message is the wire envelope for one broadcast.
type Message struct {
	Kind    string           `json:"kind"` // connected | changes
	Sport   models.Sport     `json:"sport,omitempty"`
	Changes []monitor.Change `json:"changes,omitempty"`
	At      string           `json:"at"`
}

// client is one subscriber connection. An empty sport means all sports.
type client struct {
	sport models.Sport
	conn  *websocket.Conn
	send  chan Message
}

func (c *client) wants(sport models.Sport) bool {
	return c.sport == "" || c.sport == sport
}

// Hub owns the subscriber set and the broadcast loop. It satisfies
// monitor.Sink, so the monitor publishes straight into it.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}
	clk        clock.Clock
	log        zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]bool
	closed  bool
}

// NewHub builds a hub. Run must be started before clients connect.
func NewHub(clk clock.Clock, log zerolog.Logger) *Hub {
	if clk == nil {
		clk = clock.System{}
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 256),
		done:       make(chan struct{}),
		clk:        clk,
		log:        log.With().Str("component", "stream").Logger(),
		clients:    make(map[*client]bool),
	}
}

// Run drives registration and broadcast until Close. Call it on its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Str("sport", string(c.sport)).Int("clients", n).Msg("subscriber connected")

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				if c.wants(msg.Sport) {
					targets = append(targets, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range targets {
				select {
				case c.send <- msg:
				default:
					// The client cannot keep up; cut it loose instead of
					// blocking every other subscriber.
					h.log.Warn().Str("sport", string(c.sport)).Msg("subscriber too slow, dropping")
					h.drop(c)
				}
			}

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close stops the broadcast loop and disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()
	close(h.done)
}

// Publish queues one sport's change batch for broadcast. Implements
// monitor.Sink. Publishing to a full hub drops the batch; the snapshot on
// disk remains the source of truth.
func (h *Hub) Publish(sport models.Sport, changes []monitor.Change) {
	if len(changes) == 0 {
		return
	}
	msg := Message{
		Kind:    "changes",
		Sport:   sport,
		Changes: changes,
		At:      clock.ISO(clock.NowET(h.clk)),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("sport", string(sport)).Int("changes", len(changes)).Msg("broadcast queue full, batch dropped")
	}
}

// Subscribers reports the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades one HTTP request into a feed subscription. The sport
// query parameter narrows the feed; absent means all sports.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sport := models.Sport(r.URL.Query().Get("sport"))
	if sport != "" && !sport.Valid() {
		http.Error(w, "unknown sport", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{sport: sport, conn: conn, send: make(chan Message, sendBufferSize)}
	h.register <- c

	go c.writePump(h)
	go c.readPump(h)

	c.send <- Message{Kind: "connected", Sport: sport, At: clock.ISO(clock.NowET(h.clk))}
}

// readPump drains inbound frames so pongs are processed, and unregisters on
// first error. Subscribers have nothing meaningful to send.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes queued messages onto the connection and keeps the
// peer alive with pings.
func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
