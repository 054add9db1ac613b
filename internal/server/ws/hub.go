// Package ws bridges the Redis signal bus to WebSocket clients. The refresh
// loop publishes window rollovers on the markets channel; order events flow
// on the orders channel.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/framecast/internal/domain"
	"github.com/alanyoungcy/framecast/internal/window"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// defaultChannels are the Redis pub/sub channels the hub relays.
var defaultChannels = []string{
	"markets",
	"orders",
}

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool // subscribed channels
	mu   sync.RWMutex
}

// subscribeMsg is the JSON message a client sends to manage its channel
// subscriptions: {"action":"subscribe","channels":["orders"]}.
type subscribeMsg struct {
	Action   string   `json:"action"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// Hub manages connected WebSocket clients and fans messages from the signal
// bus out to all subscribed clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	bus        domain.SignalBus
	width      time.Duration
	startedAt  time.Time
	mu         sync.RWMutex
	logger     *slog.Logger
}

// broadcastMsg carries a message along with its source channel so the hub
// can route it only to clients subscribed to that channel.
type broadcastMsg struct {
	channel string
	data    []byte
}

// Config captures the metadata used in the status snapshot sent to clients
// on connect.
type Config struct {
	Width     time.Duration
	StartedAt time.Time
}

// NewHub creates a Hub that bridges a SignalBus to WebSocket clients.
func NewHub(bus domain.SignalBus, logger *slog.Logger, cfg Config) *Hub {
	width := cfg.Width
	if width <= 0 {
		width = window.DefaultWidth
	}
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		bus:        bus,
		width:      width,
		startedAt:  startedAt,
		logger:     logger.With(slog.String("component", "ws")),
	}
}

// Run starts the hub's main event loop. It handles client registration,
// unregistration, and message broadcasting, and exits when the context is
// cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for _, ch := range defaultChannels {
		go h.subscribeToChannel(ctx, ch)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("client connected",
				slog.Int("total_clients", h.clientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("client disconnected",
				slog.Int("total_clients", h.clientCount()),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.isSubscribed(msg.channel) {
					select {
					case c.send <- msg.data:
					default:
						// Client's send buffer is full; drop the message.
						h.logger.Warn("dropping message for slow client")
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// subscribeToChannel subscribes to a single bus channel and forwards
// received messages to the hub's broadcast channel.
func (h *Hub) subscribeToChannel(ctx context.Context, channel string) {
	msgCh, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("channel subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}

	h.logger.Info("subscribed to channel", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("channel subscription closed",
					slog.String("channel", channel),
				)
				return
			}
			h.broadcast <- broadcastMsg{
				channel: channel,
				data:    envelope(channel, data),
			}
		}
	}
}

// envelope wraps a bus payload in a typed JSON frame. Payloads that are not
// valid JSON are forwarded as strings.
func envelope(channel string, data []byte) []byte {
	if !json.Valid(data) {
		wrapped, _ := json.Marshal(map[string]string{
			"type":    channel,
			"payload": string(data),
		})
		return wrapped
	}
	wrapped, _ := json.Marshal(map[string]any{
		"type":    channel,
		"payload": json.RawMessage(data),
	})
	return wrapped
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}

	// Subscribe to all default channels initially.
	for _, ch := range defaultChannels {
		c.subs[ch] = true
	}

	h.register <- c
	c.sendInitialStatus()

	go c.writePump()
	go c.readPump()
}

// clientCount returns the number of currently connected clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump reads messages from the WebSocket connection. It handles
// subscription management requests (JSON text frames) from the client.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var sub subscribeMsg
		if jsonErr := json.Unmarshal(message, &sub); jsonErr == nil && sub.Action != "" {
			c.handleSubscription(sub)
		}
	}
}

// handleSubscription processes subscribe/unsubscribe requests from the client.
func (c *client) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case "subscribe":
		for _, ch := range msg.Channels {
			c.subs[ch] = true
		}
	case "unsubscribe":
		for _, ch := range msg.Channels {
			delete(c.subs, ch)
		}
	}
}

// sendInitialStatus pushes a small JSON envelope so clients can immediately
// mark the connection as healthy and schedule against the next refresh.
func (c *client) sendInitialStatus() {
	now := time.Now()
	uptime := int64(now.Sub(c.hub.startedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	msg, err := json.Marshal(map[string]any{
		"type": "status",
		"payload": map[string]any{
			"ws_connected":   true,
			"uptime_seconds": uptime,
			"window_start":   window.Current(c.hub.width, now),
			"next_refresh":   window.Next(c.hub.width, now),
		},
	})
	if err != nil {
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

// isSubscribed checks whether the client is subscribed to the given channel.
func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[channel]
}

// writePump pumps messages from the hub to the WebSocket connection as text
// frames, with periodic ping frames for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
