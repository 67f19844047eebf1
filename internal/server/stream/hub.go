// Package stream fans change signals out to live clients. A Hub bridges the
// Redis signal bus to Server-Sent Events and WebSocket connections; clients
// receive a refresh envelope whenever any bet changes and re-fetch the list.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// ssePingPeriod keeps idle SSE connections alive through proxies.
	ssePingPeriod = 30 * time.Second

	// maxMessageSize is the maximum size of an incoming WebSocket message.
	maxMessageSize = 512

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 16
)

// ChannelBets is the pub/sub channel carrying bet change signals.
const ChannelBets = "bets"

// RefreshPayload is the envelope published on every bet change. Clients
// treat any message on the channel as a cue to re-fetch.
var RefreshPayload = []byte(`{"type":"refresh"}`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is a single connected consumer, SSE or WebSocket. The hub only
// writes to send; the transport-specific handler drains it.
type client struct {
	hub  *Hub
	send chan []byte
}

// Hub manages live clients and rebroadcasts messages from the signal bus.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	bus        domain.SignalBus
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewHub creates a hub bridging the given signal bus to connected clients.
func NewHub(bus domain.SignalBus, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		bus:        bus,
		logger:     logger.With(slog.String("component", "stream")),
	}
}

// Run starts the hub's event loop. It should be called in a goroutine and
// exits when the context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	go h.subscribeBus(ctx)

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
			h.logger.Info("client connected", slog.Int("total_clients", h.clientCount()))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("client disconnected", slog.Int("total_clients", h.clientCount()))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Send buffer full; the client will catch up on
					// the next signal.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// subscribeBus forwards bus messages to the hub's broadcast channel.
func (h *Hub) subscribeBus(ctx context.Context) {
	msgCh, err := h.bus.Subscribe(ctx, ChannelBets)
	if err != nil {
		h.logger.Error("failed to subscribe to channel",
			slog.String("channel", ChannelBets),
			slog.String("error", err.Error()),
		)
		return
	}

	h.logger.Info("subscribed to channel", slog.String("channel", ChannelBets))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("channel subscription closed", slog.String("channel", ChannelBets))
				return
			}
			h.broadcast <- data
		}
	}
}

// HandleSSE streams change signals as Server-Sent Events.
// GET /api/events
func (h *Hub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	c := &client{hub: h, send: make(chan []byte, sendBufferSize)}
	h.register <- c
	defer func() { h.unregister <- c }()

	w.Write([]byte("event: connected\ndata: {}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(ssePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("data: " + string(msg) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write([]byte("event: ping\ndata: {}\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleWS upgrades the request to a WebSocket and registers the client.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{hub: h, send: make(chan []byte, sendBufferSize)}
	h.register <- c

	go c.writePump(conn)
	go c.readPump(conn)
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the WebSocket connection. Clients send nothing
// meaningful; reads exist to notice disconnects and answer pings.
func (c *client) readPump(conn *websocket.Conn) {
	defer func() {
		c.hub.unregister <- c
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump pumps hub messages to the WebSocket connection with periodic
// ping frames for keepalive.
func (c *client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
