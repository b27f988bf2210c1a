// Package hub fans events out to Server-Sent Events clients.
package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is an event addressed to clients. An empty View reaches clients of
// every view; an empty Client reaches every client of the view.
type Message struct {
	View   string
	Client string
	Data   interface{}
}

// Client represents a connected SSE client
type Client struct {
	id     string
	view   string
	events chan []byte
}

// ID returns the client identifier sent in the hello event
func (c *Client) ID() string {
	return c.id
}

// Gauge receives the connected client count
type Gauge interface {
	Set(float64)
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	gauge      Gauge
	keepalive  time.Duration
}

// Option configures a Hub
type Option func(*Hub)

// WithGauge reports the client count to g
func WithGauge(g Gauge) Option {
	return func(h *Hub) {
		h.gauge = g
	}
}

// WithKeepalive sets the interval of keep-alive comments
func WithKeepalive(d time.Duration) Option {
	return func(h *Hub) {
		h.keepalive = d
	}
}

// New creates a new Hub
func New(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		keepalive:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.report(count)
			log.Printf("SSE client connected: %s view=%s (total: %d)", client.id, client.view, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.report(count)
			log.Printf("SSE client disconnected: %s (total: %d)", client.id, count)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Data)
			if err != nil {
				log.Printf("Failed to marshal event: %v", err)
				continue
			}

			frame := []byte(fmt.Sprintf("data: %s\n\n", data))

			h.mu.RLock()
			for client := range h.clients {
				if !client.accepts(msg) {
					continue
				}
				select {
				case client.events <- frame:
				default:
					// Client is slow, skip this message
					log.Printf("SSE client %s is slow, skipping message", client.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (c *Client) accepts(msg Message) bool {
	if msg.Client != "" && msg.Client != c.id {
		return false
	}
	if msg.View != "" && c.view != "" && msg.View != c.view {
		return false
	}
	return true
}

func (h *Hub) report(count int) {
	if h.gauge != nil {
		h.gauge.Set(float64(count))
	}
}

// Broadcast queues msg for delivery
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Println("Broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections. The view query parameter restricts the
// stream to one view's events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check if client supports SSE
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &Client{
		id:     uuid.NewString(),
		view:   r.URL.Query().Get("view"),
		events: make(chan []byte, 64),
	}

	h.register <- client

	// Ensure cleanup on disconnect
	defer func() {
		h.unregister <- client
	}()

	// Tell the client its id so gestures can be answered to it alone
	hello, _ := json.Marshal(map[string]string{"type": "hello", "client_id": client.id})
	fmt.Fprintf(w, ": connected\n\ndata: %s\n\n", hello)
	flusher.Flush()

	// Keep-alive ticker
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	// Event loop
	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// Send keep-alive comment
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
