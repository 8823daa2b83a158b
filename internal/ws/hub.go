// Package ws streams bus events to UI clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
)

// Message is the frame sent to clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans every broadcast out to the connected clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	logger     *slog.Logger

	mu sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {

	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's main loop; it returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {

	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues msg for every client. A full queue drops the message.
func (h *Hub) Broadcast(msg Message) {

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode websocket message", slog.String("type", msg.Type), slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("⚠️ Websocket broadcast queue full, dropping message", slog.String("type", msg.Type))
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Bridge forwards every bus event to the hub and returns the unsubscribe func.
func (h *Hub) Bridge(bus *events.Bus) func() {
	return bus.SubscribeAll(func(_ context.Context, e events.Event) {

		payload, err := json.Marshal(e)
		if err != nil {
			h.logger.Error("Failed to encode event", slog.String("topic", e.Topic()), slog.Any("error", err))
			return
		}

		h.Broadcast(Message{Type: e.Topic(), Payload: payload})
	})
}
