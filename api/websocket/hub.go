package websocket

import (
	"context"
	"strings"
	"sync"

	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/pkg/config"
)

const defaultBroadcastBuffer = 256

type broadcast struct {
	district string
	data     []byte
}

// Hub fans job events out to connected clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcast
	unregister chan *Client
	mu         sync.RWMutex
	stopped    bool
	settings   Settings
	onCount    func(int)
	done       chan struct{}
}

// NewHub builds a hub. onCount, when set, is called with the client count
// after every change.
func NewHub(cfg *config.WebSocketConfig, onCount func(int)) *Hub {
	settings := NewSettings(cfg)

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcast, settings.BroadcastBuffer),
		unregister: make(chan *Client),
		settings:   settings,
		onCount:    onCount,
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.countChanged()
			return

		case client := <-h.unregister:
			h.remove(client)
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg broadcast) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !client.wants(msg.district) {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logger.Warn("WebSocket client too slow, disconnecting")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	if ok {
		h.countChanged()
	}
}

func (h *Hub) countChanged() {
	if h.onCount != nil {
		h.onCount(h.ClientCount())
	}
}

// Broadcast queues data for every client following district. Clients
// with no district filter receive everything; an empty district reaches
// all clients.
func (h *Hub) Broadcast(district string, data []byte) {
	select {
	case h.broadcast <- broadcast{district: strings.TrimSpace(district), data: data}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds client. It returns false once the hub has stopped.
// The client is a member when Register returns, so replies sent through
// the hub right after it are not lost.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	h.mu.Unlock()

	h.countChanged()
	logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())
	return true
}

// send queues data for a single client. The membership check and the
// send share the read lock, so a client already dropped by the hub (and
// its closed channel) is never written to.
func (h *Hub) send(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
