package sse

import (
	"errors"
	"sync"

	"github.com/estateflow/estateflow/internal/domain/notification"
)

var (
	ErrClientNotFound = errors.New("no connected client for recipient")
	ErrChannelFull    = errors.New("client channel full")
)

// Client is one connected event stream. A client subscribes as a single
// recipient; the HTTP handler drains MessageChan into the response.
type Client struct {
	ClientID    string
	Recipient   string
	MessageChan chan *notification.Message

	closeOnce sync.Once
}

func NewClient(clientID, recipient string, buffer int) *Client {
	return &Client{
		ClientID:    clientID,
		Recipient:   recipient,
		MessageChan: make(chan *notification.Message, buffer),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.MessageChan)
	})
}

// Hub manages SSE clients and implements notification.Hub.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver pushes a message to every stream subscribed as recipient.
// A recipient with no connected stream is a delivery failure; the outbox
// dispatcher retries later.
func (h *Hub) Deliver(recipient string, msg *notification.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	full := false
	for _, c := range h.clients {
		if c.Recipient != recipient {
			continue
		}
		if trySend(c, msg) {
			delivered = true
		} else {
			full = true
		}
	}
	if delivered {
		return nil
	}
	if full {
		return ErrChannelFull
	}
	return ErrClientNotFound
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *Client, msg *notification.Message) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
