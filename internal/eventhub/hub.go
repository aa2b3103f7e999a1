// Package eventhub pushes complaint events to connected dashboards over
// websockets. Events arrive from Redis so every API replica sees them.
package eventhub

import (
	"context"

	"civicdesk/backend/internal/models"

	"go.uber.org/zap"
)

// Hub owns the set of connected clients. Only the Run goroutine touches it.
type Hub struct {
	clients map[Client]struct{}

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventsCh     chan models.ComplaintEvent

	done   chan struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:      make(map[Client]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventsCh:     make(chan models.ComplaintEvent, 64),
		done:         make(chan struct{}),
		logger:       logger,
	}
}

// Run dispatches until ctx is canceled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				c.Close()
			}
			return

		case c := <-h.RegisterCh:
			h.clients[c] = struct{}{}
			h.logger.Debug("event client registered", zap.String("user_id", c.Subscriber().UserID))

		case c := <-h.UnregisterCh:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}

		case ev := <-h.EventsCh:
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev models.ComplaintEvent) {
	for c := range h.clients {
		if !Wants(c.Subscriber(), ev) {
			continue
		}
		select {
		case c.SendChannel() <- ev:
		default:
			// Slow consumer.
			h.logger.Warn("dropping slow event client", zap.String("user_id", c.Subscriber().UserID))
			delete(h.clients, c)
			c.Close()
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(c Client) {
	select {
	case h.RegisterCh <- c:
	case <-h.done:
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

// Broadcast queues an event for local clients.
func (h *Hub) Broadcast(ev models.ComplaintEvent) {
	select {
	case h.EventsCh <- ev:
	case <-h.done:
	}
}
