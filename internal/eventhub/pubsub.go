package eventhub

import (
	"context"
	"encoding/json"

	"civicdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenRedis feeds events from a Redis subscription into the hub until ctx
// is canceled or the subscription closes. It closes ps on return.
func (h *Hub) ListenRedis(ctx context.Context, ps *redis.PubSub) {
	defer ps.Close()
	h.consume(ctx, ps.Channel())
}

func (h *Hub) consume(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev models.ComplaintEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warn("discarding malformed complaint event", zap.Error(err))
				continue
			}
			h.Broadcast(ev)
		}
	}
}
