package websocket

import (
	"context"
	"encoding/json"

	"campusride/pkg/cache"
)

const relayChannel = "ws:relay"

// RedisRelay fans messages out through redis pub/sub so every server
// instance delivers to the clients it holds.
type RedisRelay struct {
	hub   *Hub
	cache *cache.RedisCache
}

func NewRedisRelay(hub *Hub, c *cache.RedisCache) *RedisRelay {
	return &RedisRelay{hub: hub, cache: c}
}

func (r *RedisRelay) Publish(ctx context.Context, roomID string, message Message) error {
	message.RoomID = roomID
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}
	return r.cache.Publish(ctx, relayChannel, message)
}

func (r *RedisRelay) SendToUser(ctx context.Context, userID string, message Message) error {
	message.UserID = userID
	return r.Publish(ctx, UserRoom(userID), message)
}

// Run forwards relayed messages to the local hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.cache.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				r.hub.logger.WithError(err).Warn("dropping malformed relay message")
				continue
			}
			if err := r.hub.Publish(ctx, m.RoomID, m); err != nil {
				return nil
			}
		}
	}
}
