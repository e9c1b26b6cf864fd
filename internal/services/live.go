package services

import (
	"context"

	"campusride/pkg/websocket"
)

// LivePublisher pushes messages to connected websocket clients. Both the
// local hub and the redis relay implement it.
type LivePublisher interface {
	Publish(ctx context.Context, roomID string, message websocket.Message) error
	SendToUser(ctx context.Context, userID string, message websocket.Message) error
}

var (
	_ LivePublisher = (*websocket.Hub)(nil)
	_ LivePublisher = (*websocket.RedisRelay)(nil)
)

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, roomID string, message websocket.Message) error {
	return nil
}

func (nopPublisher) SendToUser(ctx context.Context, userID string, message websocket.Message) error {
	return nil
}

func livePublisherOrNop(p LivePublisher) LivePublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
