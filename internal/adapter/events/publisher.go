// Package events announces guest server lifecycle transitions on a
// Redis pub/sub channel so chat bots and other listeners can pick them
// up.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/pkg/redis"
)

// RedisPublisher publishes lifecycle events as JSON messages.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// NewRedisPublisher creates a publisher for the given channel.
func NewRedisPublisher(client *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		log:     log,
	}
}

// Publish serializes the event and puts it on the channel.
func (p *RedisPublisher) Publish(ctx context.Context, event guestserver.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := p.client.PublishJSON(ctx, p.channel, payload); err != nil {
		return err
	}

	p.log.Debug("event published",
		zap.String("channel", p.channel),
		zap.String("kind", string(event.Kind)))
	return nil
}

// NoopPublisher drops all events. Used when announcements are disabled.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, guestserver.Event) error {
	return nil
}
