package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event MediaEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event MediaEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()

	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s msgID=%s keys=%d duration=%v",
		stream, event.Type, messageID, len(event.ObjectKeys), time.Since(startTime))

	return messageID, nil
}

// PublishReleased sends event to the media stream unless it carries no keys.
// A nil publisher is allowed and turns the call into a no-op, so services can
// run without Redis.
func PublishReleased(ctx context.Context, p Publisher, event MediaEvent) {
	if p == nil || len(event.ObjectKeys) == 0 {
		return
	}
	if _, err := p.Publish(ctx, StreamMedia, event); err != nil {
		log.Printf("[Publisher] Dropped %s event: keys=%v err=%v", event.Type, event.ObjectKeys, err)
	}
}
