package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the media stream
const (
	EventPostDeleted   = "post_deleted"
	EventUserDeleted   = "user_deleted"
	EventMediaReleased = "media_released"
)

// Stream names
const (
	StreamMedia = "stream:media"
)

// Consumer group name for cleanup workers
const (
	ConsumerGroupMedia = "media_cleanup_workers"
)

// MediaEvent announces object storage keys that nothing references any more.
type MediaEvent struct {
	Type      string `json:"type"`      // EventPostDeleted, EventUserDeleted, EventMediaReleased
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	PostID int64 `json:"post_id,omitempty"`
	UserID int64 `json:"user_id,omitempty"`

	ObjectKeys []string `json:"object_keys"`
}

// NewPostDeletedEvent is published after a post and its rows are gone.
func NewPostDeletedEvent(postID int64, keys ...string) MediaEvent {
	return MediaEvent{
		Type:       EventPostDeleted,
		Timestamp:  time.Now().Unix(),
		PostID:     postID,
		ObjectKeys: keys,
	}
}

// NewUserDeletedEvent carries the avatar and post images of a removed user.
func NewUserDeletedEvent(userID int64, keys ...string) MediaEvent {
	return MediaEvent{
		Type:       EventUserDeleted,
		Timestamp:  time.Now().Unix(),
		UserID:     userID,
		ObjectKeys: keys,
	}
}

// NewMediaReleasedEvent is published when an upload replaces an older object.
func NewMediaReleasedEvent(userID int64, keys ...string) MediaEvent {
	return MediaEvent{
		Type:       EventMediaReleased,
		Timestamp:  time.Now().Unix(),
		UserID:     userID,
		ObjectKeys: keys,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e MediaEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMediaEvent parses a MediaEvent from Redis stream message values.
func ParseMediaEvent(values map[string]interface{}) (MediaEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MediaEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MediaEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MediaEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
