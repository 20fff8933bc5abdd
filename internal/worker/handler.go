package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"inkwell/internal/queue"
)

// ObjectDeleter removes one object from storage. Implemented by
// service.MediaService.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// Handler processes media cleanup events from the queue.
type Handler struct {
	deleter ObjectDeleter
}

// NewHandler creates a new event handler.
func NewHandler(deleter ObjectDeleter) *Handler {
	return &Handler{deleter: deleter}
}

// HandleEvent deletes every object key the event carries. Keys are attempted
// independently; the returned error joins every failure.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MediaEvent) error {
	startTime := time.Now()

	switch event.Type {
	case queue.EventPostDeleted:
		log.Printf("[Worker] PostDeleted: post=%d keys=%d", event.PostID, len(event.ObjectKeys))
	case queue.EventUserDeleted:
		log.Printf("[Worker] UserDeleted: user=%d keys=%d", event.UserID, len(event.ObjectKeys))
	case queue.EventMediaReleased:
		log.Printf("[Worker] MediaReleased: user=%d keys=%d", event.UserID, len(event.ObjectKeys))
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	var errs []error
	for _, key := range event.ObjectKeys {
		if key == "" {
			continue
		}
		if err := h.deleter.DeleteObject(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}
