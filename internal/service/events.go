package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ayachi01/FixItWeb/internal/events"
)

// publishEvent fires a domain event; dispatch never fails the caller.
func publishEvent(ctx context.Context, d events.Dispatcher, eventType events.EventType, actorID *string, payload any) {
	if d == nil {
		return
	}
	_ = d.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
