package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/events"
)

// NotificationService fans domain events out to the Redis channel consumed
// by the websocket relay. Delivery is fire and forget: a Redis outage never
// fails the operation that produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *redis.Client
	channel    string
	log        *zap.Logger
}

// NewNotificationService builds the service.
func NewNotificationService(dispatcher events.Dispatcher, client *redis.Client, channel string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      client,
		channel:    channel,
		log:        logger,
	}
}

var relayedEvents = []events.EventType{
	events.EventAccountRegistered,
	events.EventAccountVerified,
	events.EventOTPIssued,
	events.EventResetCodeIssued,
	events.EventInviteCreated,
	events.EventInviteApproved,
	events.EventInviteRedeemed,
	events.EventTicketCreated,
	events.EventTicketAssigned,
	events.EventTicketAccepted,
	events.EventTicketResolved,
	events.EventTicketClosed,
	events.EventTicketReopened,
	events.EventTicketEscalated,
}

// RegisterHandlers subscribes the relay handler for every event type.
func (s *NotificationService) RegisterHandlers() {
	for _, eventType := range relayedEvents {
		s.dispatcher.Subscribe(eventType, s.relay)
	}
}

func (s *NotificationService) relay(ctx context.Context, event events.Event) error {
	s.log.Info("domain event",
		zap.String("type", string(event.Type)),
		zap.String("event_id", event.ID))

	if s.redis == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.log.Warn("event marshal failed", zap.Error(err))
		return nil
	}
	if err := s.redis.Publish(ctx, s.channel, body).Err(); err != nil {
		s.log.Warn("event publish failed",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}
