package container

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/shared"
	"github.com/nutrimom/api/internal/ports/outbound"
	"go.uber.org/zap"
)

// EventDispatcher serializes domain events and hands them to the handlers
// registered for their name. Handler errors are logged, never returned.
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]outbound.MessageHandler
	log      *zap.Logger
}

var _ shared.EventPublisher = (*EventDispatcher)(nil)

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher(log *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]outbound.MessageHandler),
		log:      log.Named("events"),
	}
}

// Publish implements shared.EventPublisher
func (d *EventDispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			d.log.Error("Failed to encode event", zap.String("event", event.EventName()), zap.Error(err))
			continue
		}
		d.Dispatch(ctx, outbound.Message{
			ID:        uuid.NewString(),
			Type:      event.EventName(),
			Payload:   payload,
			Timestamp: event.OccurredAt(),
		})
	}
}

// Dispatch dispatches a message to registered handlers
func (d *EventDispatcher) Dispatch(ctx context.Context, message outbound.Message) {
	d.mu.RLock()
	handlers := d.handlers[message.Type]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debug("No handlers registered for event", zap.String("event", message.Type))
		return
	}

	for _, handler := range handlers {
		if err := handler(ctx, message); err != nil {
			d.log.Error("Failed to handle event",
				zap.String("event", message.Type),
				zap.String("message_id", message.ID),
				zap.Error(err),
			)
		}
	}
}

// Register registers an event handler
func (d *EventDispatcher) Register(event string, handler outbound.MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
	d.log.Debug("Registered event handler", zap.String("event", event))
}

// LogHandler writes every message to the application log
func LogHandler(log *zap.Logger) outbound.MessageHandler {
	return func(ctx context.Context, msg outbound.Message) error {
		log.Info("Domain event",
			zap.String("event", msg.Type),
			zap.String("message_id", msg.ID),
			zap.Time("occurred_at", msg.Timestamp),
			zap.ByteString("payload", msg.Payload),
		)
		return nil
	}
}

// DailyCounterHandler counts messages per UTC day in the cache under
// events:<type>:<yyyy-mm-dd>
func DailyCounterHandler(cache outbound.CacheRepository) outbound.MessageHandler {
	return func(ctx context.Context, msg outbound.Message) error {
		at := msg.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		_, err := cache.Increment(ctx, DailyCounterKey(msg.Type, at))
		return err
	}
}

// DailyCounterKey is the cache key DailyCounterHandler increments
func DailyCounterKey(event string, at time.Time) string {
	return "events:" + event + ":" + at.UTC().Format("2006-01-02")
}
