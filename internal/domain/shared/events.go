// Package shared holds types common to every domain package.
package shared

import (
	"context"
	"time"
)

// DomainEvent is something that happened in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventPublisher hands domain events to whoever is listening. Publishing
// must not fail the operation that raised the event.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent)
}

// EventSource is implemented by entities that buffer events
type EventSource interface {
	Events() []DomainEvent
}
