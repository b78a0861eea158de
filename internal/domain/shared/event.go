package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something an aggregate reports after a state change:
// order placed, payment completed, stock deducted and so on.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	SiteID() uuid.UUID
}

// BaseDomainEvent is embedded by every concrete event. Its JSON form is what
// Telegram notifications and idempotency keys are derived from.
type BaseDomainEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	At         time.Time `json:"timestamp"`
	Aggregate  uuid.UUID `json:"aggregate_id"`
	Kind       string    `json:"aggregate_type"`
	OwningSite uuid.UUID `json:"site_id"`
}

func NewBaseDomainEvent(eventType, aggType string, aggID, siteID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		At:         Now(),
		Aggregate:  aggID,
		Kind:       aggType,
		OwningSite: siteID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate }
func (e *BaseDomainEvent) AggregateType() string  { return e.Kind }
func (e *BaseDomainEvent) SiteID() uuid.UUID      { return e.OwningSite }

// EventHandler reacts to published events. An empty EventTypes result
// subscribes the handler to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is the in-process bus the application services publish to after
// a successful save.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
