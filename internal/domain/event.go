package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event emitted by exactly one mutating aggregate
// operation. Consumers treat events as at-least-once, idempotent-by-id
// notifications.
type Event interface {
	EventName() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// EventMeta is embedded by every concrete event type.
type EventMeta struct {
	Aggregate uuid.UUID `json:"aggregate_id"`
	At        time.Time `json:"occurred_at"`
}

func NewEventMeta(aggregate uuid.UUID, at time.Time) EventMeta {
	return EventMeta{Aggregate: aggregate, At: at}
}

func (m EventMeta) AggregateID() uuid.UUID { return m.Aggregate }
func (m EventMeta) OccurredAt() time.Time  { return m.At }
