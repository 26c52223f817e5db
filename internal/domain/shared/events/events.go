package events

import (
	"slices"
	"time"
)

// DomainEvent is a fact about an aggregate that leaves the process through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder buffers the events an aggregate raised since it was loaded.
// Embed it by value; the zero value is ready to use.
type EventRecorder struct {
	raised []DomainEvent
}

// Record appends events in order, skipping nils.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.raised = append(r.raised, ev)
		}
	}
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	return slices.Clone(r.raised)
}

// DrainEvents hands the buffer to the caller and starts a new one.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	drained := r.raised
	r.raised = nil
	return drained
}
