package property

import (
	"time"

	"rentora/internal/domain/user"
)

type PropertyCreated struct {
	PropertyID ID
	OwnerID    user.ID
	At         time.Time
}

func (e PropertyCreated) EventName() string     { return "property.created" }
func (e PropertyCreated) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyCreated) OccurredAt() time.Time { return e.At }

type PropertyUpdated struct {
	PropertyID ID
	At         time.Time
}

func (e PropertyUpdated) EventName() string     { return "property.updated" }
func (e PropertyUpdated) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyUpdated) OccurredAt() time.Time { return e.At }

type PropertyAvailabilityChanged struct {
	PropertyID ID
	Available  bool
	At         time.Time
}

func (e PropertyAvailabilityChanged) EventName() string     { return "property.availability_changed" }
func (e PropertyAvailabilityChanged) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyAvailabilityChanged) OccurredAt() time.Time { return e.At }

type PropertyDeleted struct {
	PropertyID ID
	By         user.ID
	At         time.Time
}

func (e PropertyDeleted) EventName() string     { return "property.deleted" }
func (e PropertyDeleted) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyDeleted) OccurredAt() time.Time { return e.At }
