package booking

import (
	"time"

	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
)

type BookingRequested struct {
	BookingID  ID
	PropertyID property.ID
	RenterID   user.ID
	Range      daterange.DateRange
	Total      money.Money
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID  ID
	PropertyID property.ID
	RenterID   user.ID
	Range      daterange.DateRange
	Total      money.Money
	By         user.ID
	At         time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID  ID
	PropertyID property.ID
	RenterID   user.ID
	By         user.ID
	At         time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID  ID
	PropertyID property.ID
	RenterID   user.ID
	From       Status
	By         user.ID
	At         time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID  ID
	PropertyID property.ID
	RenterID   user.ID
	By         user.ID
	At         time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
