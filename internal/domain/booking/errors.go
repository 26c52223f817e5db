package booking

import (
	"errors"
	"fmt"

	"rentora/internal/domain/auth"
	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
)

var (
	ErrStartInPast            = errors.New("booking: start date is in the past")
	ErrMinimumStay            = errors.New("booking: stay is shorter than the minimum")
	ErrDateConflict           = errors.New("booking: dates conflict with an approved booking")
	ErrPropertyUnavailable    = errors.New("booking: property is not accepting bookings")
	ErrInvalidTransition      = errors.New("booking: invalid status transition")
	ErrUnauthorizedTransition = errors.New("booking: actor may not perform this transition")
	ErrCompletionTooEarly     = errors.New("booking: stay has not ended yet")
	ErrUnknownStatus          = errors.New("booking: unknown status")
	ErrIndexRequired          = errors.New("booking: availability index required")
	ErrNotFound               = errors.New("booking: not found")
	// ErrStaleSnapshot is returned by stores when a conditional write loses to a concurrent change.
	ErrStaleSnapshot = errors.New("booking: snapshot is stale")
)

// InvalidRangeError reports a malformed or past date range.
type InvalidRangeError struct {
	Range daterange.DateRange
	Cause error
}

func (e *InvalidRangeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("booking: invalid date range %s: %v", e.Range, e.Cause)
	}
	return fmt.Sprintf("booking: invalid date range %s", e.Range)
}

func (e *InvalidRangeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{daterange.ErrInvalidRange}
	}
	return []error{daterange.ErrInvalidRange, e.Cause}
}

type MinimumStayError struct {
	PropertyID    property.ID
	RequestedDays int
	MinimumDays   int
}

func (e *MinimumStayError) Error() string {
	return fmt.Sprintf("booking: stay of %d days at %s is shorter than the minimum of %d", e.RequestedDays, e.PropertyID, e.MinimumDays)
}

func (e *MinimumStayError) Unwrap() error { return ErrMinimumStay }

type DateConflictError struct {
	PropertyID           property.ID
	Requested            daterange.DateRange
	Conflicting          daterange.DateRange
	ConflictingBookingID ID
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("booking: %s at %s overlaps approved booking %s %s", e.Requested, e.PropertyID, e.ConflictingBookingID, e.Conflicting)
}

func (e *DateConflictError) Unwrap() error { return ErrDateConflict }

type PropertyUnavailableError struct {
	PropertyID property.ID
}

func (e *PropertyUnavailableError) Error() string {
	return fmt.Sprintf("booking: property %s is not accepting bookings", e.PropertyID)
}

func (e *PropertyUnavailableError) Unwrap() error { return ErrPropertyUnavailable }

type InvalidTransitionError struct {
	BookingID ID
	From      Status
	To        Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking: %s cannot move from %s to %s", e.BookingID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type UnauthorizedTransitionError struct {
	BookingID ID
	From      Status
	To        Status
	Actor     auth.Actor
}

func (e *UnauthorizedTransitionError) Error() string {
	return fmt.Sprintf("booking: %s (%s) may not move %s from %s to %s", e.Actor.UserID, e.Actor.Role, e.BookingID, e.From, e.To)
}

func (e *UnauthorizedTransitionError) Unwrap() error { return ErrUnauthorizedTransition }

type CompletionTooEarlyError struct {
	BookingID ID
	EndsOn    daterange.DateRange
}

func (e *CompletionTooEarlyError) Error() string {
	return fmt.Sprintf("booking: %s cannot complete before %s", e.BookingID, e.EndsOn.End.Format(daterange.ISODate))
}

func (e *CompletionTooEarlyError) Unwrap() error { return ErrCompletionTooEarly }
