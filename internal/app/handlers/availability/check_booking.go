package availability

import (
	"context"
	"errors"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
)

const CheckBookingKey = "booking.check"

// CheckBookingQuery asks whether a request would be accepted right now.
type CheckBookingQuery struct {
	PropertyID string `validate:"required"`
	StartDate  string `validate:"required,datetime=2006-01-02"`
	EndDate    string `validate:"required,datetime=2006-01-02"`
}

func (q CheckBookingQuery) Key() string { return CheckBookingKey }

type CheckBookingHandler struct {
	UoWFactory uow.UoWFactory
	Validator  domainbooking.Validator
}

// Handle reports rule violations in the result; only infrastructure failures are errors.
func (h *CheckBookingHandler) Handle(ctx context.Context, q CheckBookingQuery) (dto.BookingCheck, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCheck{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.BookingCheck{}, err
	}
	snapshot, err := unit.Bookings().Snapshot(execCtx, prop.ID)
	if err != nil {
		return dto.BookingCheck{}, err
	}
	dr, err := daterange.ParseUnordered(q.StartDate, q.EndDate)
	if err != nil {
		return dto.BookingCheck{}, err
	}
	acceptance, err := h.Validator.Validate(prop, dr, snapshot.Bookings)
	if err != nil {
		reason, ok := RejectionReason(err)
		if !ok {
			return dto.BookingCheck{}, err
		}
		return dto.BookingCheck{Accepted: false, Reason: reason}, nil
	}
	return dto.BookingCheck{
		Accepted:     true,
		DurationDays: acceptance.DurationDays,
		BillingUnits: acceptance.BillingUnits,
		Total:        dto.MapMoney(acceptance.Total),
	}, nil
}

// RejectionReason maps a validator error to a stable reason code.
func RejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, domainbooking.ErrPropertyUnavailable):
		return "property_unavailable", true
	case errors.Is(err, domainbooking.ErrStartInPast):
		return "start_in_past", true
	case errors.Is(err, daterange.ErrInvalidRange):
		return "invalid_range", true
	case errors.Is(err, domainbooking.ErrMinimumStay):
		return "minimum_stay", true
	case errors.Is(err, domainbooking.ErrDateConflict):
		return "date_conflict", true
	}
	return "", false
}

var _ bus.Handler[CheckBookingQuery, dto.BookingCheck] = (*CheckBookingHandler)(nil)
