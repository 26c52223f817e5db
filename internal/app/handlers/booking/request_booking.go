package booking

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/middleware"
	"rentora/internal/app/outbox"
	"rentora/internal/app/uow"
	"rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/user"
)

const RequestBookingKey = "booking.request"

type RequestBookingCommand struct {
	Actor           auth.Actor
	PropertyID      string `validate:"required"`
	StartDate       string `validate:"required,datetime=2006-01-02"`
	EndDate         string `validate:"required,datetime=2006-01-02"`
	Message         string `validate:"max=1000"`
	IdempotencyKeyV string `validate:"max=128"`
}

func (c RequestBookingCommand) Key() string { return RequestBookingKey }

func (c RequestBookingCommand) Principal() auth.Actor { return c.Actor }

func (c RequestBookingCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleRenter} }

// IdempotencyKey is scoped to the renter so keys cannot collide across users.
func (c RequestBookingCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.IdempotencyKeyV)
	if key == "" {
		return ""
	}
	return string(c.Actor.UserID) + ":" + key
}

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type RequestBookingHandler struct {
	Validator domainbooking.Validator
	Clock     clock.Clock
	Encoder   outbox.EventEncoder
	Logger    *slog.Logger
	NewID     func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	// order is checked by the validator, after the listing check
	dr, err := daterange.ParseUnordered(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	snapshot, err := unit.Bookings().Snapshot(ctx, prop.ID)
	if err != nil {
		return nil, err
	}
	acceptance, err := h.validator().Validate(prop, dr, snapshot.Bookings)
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.ID(h.newID()),
		RenterID:   cmd.Actor.UserID,
		Acceptance: acceptance,
		Message:    cmd.Message,
		Now:        h.clock().Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Create(ctx, b); err != nil {
		return nil, err
	}
	if err := handlersupport.StageEvents(ctx, unit, h.Encoder, b); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking requested", "booking_id", b.ID, "property_id", b.PropertyID, "renter_id", b.RenterID, "range", b.Range.String())
	}
	result := dto.MapBooking(b, prop)
	return &result, nil
}

func (h *RequestBookingHandler) validator() domainbooking.Validator {
	v := h.Validator
	if v.Clock == nil {
		v.Clock = h.clock()
	}
	return v
}

func (h *RequestBookingHandler) clock() clock.Clock {
	if h.Clock != nil {
		return h.Clock
	}
	return clock.System{}
}

func (h *RequestBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ bus.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
var _ middleware.Secured = RequestBookingCommand{}
