package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

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
	"rentora/internal/domain/user"
)

const (
	TransitionBookingKey = "booking.transition"
	defaultMaxAttempts   = 3
)

// TransitionBookingCommand moves a booking to TargetStatus on behalf of Actor.
// Approve, reject, cancel and complete all go through it.
type TransitionBookingCommand struct {
	Actor        auth.Actor
	BookingID    string `validate:"required"`
	TargetStatus string `validate:"required,oneof=APPROVED REJECTED CANCELLED COMPLETED approved rejected cancelled completed"`
}

func (c TransitionBookingCommand) Key() string { return TransitionBookingKey }

func (c TransitionBookingCommand) Principal() auth.Actor { return c.Actor }

// AllowedRoles is open; the lifecycle decides who may take each edge.
func (c TransitionBookingCommand) AllowedRoles() []user.Role { return nil }

// ScopesOwnUnit: every attempt runs in a fresh unit on a fresh snapshot.
func (c TransitionBookingCommand) ScopesOwnUnit() {}

type TransitionBookingHandler struct {
	UoWFactory  uow.UoWFactory
	Clock       clock.Clock
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	MaxAttempts int
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*dto.BookingActionResult, error) {
	target, err := domainbooking.ParseStatus(cmd.TargetStatus)
	if err != nil {
		return nil, err
	}
	attempts := h.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	for attempt := 1; ; attempt++ {
		res, err := h.attempt(ctx, domainbooking.ID(cmd.BookingID), target, cmd.Actor)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, domainbooking.ErrStaleSnapshot) || attempt >= attempts {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.WarnContext(ctx, "booking snapshot changed, retrying", "booking_id", cmd.BookingID, "target", target, "attempt", attempt)
		}
	}
}

func (h *TransitionBookingHandler) attempt(ctx context.Context, id domainbooking.ID, target domainbooking.Status, actor auth.Actor) (*dto.BookingActionResult, error) {
	unit, execCtx, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	current, err := unit.Bookings().ByID(execCtx, id)
	if err != nil {
		return nil, err
	}
	prop, err := unit.Properties().ByID(execCtx, current.PropertyID)
	if err != nil && !errors.Is(err, domainproperty.ErrNotFound) {
		return nil, err
	}
	snapshot, err := unit.Bookings().Snapshot(execCtx, current.PropertyID)
	if err != nil {
		return nil, err
	}
	b := findBooking(snapshot.Bookings, id)
	if b == nil {
		b = current
	}

	from := b.Status
	err = b.Transition(domainbooking.TransitionRequest{
		Target:   target,
		Actor:    actor,
		Property: prop,
		Index:    domainbooking.BuildIndex(snapshot.Bookings),
		Now:      h.now(),
	})
	if err != nil {
		return nil, err
	}

	var guard *domainbooking.Guard
	if domainbooking.RequiresGuard(from, target) {
		guard = &domainbooking.Guard{PropertyID: b.PropertyID, Version: snapshot.Version}
	}
	if err := unit.Bookings().CommitTransition(execCtx, b, from, guard); err != nil {
		return nil, err
	}
	if err := handlersupport.StageEvents(execCtx, unit, h.Encoder, b); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking transitioned", "booking_id", b.ID, "property_id", b.PropertyID, "from", from, "to", b.Status, "actor_id", actor.UserID, "actor_role", actor.Role)
	}
	result := dto.MapBookingAction(b)
	return &result, nil
}

func (h *TransitionBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

func findBooking(bookings []*domainbooking.Booking, id domainbooking.ID) *domainbooking.Booking {
	for _, b := range bookings {
		if b != nil && b.ID == id {
			return b
		}
	}
	return nil
}

var _ bus.Handler[TransitionBookingCommand, *dto.BookingActionResult] = (*TransitionBookingHandler)(nil)
var _ middleware.UnitScoped = TransitionBookingCommand{}
