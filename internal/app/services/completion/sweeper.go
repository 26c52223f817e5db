package completion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	bookinghandlers "rentora/internal/app/handlers/booking"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	"rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
)

var ErrSweeperNotConfigured = errors.New("completion: sweeper missing dependencies")

const defaultInterval = time.Hour

// Result summarises one pass.
type Result struct {
	Due       int
	Completed int
	Skipped   int
	Failed    int
}

// Sweeper completes APPROVED bookings whose stay has ended. It acts as the SYSTEM
// actor and goes through the same transition command as any other caller.
type Sweeper struct {
	UoWFactory uow.UoWFactory
	Commands   bus.Bus
	Clock      clock.Clock
	Interval   time.Duration
	Logger     *slog.Logger

	// Sessions is set for stores without native expiry.
	Sessions SessionPruner
}

type SessionPruner interface {
	PruneExpired(at time.Time) int
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.UoWFactory == nil || s.Commands == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log().ErrorContext(ctx, "completion sweep failed", "error", err)
		}
		s.pruneSessions(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce completes every due booking. A booking that another caller already moved
// is counted as skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	if s.UoWFactory == nil || s.Commands == nil {
		return Result{}, ErrSweeperNotConfigured
	}
	due, err := s.due(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Due: len(due)}
	for _, id := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := bus.Dispatch[bookinghandlers.TransitionBookingCommand, *dto.BookingActionResult](ctx, s.Commands, bookinghandlers.TransitionBookingCommand{
			Actor:        auth.System,
			BookingID:    string(id),
			TargetStatus: string(domainbooking.StatusCompleted),
		})
		switch {
		case err == nil:
			res.Completed++
		case errors.Is(err, domainbooking.ErrInvalidTransition), errors.Is(err, domainbooking.ErrCompletionTooEarly):
			res.Skipped++
		default:
			res.Failed++
			s.log().WarnContext(ctx, "booking completion failed", "booking_id", id, "error", err)
		}
	}
	if res.Due > 0 {
		s.log().InfoContext(ctx, "completion sweep finished", "due", res.Due, "completed", res.Completed, "skipped", res.Skipped, "failed", res.Failed)
	}
	return res, nil
}

func (s *Sweeper) pruneSessions(ctx context.Context) {
	if s.Sessions == nil {
		return
	}
	if n := s.Sessions.PruneExpired(s.clock().Now()); n > 0 {
		s.log().InfoContext(ctx, "expired sessions pruned", "count", n)
	}
}

func (s *Sweeper) due(ctx context.Context) ([]domainbooking.ID, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	approved, err := unit.Bookings().ListByStatus(execCtx, domainbooking.StatusApproved)
	if err != nil {
		return nil, err
	}
	today := clock.Today(s.clock())
	var ids []domainbooking.ID
	for _, b := range approved {
		if !daterange.Truncate(b.Range.End).After(today) {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (s *Sweeper) clock() clock.Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return clock.System{}
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return defaultInterval
	}
	return s.Interval
}

func (s *Sweeper) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
