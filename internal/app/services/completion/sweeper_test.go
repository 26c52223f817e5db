package completion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	bookinghandlers "rentora/internal/app/handlers/booking"
	"rentora/internal/app/middleware"
	"rentora/internal/app/outbox"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	"rentora/internal/infra/storage/memory"
)

var sweepDay = time.Date(2025, 7, 2, 3, 0, 0, 0, time.UTC)

func seedBookings(t *testing.T, factory memory.Factory) {
	t.Helper()
	ctx := context.Background()
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:      "prop-1",
		OwnerID: "owner-1",
		Details: domainproperty.Details{
			Title:     "Loft",
			Address:   domainproperty.Address{City: "Pune"},
			Rent:      money.Must(1000000, "INR"),
			Bedrooms:  1,
			Bathrooms: 1,
		},
		IsAvailable: true,
		Now:         sweepDay.AddDate(0, -3, 0),
	})
	require.NoError(t, err)
	require.NoError(t, factory.PropertyRepo.Save(ctx, prop))

	for _, b := range []struct {
		id         domainbooking.ID
		start, end string
		status     domainbooking.Status
	}{
		{"ended-yesterday", "2025-06-01", "2025-07-01", domainbooking.StatusApproved},
		{"ends-today", "2025-06-02", "2025-07-02", domainbooking.StatusApproved},
		{"running", "2025-07-02", "2025-08-02", domainbooking.StatusApproved},
		{"never-approved", "2025-05-01", "2025-06-01", domainbooking.StatusPending},
	} {
		require.NoError(t, factory.BookingRepo.Create(ctx, &domainbooking.Booking{
			ID:         b.id,
			PropertyID: prop.ID,
			RenterID:   "renter-1",
			Range:      daterange.MustParse(b.start, b.end),
			Status:     b.status,
			CreatedAt:  sweepDay.AddDate(0, -2, 0),
		}))
	}
}

func newCommands(factory memory.Factory, clk clock.Clock) bus.Bus {
	reg := bus.NewRegistry("commands")
	bus.Register[bookinghandlers.TransitionBookingCommand, *dto.BookingActionResult](reg, bookinghandlers.TransitionBookingKey, &bookinghandlers.TransitionBookingHandler{
		UoWFactory: factory,
		Clock:      clk,
		Encoder:    outbox.JSONEventEncoder{},
	})
	return bus.Chain(reg, middleware.Authorization(middleware.RoleAuthorizer{}), middleware.Transaction(factory, nil))
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepOnceCompletesEndedStays(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	box := memory.NewOutboxStore()
	factory.Outbox = box
	seedBookings(t, factory)

	clk := clock.Fixed(sweepDay)
	s := &Sweeper{UoWFactory: factory, Commands: newCommands(factory, clk), Clock: clk, Logger: quiet()}
	res, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Due: 2, Completed: 2}, res)

	for id, want := range map[domainbooking.ID]domainbooking.Status{
		"ended-yesterday": domainbooking.StatusCompleted,
		"ends-today":      domainbooking.StatusCompleted,
		"running":         domainbooking.StatusApproved,
		"never-approved":  domainbooking.StatusPending,
	} {
		b, err := factory.BookingRepo.ByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status, string(id))
	}
	require.Len(t, box.Records(), 2)
	assert.Equal(t, "booking.completed", box.Records()[0].Name)

	again, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again, "a second pass finds nothing due")
}

func TestSweepOnceCountsOutcomes(t *testing.T) {
	factory := memory.NewFactory()
	seedBookings(t, factory)

	calls := 0
	commands := bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
		calls++
		cmd := msg.(bookinghandlers.TransitionBookingCommand)
		assert.Equal(t, "SYSTEM", string(cmd.Actor.Role))
		if cmd.BookingID == "ended-yesterday" {
			return nil, &domainbooking.InvalidTransitionError{BookingID: "ended-yesterday", From: domainbooking.StatusCancelled, To: domainbooking.StatusCompleted}
		}
		return nil, errors.New("store unavailable")
	})
	s := &Sweeper{UoWFactory: factory, Commands: commands, Clock: clock.Fixed(sweepDay), Logger: quiet()}

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Due: 2, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, 2, calls)
}

func TestSweeperRequiresDependencies(t *testing.T) {
	_, err := (&Sweeper{}).SweepOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweeperNotConfigured)
	assert.ErrorIs(t, (&Sweeper{}).Run(context.Background()), ErrSweeperNotConfigured)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	factory := memory.NewFactory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Sweeper{UoWFactory: factory, Commands: newCommands(factory, clock.Fixed(sweepDay)), Interval: time.Millisecond, Logger: quiet()}
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}

type pruneRecorder struct{ at []time.Time }

func (p *pruneRecorder) PruneExpired(at time.Time) int {
	p.at = append(p.at, at)
	return 3
}

func TestSweeperRunPrunesSessions(t *testing.T) {
	factory := memory.NewFactory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pruner := &pruneRecorder{}
	s := &Sweeper{UoWFactory: factory, Commands: newCommands(factory, clock.Fixed(sweepDay)), Clock: clock.Fixed(sweepDay), Sessions: pruner, Logger: quiet()}

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, []time.Time{sweepDay}, pruner.at)
}
