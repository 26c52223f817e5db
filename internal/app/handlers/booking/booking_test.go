package booking

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	"rentora/internal/app/middleware"
	"rentora/internal/app/outbox"
	"rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
	"rentora/internal/infra/storage/memory"
)

var (
	today   = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	owner   = auth.Actor{UserID: "owner-1", Role: user.RoleOwner}
	renter  = auth.Actor{UserID: "renter-1", Role: user.RoleRenter}
	renter2 = auth.Actor{UserID: "renter-2", Role: user.RoleRenter}
)

// flakyBookings fails the first failures transition commits as if another writer won.
type flakyBookings struct {
	*memory.BookingRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyBookings) CommitTransition(ctx context.Context, b *domainbooking.Booking, expected domainbooking.Status, guard *domainbooking.Guard) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return domainbooking.ErrStaleSnapshot
	}
	return f.BookingRepository.CommitTransition(ctx, b, expected, guard)
}

type fixture struct {
	factory  memory.Factory
	box      *memory.OutboxStore
	bookings *flakyBookings
	commands bus.Bus
	queries  bus.Bus
	now      time.Time
	ids      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: today}
	f.factory = memory.NewFactory()
	f.box = memory.NewOutboxStore()
	f.factory.Outbox = f.box
	f.bookings = &flakyBookings{BookingRepository: memory.NewBookingRepository()}
	f.factory.BookingRepo = f.bookings

	clk := clock.Func(func() time.Time { return f.now })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := domainbooking.NewValidator(domainbooking.Policy{MinimumStayDays: 30}, clk)

	reg := bus.NewRegistry("commands")
	bus.Register[RequestBookingCommand, *dto.Booking](reg, RequestBookingKey, &RequestBookingHandler{
		Validator: validator,
		Clock:     clk,
		Encoder:   outbox.JSONEventEncoder{},
		Logger:    logger,
		NewID: func() string {
			f.ids++
			return "b-" + string(rune('0'+f.ids))
		},
	})
	bus.Register[TransitionBookingCommand, *dto.BookingActionResult](reg, TransitionBookingKey, &TransitionBookingHandler{
		UoWFactory: f.factory,
		Clock:      clk,
		Encoder:    outbox.JSONEventEncoder{},
		Logger:     logger,
	})
	f.commands = bus.Chain(reg,
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), middleware.IdempotencyOptions{TTL: time.Hour, Clock: clk}),
		middleware.Transaction(f.factory, nil),
	)

	qreg := bus.NewRegistry("queries")
	(&QueryHandler{UoWFactory: f.factory, Logger: logger}).Register(qreg)
	f.queries = bus.Chain(qreg, middleware.Authorization(middleware.RoleAuthorizer{}))

	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:      "prop-1",
		OwnerID: owner.UserID,
		Details: domainproperty.Details{
			Title:     "Sea-facing 1BHK",
			Address:   domainproperty.Address{City: "Mumbai"},
			Rent:      money.Must(2500000, "INR"),
			Bedrooms:  1,
			Bathrooms: 1,
		},
		IsAvailable: true,
		Now:         today,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.PropertyRepo.Save(context.Background(), prop))
	return f
}

func (f *fixture) request(actor auth.Actor, start, end, key string) (*dto.Booking, error) {
	return bus.Dispatch[RequestBookingCommand, *dto.Booking](context.Background(), f.commands, RequestBookingCommand{
		Actor:           actor,
		PropertyID:      "prop-1",
		StartDate:       start,
		EndDate:         end,
		IdempotencyKeyV: key,
	})
}

func (f *fixture) transition(actor auth.Actor, id, target string) (*dto.BookingActionResult, error) {
	return bus.Dispatch[TransitionBookingCommand, *dto.BookingActionResult](context.Background(), f.commands, TransitionBookingCommand{
		Actor:        actor,
		BookingID:    id,
		TargetStatus: target,
	})
}

func eventNames(box *memory.OutboxStore) []string {
	var names []string
	for _, rec := range box.Records() {
		names = append(names, rec.Name)
	}
	return names
}

func TestRequestBooking(t *testing.T) {
	f := newFixture(t)

	b, err := f.request(renter, "2025-06-01", "2025-08-01", "")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", b.Status.Code)
	assert.Equal(t, 61, b.DurationDays)
	assert.Equal(t, int64(7500000), b.Total.Amount, "61 days bill as three 30-day units")
	assert.Equal(t, "Sea-facing 1BHK", b.Property.Title)
	assert.Equal(t, []string{"booking.requested"}, eventNames(f.box))

	tests := []struct {
		name    string
		actor   auth.Actor
		start   string
		end     string
		wantErr error
	}{
		{"owner cannot request", owner, "2025-06-01", "2025-07-01", middleware.ErrForbidden},
		{"anonymous", auth.Actor{}, "2025-06-01", "2025-07-01", middleware.ErrUnauthenticated},
		{"start in past", renter, "2025-05-01", "2025-07-01", domainbooking.ErrStartInPast},
		{"too short", renter, "2025-06-01", "2025-06-20", domainbooking.ErrMinimumStay},
		{"reversed", renter, "2025-07-01", "2025-06-01", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.request(tt.actor, tt.start, tt.end, "")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
	assert.Len(t, f.box.Records(), 1, "rejected requests stage nothing")
}

func TestRequestBookingReversedRangeKeepsDates(t *testing.T) {
	f := newFixture(t)
	_, err := f.request(renter, "2025-07-01", "2025-06-01", "")

	var rangeErr *domainbooking.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "2025-07-01", rangeErr.Range.Start.Format(daterange.ISODate))
	assert.Equal(t, "2025-06-01", rangeErr.Range.End.Format(daterange.ISODate))
	assert.Contains(t, err.Error(), "[2025-07-01, 2025-06-01)")
}

func TestRequestBookingIdempotent(t *testing.T) {
	f := newFixture(t)
	first, err := f.request(renter, "2025-06-01", "2025-07-01", "key-1")
	require.NoError(t, err)
	again, err := f.request(renter, "2025-06-01", "2025-07-01", "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.request(renter2, "2025-06-01", "2025-07-01", "key-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "keys are scoped per renter")
}

func TestRequestBookingRejectsApprovedOverlap(t *testing.T) {
	f := newFixture(t)
	first, err := f.request(renter, "2025-06-01", "2025-07-01", "")
	require.NoError(t, err)
	_, err = f.transition(owner, first.ID, "APPROVED")
	require.NoError(t, err)

	_, err = f.request(renter2, "2025-06-15", "2025-07-20", "")
	var conflict *domainbooking.DateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domainbooking.ID(first.ID), conflict.ConflictingBookingID)

	// touching ranges do not overlap
	_, err = f.request(renter2, "2025-07-01", "2025-08-01", "")
	require.NoError(t, err)
}

func TestTransitionBooking(t *testing.T) {
	f := newFixture(t)
	first, err := f.request(renter, "2025-06-01", "2025-07-01", "")
	require.NoError(t, err)
	second, err := f.request(renter2, "2025-06-10", "2025-07-15", "")
	require.NoError(t, err)

	_, err = f.transition(renter, first.ID, "APPROVED")
	require.ErrorIs(t, err, domainbooking.ErrUnauthorizedTransition)

	res, err := f.transition(owner, first.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", res.Status.Code)

	_, err = f.transition(owner, second.ID, "APPROVED")
	require.ErrorIs(t, err, domainbooking.ErrDateConflict)

	_, err = f.transition(owner, first.ID, "PENDING")
	require.Error(t, err)

	_, err = f.transition(owner, first.ID, "COMPLETED")
	require.ErrorIs(t, err, domainbooking.ErrCompletionTooEarly)

	res, err = f.transition(renter, first.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", res.Status.Code)

	// the dates are free again
	res, err = f.transition(owner, second.ID, "APPROVED")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", res.Status.Code)

	_, err = f.transition(owner, first.ID, "APPROVED")
	require.ErrorIs(t, err, domainbooking.ErrInvalidTransition)

	_, err = f.transition(owner, "missing", "APPROVED")
	require.ErrorIs(t, err, domainbooking.ErrNotFound)

	assert.Equal(t, []string{
		"booking.requested", "booking.requested",
		"booking.approved", "booking.cancelled", "booking.approved",
	}, eventNames(f.box))
}

func TestTransitionBookingRetriesStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	b, err := f.request(renter, "2025-06-01", "2025-07-01", "")
	require.NoError(t, err)

	f.bookings.failures = 2
	res, err := f.transition(owner, b.ID, "APPROVED")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", res.Status.Code)
	assert.Equal(t, 3, f.bookings.calls)
	assert.Equal(t, []string{"booking.requested", "booking.approved"}, eventNames(f.box), "failed attempts stage nothing")

	f.bookings.calls = 0
	f.bookings.failures = 5
	_, err = f.transition(renter, b.ID, "CANCELLED")
	require.ErrorIs(t, err, domainbooking.ErrStaleSnapshot)
	assert.Equal(t, defaultMaxAttempts, f.bookings.calls)
}

func TestTransitionBookingCompletesAfterStay(t *testing.T) {
	f := newFixture(t)
	b, err := f.request(renter, "2025-06-01", "2025-07-01", "")
	require.NoError(t, err)
	_, err = f.transition(owner, b.ID, "APPROVED")
	require.NoError(t, err)

	f.now = time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC)
	_, err = f.transition(renter, b.ID, "COMPLETED")
	require.ErrorIs(t, err, domainbooking.ErrUnauthorizedTransition)

	res, err := f.transition(auth.System, b.ID, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status.Code)
}

func TestBookingQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.request(renter, "2025-06-01", "2025-07-01", "")
	require.NoError(t, err)
	_, err = f.request(renter2, "2025-08-01", "2025-09-01", "")
	require.NoError(t, err)
	_, err = f.transition(owner, first.ID, "APPROVED")
	require.NoError(t, err)

	got, err := bus.Dispatch[GetBookingQuery, dto.Booking](ctx, f.queries, GetBookingQuery{Actor: owner, BookingID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", got.Status.Code)

	_, err = bus.Dispatch[GetBookingQuery, dto.Booking](ctx, f.queries, GetBookingQuery{Actor: renter2, BookingID: first.ID})
	assert.Error(t, err)

	mine, err := bus.Dispatch[ListRenterBookingsQuery, dto.BookingCollection](ctx, f.queries, ListRenterBookingsQuery{Actor: renter})
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)

	owned, err := bus.Dispatch[ListOwnerBookingsQuery, dto.BookingCollection](ctx, f.queries, ListOwnerBookingsQuery{Actor: owner, Status: "pending"})
	require.NoError(t, err)
	require.Equal(t, 1, owned.Total)
	assert.Equal(t, "renter-2", owned.Items[0].RenterID)

	_, err = bus.Dispatch[ListAllBookingsQuery, dto.BookingCollection](ctx, f.queries, ListAllBookingsQuery{Actor: owner})
	assert.ErrorIs(t, err, middleware.ErrForbidden)

	all, err := bus.Dispatch[ListAllBookingsQuery, dto.BookingCollection](ctx, f.queries, ListAllBookingsQuery{Actor: auth.Actor{UserID: "admin-1", Role: user.RoleAdmin}})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
}
