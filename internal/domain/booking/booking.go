package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/events"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
)

const MaxMessageLength = 1000

var (
	ErrIDRequired     = errors.New("booking: id is required")
	ErrRenterRequired = errors.New("booking: renter is required")
	ErrMessageTooLong = errors.New("booking: message is too long")
)

type ID string

// Booking is a renter's request to occupy a property for a date range.
// It is never deleted; it only moves to a terminal status.
type Booking struct {
	ID         ID
	PropertyID property.ID
	RenterID   user.ID
	Range      daterange.DateRange
	Status     Status
	Message    string
	Total      money.Money
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

// Snapshot is every booking of one property plus the version of its occupancy ledger.
type Snapshot struct {
	PropertyID property.ID
	Bookings   []*Booking
	Version    int64
}

// Guard makes a commit conditional on the property's occupancy ledger still being at Version.
type Guard struct {
	PropertyID property.ID
	Version    int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Snapshot(ctx context.Context, propertyID property.ID) (Snapshot, error)
	// CommitTransition persists b only if the stored status still equals expected and,
	// when guard is set, the ledger version still matches. It fails with ErrStaleSnapshot otherwise.
	CommitTransition(ctx context.Context, b *Booking, expected Status, guard *Guard) error
	ListByRenter(ctx context.Context, renterID user.ID) ([]*Booking, error)
	ListByProperties(ctx context.Context, ids []property.ID) ([]*Booking, error)
	ListByStatus(ctx context.Context, status Status) ([]*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
}

type CreateParams struct {
	ID         ID
	RenterID   user.ID
	Acceptance Acceptance
	Message    string
	Now        time.Time
}

// NewBooking creates a PENDING booking from a validator acceptance.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.ID == "" {
		return nil, ErrIDRequired
	}
	if params.RenterID == "" {
		return nil, ErrRenterRequired
	}
	msg := strings.TrimSpace(params.Message)
	if len(msg) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:         params.ID,
		PropertyID: params.Acceptance.PropertyID,
		RenterID:   params.RenterID,
		Range:      params.Acceptance.Range,
		Status:     StatusPending,
		Message:    msg,
		Total:      params.Acceptance.Total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		RenterID:   b.RenterID,
		Range:      b.Range,
		Total:      b.Total,
		At:         now,
	})
	return b, nil
}

// ByProperty filters bookings to a single property.
func ByProperty(bookings []*Booking, propertyID property.ID) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil && b.PropertyID == propertyID {
			out = append(out, b)
		}
	}
	return out
}

// WithStatus filters bookings; an empty status keeps everything.
func WithStatus(bookings []*Booking, status Status) []*Booking {
	if status == "" {
		return bookings
	}
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil && b.Status == status {
			out = append(out, b)
		}
	}
	return out
}
