package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/events"
	domainuser "rentora/internal/domain/user"
)

var ErrBookingExists = errors.New("memory: booking already exists")

// BookingRepository keeps bookings and a per-property occupancy ledger. The ledger
// version moves whenever a committed transition enters or leaves APPROVED.
type BookingRepository struct {
	mu     sync.RWMutex
	items  map[domainbooking.ID]*domainbooking.Booking
	ledger map[domainproperty.ID]int64
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items:  make(map[domainbooking.ID]*domainbooking.Booking),
		ledger: make(map[domainproperty.ID]int64),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	if b == nil || b.ID == "" {
		return domainbooking.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; ok {
		return ErrBookingExists
	}
	b.Version = 1
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) Snapshot(ctx context.Context, propertyID domainproperty.ID) (domainbooking.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := domainbooking.Snapshot{PropertyID: propertyID, Version: r.ledger[propertyID]}
	for _, b := range r.items {
		if b.PropertyID == propertyID {
			snap.Bookings = append(snap.Bookings, cloneBooking(b))
		}
	}
	sortByCreated(snap.Bookings)
	return snap, nil
}

func (r *BookingRepository) CommitTransition(ctx context.Context, b *domainbooking.Booking, expected domainbooking.Status, guard *domainbooking.Guard) error {
	if b == nil {
		return domainbooking.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[b.ID]
	if !ok {
		return domainbooking.ErrNotFound
	}
	if stored.Status != expected {
		return domainbooking.ErrStaleSnapshot
	}
	if guard != nil {
		if r.ledger[guard.PropertyID] != guard.Version {
			return domainbooking.ErrStaleSnapshot
		}
		r.ledger[guard.PropertyID]++
	}
	b.Version = stored.Version + 1
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.RenterID == renterID }), nil
}

func (r *BookingRepository) ListByProperties(ctx context.Context, ids []domainproperty.ID) ([]*domainbooking.Booking, error) {
	if len(ids) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	set := make(map[domainproperty.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.filter(func(b *domainbooking.Booking) bool {
		_, ok := set[b.PropertyID]
		return ok
	}), nil
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.Status == status }), nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.filter(func(*domainbooking.Booking) bool { return true }), nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sortByCreated(out)
	return out
}

func sortByCreated(bookings []*domainbooking.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	copyBooking.EventRecorder = events.EventRecorder{}
	return &copyBooking
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
