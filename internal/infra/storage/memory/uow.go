package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "rentora/internal/app/outbox"
	"rentora/internal/app/uow"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	domainuser "rentora/internal/domain/user"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertyRepo domainproperty.Repository
	BookingRepo  domainbooking.Repository
	UserRepo     domainuser.Repository
	Outbox       appoutbox.Outbox
}

// NewFactory builds a factory over fresh stores.
func NewFactory() Factory {
	return Factory{
		PropertyRepo: NewPropertyRepository(),
		BookingRepo:  NewBookingRepository(),
		UserRepo:     NewUserRepository(),
		Outbox:       NewOutboxStore(),
	}
}

// Begin starts a lightweight boundary. Repository writes apply immediately; only the
// outbox records are held back until Commit. Booking transitions stay safe because
// CommitTransition is conditional.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertyRepo == nil || f.BookingRepo == nil || f.UserRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		properties: f.PropertyRepo,
		bookings:   f.BookingRepo,
		users:      f.UserRepo,
		staged:     &stagedOutbox{target: f.Outbox},
	}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	properties domainproperty.Repository
	bookings   domainbooking.Repository
	users      domainuser.Repository
	staged     *stagedOutbox
}

func (u *Unit) Properties() domainproperty.Repository { return u.properties }
func (u *Unit) Bookings() domainbooking.Repository    { return u.bookings }
func (u *Unit) Users() domainuser.Repository          { return u.users }
func (u *Unit) Outbox() appoutbox.Outbox              { return u.staged }

func (u *Unit) Commit(ctx context.Context) error {
	return u.staged.publish(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.staged.discard()
	return nil
}

type stagedOutbox struct {
	mu      sync.Mutex
	target  appoutbox.Outbox
	records []appoutbox.EventRecord
}

func (s *stagedOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Flush is handled by the shared store once the unit commits.
func (s *stagedOutbox) Flush(ctx context.Context) error {
	return nil
}

func (s *stagedOutbox) publish(ctx context.Context) error {
	s.mu.Lock()
	records := s.records
	s.records = nil
	s.mu.Unlock()
	if s.target == nil {
		return nil
	}
	for _, rec := range records {
		if err := s.target.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *stagedOutbox) discard() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

var _ uow.UoWFactory = Factory{}
