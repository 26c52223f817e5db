package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	appoutbox "rentora/internal/app/outbox"
	"rentora/internal/app/uow"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	domainuser "rentora/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	PropertyRepo domainproperty.Repository
	BookingRepo  domainbooking.Repository
	UserRepo     domainuser.Repository
	Outbox       appoutbox.Outbox
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds every repository over db.
func NewFactory(db *mongo.Database, box appoutbox.Outbox) Factory {
	return Factory{
		DB:           db,
		PropertyRepo: NewPropertyRepository(db),
		BookingRepo:  NewBookingRepository(db),
		UserRepo:     NewUserRepository(db),
		Outbox:       box,
	}
}

// Begin starts a snapshot-isolated session transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(readconcern.Snapshot())
	if !opts.ReadOnly {
		txnOpts = txnOpts.SetWriteConcern(writeconcern.Majority())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:    session,
		properties: f.PropertyRepo,
		bookings:   f.BookingRepo,
		users:      f.UserRepo,
		outbox:     f.Outbox,
	}, nil
}

type Unit struct {
	session mongo.Session

	properties domainproperty.Repository
	bookings   domainbooking.Repository
	users      domainuser.Repository
	outbox     appoutbox.Outbox
}

func (u *Unit) Properties() domainproperty.Repository { return u.properties }
func (u *Unit) Bookings() domainbooking.Repository    { return u.bookings }
func (u *Unit) Users() domainuser.Repository          { return u.users }
func (u *Unit) Outbox() appoutbox.Outbox              { return u.outbox }

// Commit reports write conflicts as stale snapshots so callers can retry on fresh data.
func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %v", domainbooking.ErrStaleSnapshot, err)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
