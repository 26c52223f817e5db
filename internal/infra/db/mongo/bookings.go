package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	domainuser "rentora/internal/domain/user"
)

const (
	bookingsCollection = "bookings"
	ledgersCollection  = "booking_ledgers"
)

// BookingRepository stores bookings next to a per-property ledger document whose
// version moves with every committed change to the property's APPROVED set.
type BookingRepository struct {
	col     *mongo.Collection
	ledgers *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection), ledgers: db.Collection(ledgersCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	b.Version = 1
	if _, err := r.col.InsertOne(ctx, newBookingDocument(b)); err != nil {
		return err
	}
	return nil
}

func (r *BookingRepository) Snapshot(ctx context.Context, propertyID domainproperty.ID) (domainbooking.Snapshot, error) {
	snap := domainbooking.Snapshot{PropertyID: propertyID}
	var ledger ledgerDocument
	err := r.ledgers.FindOne(ctx, bson.M{"_id": string(propertyID)}).Decode(&ledger)
	switch {
	case err == nil:
		snap.Version = ledger.Version
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return domainbooking.Snapshot{}, err
	}
	bookings, err := r.find(ctx, bson.M{"property_id": string(propertyID)})
	if err != nil {
		return domainbooking.Snapshot{}, err
	}
	snap.Bookings = bookings
	return snap, nil
}

// CommitTransition must run inside a unit's session so both writes commit together.
func (r *BookingRepository) CommitTransition(ctx context.Context, b *domainbooking.Booking, expected domainbooking.Status, guard *domainbooking.Guard) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "status": string(expected)}
	update := bson.M{
		"$set": bson.M{
			"status":     doc.Status,
			"message":    doc.Message,
			"updated_at": doc.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return staleOr(err)
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrStaleSnapshot
	}
	if guard != nil {
		ledgerFilter := bson.M{"_id": string(guard.PropertyID), "version": guard.Version}
		_, err := r.ledgers.UpdateOne(ctx, ledgerFilter, bson.M{"$inc": bson.M{"version": 1}}, options.Update().SetUpsert(true))
		if err != nil {
			return staleOr(err)
		}
	}
	b.Version++
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"renter_id": string(renterID)})
}

func (r *BookingRepository) ListByProperties(ctx context.Context, ids []domainproperty.ID) ([]*domainbooking.Booking, error) {
	if len(ids) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	return r.find(ctx, bson.M{"property_id": bson.M{"$in": raw}})
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func staleOr(err error) error {
	if isConflict(err) {
		return fmt.Errorf("%w: %v", domainbooking.ErrStaleSnapshot, err)
	}
	return err
}

type bookingDocument struct {
	ID         string        `bson:"_id"`
	PropertyID string        `bson:"property_id"`
	RenterID   string        `bson:"renter_id"`
	Range      rangeDocument `bson:"range"`
	Status     string        `bson:"status"`
	Message    string        `bson:"message"`
	Total      money.Money   `bson:"total"`
	CreatedAt  int64         `bson:"created_at"`
	UpdatedAt  int64         `bson:"updated_at"`
	Version    int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type ledgerDocument struct {
	PropertyID string `bson:"_id"`
	Version    int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		RenterID:   string(b.RenterID),
		Range:      rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		Status:     string(b.Status),
		Message:    b.Message,
		Total:      b.Total,
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
		Version:    b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         domainbooking.ID(d.ID),
		PropertyID: domainproperty.ID(d.PropertyID),
		RenterID:   domainuser.ID(d.RenterID),
		Range:      daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Status:     domainbooking.Status(d.Status),
		Message:    d.Message,
		Total:      d.Total,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
