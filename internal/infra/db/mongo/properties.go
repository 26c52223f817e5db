package mongo

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/money"
	domainuser "rentora/internal/domain/user"
)

const propertiesCollection = "properties"

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(propertiesCollection)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts p with optimistic versioning.
func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	doc.Version = p.Version + 1
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	res, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id domainproperty.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainproperty.ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) Search(ctx context.Context, params domainproperty.SearchParams) ([]*domainproperty.Property, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OwnerID != "" {
		filter["owner_id"] = string(opts.OwnerID)
	}
	if opts.OnlyAvailable {
		filter["is_available"] = true
	}
	if opts.City != "" {
		filter["address.city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(opts.City) + "$", "$options": "i"}
	}
	rent := bson.M{}
	if opts.MinRentAmount > 0 {
		rent["$gte"] = opts.MinRentAmount
	}
	if opts.MaxRentAmount > 0 {
		rent["$lte"] = opts.MaxRentAmount
	}
	if len(rent) > 0 {
		filter["rent.amount"] = rent
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	var docs []propertyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainproperty.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *PropertyRepository) Count(ctx context.Context) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return int(n), err
}

type propertyDocument struct {
	ID           string          `bson:"_id"`
	OwnerID      string          `bson:"owner_id"`
	Title        string          `bson:"title"`
	Description  string          `bson:"description"`
	PropertyType string          `bson:"property_type"`
	Address      addressDocument `bson:"address"`
	Rent         money.Money     `bson:"rent"`
	Bedrooms     int             `bson:"bedrooms"`
	Bathrooms    int             `bson:"bathrooms"`
	SquareFeet   int             `bson:"square_feet"`
	ImageURL     string          `bson:"image_url"`
	IsAvailable  bool            `bson:"is_available"`
	CreatedAt    int64           `bson:"created_at"`
	UpdatedAt    int64           `bson:"updated_at"`
	Version      int64           `bson:"version"`
}

type addressDocument struct {
	Line  string `bson:"line"`
	City  string `bson:"city"`
	State string `bson:"state"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:           string(p.ID),
		OwnerID:      string(p.OwnerID),
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		Address:      addressDocument{Line: p.Address.Line, City: p.Address.City, State: p.Address.State},
		Rent:         p.Rent,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		SquareFeet:   p.SquareFeet,
		ImageURL:     p.ImageURL,
		IsAvailable:  p.IsAvailable,
		CreatedAt:    p.CreatedAt.UnixMilli(),
		UpdatedAt:    p.UpdatedAt.UnixMilli(),
		Version:      p.Version,
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	return &domainproperty.Property{
		ID:           domainproperty.ID(d.ID),
		OwnerID:      domainuser.ID(d.OwnerID),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		Address:      domainproperty.Address{Line: d.Address.Line, City: d.Address.City, State: d.Address.State},
		Rent:         d.Rent,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		SquareFeet:   d.SquareFeet,
		ImageURL:     d.ImageURL,
		IsAvailable:  d.IsAvailable,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

var _ domainproperty.Repository = (*PropertyRepository)(nil)
