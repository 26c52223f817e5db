package inbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "app_inbox"
	defaultTTL     = 7 * 24 * time.Hour
)

// Store remembers which event ids a consumer group has handled. Entries are
// keyed by {consumer, event_id} and expire after TTL.
type Store struct {
	col      *mongo.Collection
	consumer string
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(db *mongo.Database, consumer string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{
		col:      db.Collection(collectionName),
		consumer: consumer,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes installs the expiry index. Uniqueness comes from _id.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "received_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("inbox: indexes: %w", err)
	}
	return nil
}

// Seen claims the event for this consumer. true means an earlier delivery
// already holds the claim.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, inboxEntry{
		ID:         s.key(eventID),
		ReceivedAt: s.now(),
	})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, fmt.Errorf("inbox: claim %s: %w", eventID, err)
	}
}

// Release drops the claim so a redelivery is processed again.
func (s *Store) Release(ctx context.Context, eventID string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": s.key(eventID)}); err != nil {
		return fmt.Errorf("inbox: release %s: %w", eventID, err)
	}
	return nil
}

func (s *Store) key(eventID string) entryKey {
	return entryKey{Consumer: s.consumer, EventID: eventID}
}

type entryKey struct {
	Consumer string `bson:"consumer"`
	EventID  string `bson:"event_id"`
}

type inboxEntry struct {
	ID         entryKey  `bson:"_id"`
	ReceivedAt time.Time `bson:"received_at"`
}
