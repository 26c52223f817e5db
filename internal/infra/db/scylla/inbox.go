package scylla

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
)

const inboxTable = "notification_inbox"

// Inbox records processed event ids per consumer with a lightweight transaction,
// so concurrent deliveries of one event agree on a single winner.
type Inbox struct {
	session  *gocql.Session
	consumer string
	ttl      time.Duration
}

// NewInbox builds an Inbox. Entries expire after ttl; zero keeps them forever.
func NewInbox(session *gocql.Session, consumer string, ttl time.Duration) *Inbox {
	return &Inbox{session: session, consumer: consumer, ttl: ttl}
}

func (i *Inbox) Seen(ctx context.Context, eventID string) (bool, error) {
	if i.session == nil {
		return false, errors.New("scylla session not initialized")
	}
	applied, err := i.session.
		Query(`INSERT INTO `+inboxTable+` (consumer, event_id, seen_at) VALUES (?, ?, ?) IF NOT EXISTS USING TTL ?`,
			i.consumer, eventID, time.Now().UTC(), ttlSeconds(i.ttl)).
		WithContext(ctx).
		SerialConsistency(gocql.LocalSerial).
		MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return !applied, nil
}

func (i *Inbox) Release(ctx context.Context, eventID string) error {
	if i.session == nil {
		return errors.New("scylla session not initialized")
	}
	return i.session.
		Query(`DELETE FROM `+inboxTable+` WHERE consumer = ? AND event_id = ?`, i.consumer, eventID).
		WithContext(ctx).
		Exec()
}

func ttlSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	secs := int(ttl / time.Second)
	if secs == 0 {
		return 1
	}
	return secs
}
