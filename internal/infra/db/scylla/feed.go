package scylla

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"rentora/internal/app/policies"
)

const (
	feedTable        = "notifications_by_user"
	defaultFeedLimit = 50
)

// Feed keeps every delivered notification, newest first per user.
type Feed struct {
	session *gocql.Session
}

func NewFeed(session *gocql.Session) *Feed {
	return &Feed{session: session}
}

func (f *Feed) Send(ctx context.Context, msg policies.Notification) error {
	if f.session == nil {
		return errors.New("scylla session not initialized")
	}
	id := sentID(msg)
	return f.session.
		Query(`INSERT INTO `+feedTable+` (user_id, sent_id, template, email, booking_id, data) VALUES (?, ?, ?, ?, ?, ?)`,
			msg.UserID, id, msg.Template, msg.Email, msg.BookingID, msg.Data).
		WithContext(ctx).
		Exec()
}

func (f *Feed) Recent(ctx context.Context, userID string, limit int) ([]policies.Notification, error) {
	if f.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	iter := f.session.
		Query(`SELECT sent_id, template, email, booking_id, data FROM `+feedTable+` WHERE user_id = ? LIMIT ?`, userID, limit).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()

	var (
		out       []policies.Notification
		id        gocql.UUID
		template  string
		email     string
		bookingID string
		data      map[string]string
	)
	for iter.Scan(&id, &template, &email, &bookingID, &data) {
		out = append(out, policies.Notification{
			UserID:    userID,
			Email:     email,
			Template:  template,
			BookingID: bookingID,
			Data:      data,
			SentAt:    id.Time().UTC(),
		})
		data = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// sentID orders rows by SentAt when the caller stamped one.
func sentID(msg policies.Notification) gocql.UUID {
	if msg.SentAt.IsZero() {
		return gocql.TimeUUID()
	}
	return gocql.UUIDFromTime(msg.SentAt)
}

var (
	_ policies.Notifier         = (*Feed)(nil)
	_ policies.NotificationFeed = (*Feed)(nil)
)
