package policies

import (
	"context"
	"time"
)

// Notification is a message for one user about one booking.
type Notification struct {
	UserID    string
	Email     string
	Template  string
	BookingID string
	Data      map[string]string
	SentAt    time.Time
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotificationFeed reads back what was sent to a user, newest first.
type NotificationFeed interface {
	Recent(ctx context.Context, userID string, limit int) ([]Notification, error)
}
