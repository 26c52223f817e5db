package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rentora/internal/app/policies"
)

// LogNotifier writes notifications to the structured log instead of sending them.
// It keeps the most recent ones for inspection.
type LogNotifier struct {
	Logger *slog.Logger
	Keep   int

	mu   sync.Mutex
	sent []policies.Notification
}

func (n *LogNotifier) Send(ctx context.Context, msg policies.Notification) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"template", msg.Template,
		"user_id", msg.UserID,
		"email", msg.Email,
		"booking_id", msg.BookingID,
	}
	for k, v := range msg.Data {
		attrs = append(attrs, k, v)
	}
	logger.InfoContext(ctx, "notification", attrs...)

	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if keep := n.keep(); len(n.sent) > keep {
		n.sent = append([]policies.Notification(nil), n.sent[len(n.sent)-keep:]...)
	}
	return nil
}

// Sent returns the retained notifications, oldest first.
func (n *LogNotifier) Sent() []policies.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]policies.Notification(nil), n.sent...)
}

// Recent returns up to limit retained notifications for userID, newest first.
func (n *LogNotifier) Recent(ctx context.Context, userID string, limit int) ([]policies.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []policies.Notification
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].UserID != userID {
			continue
		}
		out = append(out, n.sent[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (n *LogNotifier) keep() int {
	if n.Keep > 0 {
		return n.Keep
	}
	return 100
}

var (
	_ policies.Notifier         = (*LogNotifier)(nil)
	_ policies.NotificationFeed = (*LogNotifier)(nil)
)
