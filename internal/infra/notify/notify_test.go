package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora/internal/app/policies"
)

func quietNotifier(keep int) *LogNotifier {
	return &LogNotifier{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Keep: keep}
}

func TestLogNotifierKeepsNewest(t *testing.T) {
	n := quietNotifier(2)
	ctx := context.Background()
	for _, id := range []string{"b-1", "b-2", "b-3"} {
		require.NoError(t, n.Send(ctx, policies.Notification{UserID: "u-1", BookingID: id, Template: "booking_approved"}))
	}

	sent := n.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "b-2", sent[0].BookingID)
	assert.Equal(t, "b-3", sent[1].BookingID)
	assert.False(t, sent[0].SentAt.IsZero())

	sent[0].BookingID = "mutated"
	assert.Equal(t, "b-2", n.Sent()[0].BookingID)
}

func TestLogNotifierRecent(t *testing.T) {
	n := quietNotifier(0)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, msg := range []policies.Notification{
		{UserID: "owner-1", BookingID: "b-1"},
		{UserID: "renter-1", BookingID: "b-1"},
		{UserID: "owner-1", BookingID: "b-2"},
		{UserID: "owner-1", BookingID: "b-3"},
	} {
		msg.SentAt = at.Add(time.Duration(i) * time.Hour)
		require.NoError(t, n.Send(ctx, msg))
	}

	got, err := n.Recent(ctx, "owner-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-3", got[0].BookingID)
	assert.Equal(t, "b-2", got[1].BookingID)
	assert.Equal(t, at.Add(3*time.Hour), got[0].SentAt)

	got, err = n.Recent(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = n.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Send(context.Context, policies.Notification) error { return f.err }

func TestFanoutSendsToAll(t *testing.T) {
	first, second := quietNotifier(0), quietNotifier(0)
	boom := errors.New("smtp down")
	f := Fanout{first, failingNotifier{err: boom}, second}

	err := f.Send(context.Background(), policies.Notification{UserID: "u-1"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.Sent(), 1)
	assert.Len(t, second.Sent(), 1)

	assert.NoError(t, Fanout{first}.Send(context.Background(), policies.Notification{UserID: "u-1"}))
}
