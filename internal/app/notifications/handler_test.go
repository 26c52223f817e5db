package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora/internal/app/policies"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
	"rentora/internal/infra/storage/memory"
)

var at = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	err  error
	sent []policies.Notification
}

func (n *recordingNotifier) Send(ctx context.Context, msg policies.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func seed(t *testing.T) memory.Factory {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()
	for _, p := range []user.CreateParams{
		{ID: "owner-1", Email: "owner@rentora.test", Name: "Owner", PasswordHash: "x", Role: user.RoleOwner, CreatedAt: at},
		{ID: "renter-1", Email: "renter@rentora.test", Name: "Renter", PasswordHash: "x", Role: user.RoleRenter, CreatedAt: at},
	} {
		u, err := user.NewUser(p)
		require.NoError(t, err)
		require.NoError(t, factory.UserRepo.Save(ctx, u))
	}
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:      "prop-1",
		OwnerID: "owner-1",
		Details: domainproperty.Details{
			Title:     "Sea-facing 1BHK",
			Address:   domainproperty.Address{City: "Mumbai"},
			Rent:      money.Must(2500000, "INR"),
			Bedrooms:  1,
			Bathrooms: 1,
		},
		IsAvailable: true,
		Now:         at,
	})
	require.NoError(t, err)
	require.NoError(t, factory.PropertyRepo.Save(ctx, prop))
	return factory
}

func envelope(t *testing.T, id, name string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(Envelope{ID: id, Type: name + ".v1", Source: "rentora", Time: at, Data: raw})
	require.NoError(t, err)
	return payload
}

func newHandler(factory memory.Factory, notifier policies.Notifier) *Handler {
	return &Handler{
		UoWFactory: factory,
		Notifier:   notifier,
		Inbox:      memory.NewInbox(),
		Clock:      clock.Fixed(at.Add(time.Minute)),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandlerRoutesToRecipient(t *testing.T) {
	stay := daterange.MustParse("2025-06-01", "2025-07-01")
	tests := []struct {
		name      string
		event     string
		data      any
		wantUser  string
		wantEmail string
		template  string
		extra     map[string]string
	}{
		{
			name:      "request goes to owner",
			event:     "booking.requested",
			data:      domainbooking.BookingRequested{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", Range: stay, At: at},
			wantUser:  "owner-1",
			wantEmail: "owner@rentora.test",
			template:  TemplateBookingRequested,
			extra:     map[string]string{"start_date": "2025-06-01", "end_date": "2025-07-01"},
		},
		{
			name:      "approval goes to renter",
			event:     "booking.approved",
			data:      domainbooking.BookingApproved{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", Range: stay, By: "owner-1", At: at},
			wantUser:  "renter-1",
			wantEmail: "renter@rentora.test",
			template:  TemplateBookingApproved,
		},
		{
			name:      "cancellation goes to owner with previous status",
			event:     "booking.cancelled",
			data:      domainbooking.BookingCancelled{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", From: domainbooking.StatusApproved, By: "renter-1", At: at},
			wantUser:  "owner-1",
			wantEmail: "owner@rentora.test",
			template:  TemplateBookingCancelled,
			extra:     map[string]string{"previous_status": "APPROVED"},
		},
		{
			name:      "completion goes to renter",
			event:     "booking.completed",
			data:      domainbooking.BookingCompleted{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", By: "system", At: at},
			wantUser:  "renter-1",
			wantEmail: "renter@rentora.test",
			template:  TemplateBookingCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			h := newHandler(seed(t), notifier)
			require.NoError(t, h.HandlePayload(context.Background(), envelope(t, "evt-1", tt.event, tt.data)))

			require.Len(t, notifier.sent, 1)
			got := notifier.sent[0]
			assert.Equal(t, tt.wantUser, got.UserID)
			assert.Equal(t, tt.wantEmail, got.Email)
			assert.Equal(t, tt.template, got.Template)
			assert.Equal(t, "b-1", got.BookingID)
			assert.Equal(t, at.Add(time.Minute), got.SentAt)
			assert.Equal(t, "Sea-facing 1BHK", got.Data["property_title"])
			for k, v := range tt.extra {
				assert.Equal(t, v, got.Data[k], k)
			}
		})
	}
}

func TestHandlerSkipsDuplicatesAndUnknownEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newHandler(seed(t), notifier)
	ctx := context.Background()
	payload := envelope(t, "evt-1", "booking.approved", domainbooking.BookingApproved{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", At: at})

	require.NoError(t, h.HandlePayload(ctx, payload))
	require.NoError(t, h.HandlePayload(ctx, payload))
	assert.Len(t, notifier.sent, 1)

	require.NoError(t, h.HandlePayload(ctx, envelope(t, "evt-2", "property.updated", map[string]string{"property_id": "prop-1"})))
	assert.Len(t, notifier.sent, 1)
}

func TestHandlerReleasesInboxOnFailure(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	h := newHandler(seed(t), notifier)
	ctx := context.Background()
	payload := envelope(t, "evt-1", "booking.approved", domainbooking.BookingApproved{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", At: at})

	require.Error(t, h.HandlePayload(ctx, payload))
	notifier.err = nil
	require.NoError(t, h.HandlePayload(ctx, payload))
	assert.Len(t, notifier.sent, 1, "redelivery is processed after a failure")
}

func TestHandlerDropsWhenRecipientGone(t *testing.T) {
	ctx := context.Background()
	factory := seed(t)
	require.NoError(t, factory.PropertyRepo.Delete(ctx, "prop-1"))
	notifier := &recordingNotifier{}
	h := newHandler(factory, notifier)

	require.NoError(t, h.HandlePayload(ctx, envelope(t, "evt-1", "booking.requested", domainbooking.BookingRequested{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", At: at})))
	assert.Empty(t, notifier.sent)

	require.NoError(t, factory.UserRepo.Delete(ctx, "renter-1"))
	require.NoError(t, h.HandlePayload(ctx, envelope(t, "evt-2", "booking.rejected", domainbooking.BookingRejected{BookingID: "b-1", PropertyID: "prop-1", RenterID: "renter-1", At: at})))
	assert.Empty(t, notifier.sent)
}

func TestHandlerRejectsBadEnvelopes(t *testing.T) {
	h := newHandler(seed(t), &recordingNotifier{})
	ctx := context.Background()
	assert.ErrorIs(t, h.HandlePayload(ctx, []byte("{")), ErrEnvelopeInvalid)
	assert.ErrorIs(t, h.HandleEnvelope(ctx, Envelope{Type: "booking.approved.v1"}), ErrEnvelopeInvalid)
	assert.ErrorIs(t, (&Handler{}).HandleEnvelope(ctx, Envelope{ID: "x", Type: "y"}), ErrHandlerNotConfigured)
}
