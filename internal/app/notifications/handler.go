package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/policies"
	"rentora/internal/app/uow"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/user"
)

var (
	ErrHandlerNotConfigured = errors.New("notifications: handler missing dependencies")
	ErrEnvelopeInvalid      = errors.New("notifications: invalid event envelope")
)

const (
	TemplateBookingRequested = "booking_requested"
	TemplateBookingApproved  = "booking_approved"
	TemplateBookingRejected  = "booking_rejected"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateBookingCompleted = "booking_completed"
)

// Inbox remembers processed event ids per consumer.
type Inbox interface {
	// Seen records eventID and reports whether it had been recorded before.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Release forgets eventID so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

// Envelope is the CloudEvents wrapper the outbox relay publishes.
type Envelope struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Source string          `json:"source"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// Name strips the schema version suffix from Type.
func (e Envelope) Name() string {
	return strings.TrimSuffix(e.Type, ".v1")
}

type bookingEvent struct {
	BookingID  string
	PropertyID string
	RenterID   string
	Range      daterange.DateRange
	From       string
	By         string
}

type recipient int

const (
	toRenter recipient = iota
	toOwner
)

type route struct {
	template string
	to       recipient
}

var routes = map[string]route{
	"booking.requested": {template: TemplateBookingRequested, to: toOwner},
	"booking.approved":  {template: TemplateBookingApproved, to: toRenter},
	"booking.rejected":  {template: TemplateBookingRejected, to: toRenter},
	"booking.cancelled": {template: TemplateBookingCancelled, to: toOwner},
	"booking.completed": {template: TemplateBookingCompleted, to: toRenter},
}

// Handler turns booking lifecycle events into notifications. Events other than
// booking lifecycle events are acknowledged and ignored.
type Handler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Inbox      Inbox
	Clock      clock.Clock
	Logger     *slog.Logger
}

// HandlePayload decodes one CloudEvents message and handles it.
func (h *Handler) HandlePayload(ctx context.Context, payload []byte) error {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvelopeInvalid, err)
	}
	return h.HandleEnvelope(ctx, env)
}

func (h *Handler) HandleEnvelope(ctx context.Context, env Envelope) error {
	if h.UoWFactory == nil || h.Notifier == nil {
		return ErrHandlerNotConfigured
	}
	if env.ID == "" || env.Type == "" {
		return ErrEnvelopeInvalid
	}
	rt, ok := routes[env.Name()]
	if !ok {
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			h.log().DebugContext(ctx, "duplicate event skipped", "event_id", env.ID, "type", env.Type)
			return nil
		}
	}
	if err := h.deliver(ctx, env, rt); err != nil {
		if h.Inbox != nil {
			_ = h.Inbox.Release(ctx, env.ID)
		}
		return err
	}
	return nil
}

func (h *Handler) deliver(ctx context.Context, env Envelope, rt route) error {
	var evt bookingEvent
	if err := json.Unmarshal(env.Data, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvelopeInvalid, err)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var title string
	recipientID := user.ID(evt.RenterID)
	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(evt.PropertyID))
	switch {
	case err == nil:
		title = prop.Title
		if rt.to == toOwner {
			recipientID = prop.OwnerID
		}
	case errors.Is(err, domainproperty.ErrNotFound):
		if rt.to == toOwner {
			h.log().InfoContext(ctx, "notification dropped, property gone", "event_id", env.ID, "property_id", evt.PropertyID)
			return nil
		}
	default:
		return err
	}

	recipient, err := unit.Users().ByID(execCtx, recipientID)
	if errors.Is(err, user.ErrNotFound) {
		h.log().InfoContext(ctx, "notification dropped, user gone", "event_id", env.ID, "user_id", recipientID)
		return nil
	}
	if err != nil {
		return err
	}

	data := map[string]string{
		"property_id":    evt.PropertyID,
		"property_title": title,
	}
	if !evt.Range.Start.IsZero() {
		data["start_date"] = evt.Range.Start.Format(daterange.ISODate)
		data["end_date"] = evt.Range.End.Format(daterange.ISODate)
	}
	if evt.From != "" {
		data["previous_status"] = evt.From
	}
	n := policies.Notification{
		UserID:    string(recipient.ID),
		Email:     recipient.Email,
		Template:  rt.template,
		BookingID: evt.BookingID,
		Data:      data,
		SentAt:    h.now(),
	}
	if err := h.Notifier.Send(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", rt.template, err)
	}
	h.log().InfoContext(ctx, "notification sent", "event_id", env.ID, "template", rt.template, "user_id", recipient.ID, "booking_id", evt.BookingID)
	return nil
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

func (h *Handler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
