package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	docs   []*EventDocument
	sent   []string
	failed map[string]string
}

func (s *fakeSource) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.State == StateNew {
			d.State = StateClaimed
			d.ClaimedBy = workerID
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeSource) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeSource) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[string]string{}
	}
	s.failed[id] = errMsg
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	err  error
	msgs []published
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func newDoc(id, name string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"booking_id":"b-1"}`),
		OccurredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Aggregate:  "b-1",
		Headers:    map[string]string{"x-request-id": "req-1"},
		State:      StateNew,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	src := &fakeSource{docs: []*EventDocument{newDoc("evt-1", "booking.requested"), newDoc("evt-2", "property.updated")}}
	prod := &fakeProducer{}
	w := &Worker{Store: src, Producer: prod, TopicPrefix: "dev.", Source: "rentora", ID: "w-1", Logger: quietLogger()}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"evt-1", "evt-2"}, src.sent)

	require.Len(t, prod.msgs, 2)
	assert.Equal(t, "dev.booking.events.v1", prod.msgs[0].topic)
	assert.Equal(t, "dev.property.events.v1", prod.msgs[1].topic)
	assert.Equal(t, "b-1", prod.msgs[0].key)
	assert.Equal(t, "application/cloudevents+json", prod.msgs[0].headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(prod.msgs[0].payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "rentora", evt["source"])
	assert.Equal(t, "req-1", evt["requestid"])
	assert.Equal(t, map[string]any{"booking_id": "b-1"}, evt["data"])
}

func TestWorkerReschedulesFailedPublish(t *testing.T) {
	src := &fakeSource{docs: []*EventDocument{newDoc("evt-1", "booking.approved")}}
	w := &Worker{Store: src, Producer: &fakeProducer{err: errors.New("broker down")}, Backoff: []time.Duration{time.Minute}, Logger: quietLogger()}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, src.sent)
	assert.Equal(t, "broker down", src.failed["evt-1"])
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	doc := newDoc("evt-1", "booking.approved")
	doc.Payload = []byte("not json")
	src := &fakeSource{docs: []*EventDocument{doc}}
	prod := &fakeProducer{}
	w := &Worker{Store: src, Producer: prod, Logger: quietLogger()}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prod.msgs)
	assert.Contains(t, src.failed, "evt-1")
}

func TestWorkerRequiresDependencies(t *testing.T) {
	_, err := (&Worker{}).Drain(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
	assert.ErrorIs(t, (&Worker{Store: &fakeSource{}}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestWorkerNextRetry(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, time.Minute},
		{7, time.Minute},
	}
	for _, tt := range tests {
		got := time.Until(w.nextRetry(tt.attempts))
		assert.InDelta(t, tt.want.Seconds(), got.Seconds(), 1)
	}
	assert.InDelta(t, defaultRetry.Seconds(), time.Until((&Worker{}).nextRetry(0)).Seconds(), 1)
}

type recordingHandler struct{ payloads [][]byte }

func (h *recordingHandler) HandlePayload(ctx context.Context, payload []byte) error {
	h.payloads = append(h.payloads, payload)
	return nil
}

func TestDirectProducerRoutesByTopic(t *testing.T) {
	bookings := &recordingHandler{}
	p := NewDirectProducer()
	p.Subscribe(TopicFor("", "booking.requested"), bookings)

	require.NoError(t, p.Publish(context.Background(), "booking.events.v1", "b-1", []byte("a"), nil))
	require.NoError(t, p.Publish(context.Background(), "property.events.v1", "p-1", []byte("b"), nil))
	assert.Equal(t, [][]byte{[]byte("a")}, bookings.payloads)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "booking.events.v1", TopicFor("", "booking.cancelled"))
	assert.Equal(t, "prod.user.events.v1", TopicFor("prod.", "user.deleted"))
	assert.Equal(t, "plain.events.v1", TopicFor("", "plain"))
}
