package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appoutbox "rentora/internal/app/outbox"
	infraoutbox "rentora/internal/infra/outbox"
)

// OutboxStore keeps committed event records for the relay worker.
type OutboxStore struct {
	mu      sync.Mutex
	records map[string]*infraoutbox.EventDocument
	seq     []string
	wake    chan struct{}
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{
		records: make(map[string]*infraoutbox.EventDocument),
		wake:    make(chan struct{}, 1),
	}
}

// Add makes record immediately visible. Units buffer their records and call Add on commit.
func (o *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.records[record.ID]; ok {
		return nil
	}
	o.records[record.ID] = &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     append([]byte(nil), record.Payload...),
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: time.Now().UTC(),
	}
	o.seq = append(o.seq, record.ID)
	return nil
}

// Flush nudges the relay.
func (o *OutboxStore) Flush(ctx context.Context) error {
	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

func (o *OutboxStore) Wake() <-chan struct{} {
	return o.wake
}

func (o *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range o.seq {
		doc := o.records[id]
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		claimed := *doc
		return &claimed, nil
	}
	return nil, nil
}

func (o *OutboxStore) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc, ok := o.records[id]; ok {
		doc.State = infraoutbox.StateSent
		doc.SentAt = time.Now().UTC()
	}
	return nil
}

func (o *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc, ok := o.records[id]; ok {
		doc.State = infraoutbox.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	}
	return nil
}

// Records returns every record in insertion order, mostly for tests.
func (o *OutboxStore) Records() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.seq))
	for _, id := range o.seq {
		out = append(out, *o.records[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

var (
	_ appoutbox.Outbox   = (*OutboxStore)(nil)
	_ infraoutbox.Source = (*OutboxStore)(nil)
	_ infraoutbox.Waker  = (*OutboxStore)(nil)
)
