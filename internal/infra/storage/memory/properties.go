package memory

import (
	"context"
	"sort"
	"sync"

	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/events"
)

// PropertyRepository is an in-memory catalogue.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.ID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	return cloneProperty(p), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	if p == nil || p.ID == "" {
		return domainproperty.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneProperty(p)
	if prev, ok := r.items[p.ID]; ok {
		stored.Version = prev.Version + 1
	} else {
		stored.Version = 1
	}
	p.Version = stored.Version
	r.items[p.ID] = stored
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id domainproperty.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainproperty.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Search filters, orders newest first and pages.
func (r *PropertyRepository) Search(ctx context.Context, params domainproperty.SearchParams) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainproperty.Property, 0, len(r.items))
	for _, p := range r.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Matches(p) {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if opts.Offset >= len(matches) {
		return []*domainproperty.Property{}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(matches) {
		end = len(matches)
	}
	out := make([]*domainproperty.Property, 0, end-opts.Offset)
	for _, p := range matches[opts.Offset:end] {
		out = append(out, cloneProperty(p))
	}
	return out, nil
}

func (r *PropertyRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	if p == nil {
		return nil
	}
	copyProp := *p
	copyProp.EventRecorder = events.EventRecorder{}
	return &copyProp
}

var _ domainproperty.Repository = (*PropertyRepository)(nil)
