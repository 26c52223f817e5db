package availability

import (
	"errors"
	"sort"

	"rentora/internal/domain/shared/daterange"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
)

// Entry is one occupied range, referenced by the booking holding it.
type Entry struct {
	PropertyID string
	Reference  string
	Range      daterange.DateRange
}

// Index maps each property to its occupied ranges ordered by start date.
// It is derived state: rebuild it from the authoritative bookings rather than persisting it.
type Index struct {
	byProperty map[string][]Entry
}

func NewIndex() *Index {
	return &Index{byProperty: make(map[string][]Entry)}
}

// Build creates an index from entries; overlapping entries are kept as-is.
func Build(entries []Entry) *Index {
	ix := NewIndex()
	for _, e := range entries {
		ix.byProperty[e.PropertyID] = append(ix.byProperty[e.PropertyID], e)
	}
	for id := range ix.byProperty {
		sortEntries(ix.byProperty[id])
	}
	return ix
}

func (ix *Index) Entries(propertyID string) []Entry {
	if ix == nil {
		return nil
	}
	out := make([]Entry, len(ix.byProperty[propertyID]))
	copy(out, ix.byProperty[propertyID])
	return out
}

func (ix *Index) Ranges(propertyID string) []daterange.DateRange {
	if ix == nil {
		return nil
	}
	entries := ix.byProperty[propertyID]
	out := make([]daterange.DateRange, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Range)
	}
	return out
}

// Snapshot returns property id -> sorted ranges.
func (ix *Index) Snapshot() map[string][]daterange.DateRange {
	out := make(map[string][]daterange.DateRange)
	if ix == nil {
		return out
	}
	for id := range ix.byProperty {
		out[id] = ix.Ranges(id)
	}
	return out
}

// Conflict returns the first entry overlapping r, ignoring entries held by exclude.
func (ix *Index) Conflict(propertyID string, r daterange.DateRange, exclude string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	entries := ix.byProperty[propertyID]
	// entries at or after i start no earlier than r.End and cannot overlap
	i := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Range.Start.Before(r.End)
	})
	for j := 0; j < i; j++ {
		e := entries[j]
		if e.Reference != "" && e.Reference == exclude {
			continue
		}
		if e.Range.Overlaps(r) {
			return e, true
		}
	}
	return Entry{}, false
}

func (ix *Index) CanReserve(propertyID string, r daterange.DateRange) bool {
	_, found := ix.Conflict(propertyID, r, "")
	return !found
}

// Reserve adds an entry unless it overlaps an existing one.
func (ix *Index) Reserve(e Entry) error {
	if _, found := ix.Conflict(e.PropertyID, e.Range, e.Reference); found {
		return ErrOverlappingRange
	}
	if ix.byProperty == nil {
		ix.byProperty = make(map[string][]Entry)
	}
	entries := append(ix.byProperty[e.PropertyID], e)
	sortEntries(entries)
	ix.byProperty[e.PropertyID] = entries
	return nil
}

// Release removes the entry held by reference.
func (ix *Index) Release(propertyID, reference string) error {
	if ix == nil {
		return ErrRangeNotFound
	}
	entries := ix.byProperty[propertyID]
	for i, e := range entries {
		if e.Reference == reference {
			ix.byProperty[propertyID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return ErrRangeNotFound
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Range.Start.Equal(entries[j].Range.Start) {
			return entries[i].Range.End.Before(entries[j].Range.End)
		}
		return entries[i].Range.Start.Before(entries[j].Range.Start)
	})
}
