package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{name: "one day", start: "2025-06-01", end: "2025-06-02"},
		{name: "same day", start: "2025-06-01", end: "2025-06-01", wantErr: true},
		{name: "end before start", start: "2025-06-10", end: "2025-06-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewDropsTimeOfDay(t *testing.T) {
	start := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	dr, err := New(start, end)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), dr.Start)
	assert.Equal(t, 2, dr.DurationDays())
}

func TestNewRejectsSameDateDifferentTimes(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	_, err := New(start, end)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseInvalidDate(t *testing.T) {
	_, err := Parse("2025-13-01", "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseUnorderedKeepsBackwardsDates(t *testing.T) {
	dr, err := ParseUnordered(" 2025-07-01", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), dr.Start)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), dr.End)
	assert.ErrorIs(t, dr.Validate(), ErrInvalidRange)

	_, err = Parse("2025-07-01", "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = ParseUnordered("2025-07-01", "July")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestBillingUnits(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{name: "short stay bills one unit", start: "2025-06-01", end: "2025-06-05", want: 1},
		{name: "exactly thirty days", start: "2025-06-01", end: "2025-07-01", want: 1},
		{name: "thirty one days", start: "2025-06-01", end: "2025-07-02", want: 2},
		{name: "forty five days", start: "2025-06-01", end: "2025-07-16", want: 2},
		{name: "ninety days", start: "2025-01-01", end: "2025-04-01", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr := MustParse(tt.start, tt.end)
			got := dr.BillingUnits(30)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 1)
			assert.Equal(t, (dr.DurationDays()+29)/30, got)
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := MustParse("2025-06-01", "2025-06-10")
	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{name: "itself", other: base, want: true},
		{name: "partial overlap", other: MustParse("2025-06-05", "2025-06-15"), want: true},
		{name: "contained", other: MustParse("2025-06-03", "2025-06-04"), want: true},
		{name: "adjacent after", other: MustParse("2025-06-10", "2025-06-15"), want: false},
		{name: "adjacent before", other: MustParse("2025-05-25", "2025-06-01"), want: false},
		{name: "disjoint", other: MustParse("2025-07-01", "2025-07-05"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestMergeAndContains(t *testing.T) {
	a := MustParse("2025-06-01", "2025-06-10")
	b := MustParse("2025-06-10", "2025-06-20")

	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.Equal(t, MustParse("2025-06-01", "2025-06-20"), merged)
	assert.True(t, merged.Contains(a))
	assert.True(t, merged.ContainsDate(b.Start))
	assert.False(t, merged.ContainsDate(merged.End))

	_, ok = a.Merge(MustParse("2025-07-01", "2025-07-02"))
	assert.False(t, ok)
}
