package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora/internal/domain/shared/money"
)

var now = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func validDetails() Details {
	return Details{
		Title:     "2BHK near Koramangala",
		Address:   Address{Line: "5th Block", City: "Bengaluru", State: "KA"},
		Rent:      money.Must(2500000, "INR"),
		Bedrooms:  2,
		Bathrooms: 2,
	}
}

func TestNewProperty(t *testing.T) {
	p, err := NewProperty(CreateParams{ID: "p-1", OwnerID: "o-1", Details: validDetails(), IsAvailable: true, Now: now})
	require.NoError(t, err)

	assert.True(t, p.OwnedBy("o-1"))
	assert.False(t, p.OwnedBy("o-2"))
	assert.True(t, p.IsAvailable)
	require.Len(t, p.PendingEvents(), 1)
	assert.Equal(t, "property.created", p.PendingEvents()[0].EventName())
}

func TestNewPropertyValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Details)
		want   error
	}{
		{name: "title", mutate: func(d *Details) { d.Title = "  " }, want: ErrTitleRequired},
		{name: "zero rent", mutate: func(d *Details) { d.Rent = money.Must(0, "INR") }, want: ErrRentInvalid},
		{name: "no bedrooms", mutate: func(d *Details) { d.Bedrooms = 0 }, want: ErrRoomsInvalid},
		{name: "no bathrooms", mutate: func(d *Details) { d.Bathrooms = -1 }, want: ErrRoomsInvalid},
		{name: "negative area", mutate: func(d *Details) { d.SquareFeet = -10 }, want: ErrAreaInvalid},
		{name: "missing city", mutate: func(d *Details) { d.Address.City = "" }, want: ErrAddressRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)
			_, err := NewProperty(CreateParams{ID: "p-1", OwnerID: "o-1", Details: d, Now: now})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetAvailabilityRecordsOnlyChanges(t *testing.T) {
	p, err := NewProperty(CreateParams{ID: "p-1", OwnerID: "o-1", Details: validDetails(), IsAvailable: true, Now: now})
	require.NoError(t, err)
	p.DrainEvents()

	p.SetAvailability(true, now)
	assert.Empty(t, p.PendingEvents())

	p.SetAvailability(false, now.Add(time.Hour))
	assert.False(t, p.IsAvailable)
	require.Len(t, p.PendingEvents(), 1)
	assert.Equal(t, "property.availability_changed", p.PendingEvents()[0].EventName())
}

func TestSearchParamsMatches(t *testing.T) {
	p, err := NewProperty(CreateParams{ID: "p-1", OwnerID: "o-1", Details: validDetails(), IsAvailable: false, Now: now})
	require.NoError(t, err)

	assert.True(t, SearchParams{City: "bengaluru"}.Normalized().Matches(p))
	assert.False(t, SearchParams{City: "Pune"}.Normalized().Matches(p))
	assert.False(t, SearchParams{OnlyAvailable: true}.Normalized().Matches(p))
	assert.True(t, SearchParams{MinRentAmount: 3000000, MaxRentAmount: 2000000}.Normalized().Matches(p))
	assert.False(t, SearchParams{MaxRentAmount: 2000000}.Normalized().Matches(p))
	assert.False(t, SearchParams{OwnerID: "o-2"}.Normalized().Matches(p))
}
