package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentora/internal/domain/auth"
	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
)

var (
	today  = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	owner  = auth.Actor{UserID: "owner-1", Role: user.RoleOwner}
	renter = auth.Actor{UserID: "renter-1", Role: user.RoleRenter}
)

func newProperty(t *testing.T) *property.Property {
	t.Helper()
	p, err := property.NewProperty(property.CreateParams{
		ID:      "prop-1",
		OwnerID: owner.UserID,
		Details: property.Details{
			Title:     "Sea-facing 1BHK",
			Address:   property.Address{City: "Mumbai"},
			Rent:      money.Must(2500000, "INR"),
			Bedrooms:  1,
			Bathrooms: 1,
		},
		IsAvailable: true,
		Now:         today,
	})
	require.NoError(t, err)
	return p
}

// nightly validator lets conflict tests use short ranges.
func nightly() Validator {
	return NewValidator(Policy{MinimumStayDays: 1}, clock.Fixed(today))
}

func newBooking(t *testing.T, id ID, renterID user.ID, p *property.Property, start, end string) *Booking {
	t.Helper()
	acc, err := nightly().Validate(p, daterange.MustParse(start, end), nil)
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{ID: id, RenterID: renterID, Acceptance: acc, Now: today})
	require.NoError(t, err)
	return b
}

func approved(t *testing.T, id ID, p *property.Property, start, end string) *Booking {
	t.Helper()
	b := newBooking(t, id, "renter-9", p, start, end)
	require.NoError(t, b.Approve(owner, p, BuildIndex(nil), today))
	return b
}
