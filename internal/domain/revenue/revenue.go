package revenue

import (
	"errors"
	"fmt"

	"rentora/internal/domain/booking"
	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
)

var ErrUnknownProperty = errors.New("revenue: booking references an unknown property")

// Properties indexes properties by id for aggregation.
type Properties map[property.ID]*property.Property

func IndexProperties(props []*property.Property) Properties {
	out := make(Properties, len(props))
	for _, p := range props {
		if p != nil {
			out[p.ID] = p
		}
	}
	return out
}

// TotalRevenue sums rent times billing units over APPROVED and COMPLETED bookings.
// An empty input yields zero in currency.
func TotalRevenue(bookings []*booking.Booking, properties Properties, currency string) (money.Money, error) {
	total := money.Zero(currency)
	for _, b := range bookings {
		if b == nil || !b.Status.Billable() {
			continue
		}
		p, ok := properties[b.PropertyID]
		if !ok {
			return money.Money{}, fmt.Errorf("%w: %s", ErrUnknownProperty, b.PropertyID)
		}
		amount := p.Rent.Multiply(int64(b.Range.BillingUnits(booking.BillingUnitDays)))
		if total.Currency == "" {
			total.Currency = amount.Currency
		}
		sum, err := total.Add(amount)
		if err != nil {
			return money.Money{}, fmt.Errorf("revenue: booking %s: %w", b.ID, err)
		}
		total = sum
	}
	return total, nil
}

// OccupancyRate is the share of approved bookings as a percentage; zero without bookings.
func OccupancyRate(bookings []*booking.Booking) float64 {
	var total, approved int
	for _, b := range bookings {
		if b == nil {
			continue
		}
		total++
		if b.Status == booking.StatusApproved {
			approved++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(approved) / float64(total) * 100
}

// UniqueGuestCount counts distinct renters among APPROVED bookings.
func UniqueGuestCount(bookings []*booking.Booking) int {
	seen := make(map[user.ID]struct{})
	for _, b := range bookings {
		if b != nil && b.Status == booking.StatusApproved {
			seen[b.RenterID] = struct{}{}
		}
	}
	return len(seen)
}

func countStatus(bookings []*booking.Booking, match func(booking.Status) bool) int {
	n := 0
	for _, b := range bookings {
		if b != nil && match(b.Status) {
			n++
		}
	}
	return n
}
