package revenue

import (
	"rentora/internal/domain/booking"
	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/money"
)

type PropertyStats struct {
	PropertyID    property.ID
	TotalBookings int
	Approved      int
	Pending       int
	Revenue       money.Money
	UniqueGuests  int
	OccupancyRate float64
}

// ForProperty computes the stats of one property from its bookings.
func ForProperty(p *property.Property, bookings []*booking.Booking) (PropertyStats, error) {
	own := booking.ByProperty(bookings, p.ID)
	rev, err := TotalRevenue(own, Properties{p.ID: p}, p.Rent.Currency)
	if err != nil {
		return PropertyStats{}, err
	}
	return PropertyStats{
		PropertyID:    p.ID,
		TotalBookings: len(own),
		Approved:      countStatus(own, func(s booking.Status) bool { return s == booking.StatusApproved }),
		Pending:       countStatus(own, func(s booking.Status) bool { return s == booking.StatusPending }),
		Revenue:       rev,
		UniqueGuests:  UniqueGuestCount(own),
		OccupancyRate: OccupancyRate(own),
	}, nil
}

type OwnerDashboard struct {
	Properties    int
	Available     int
	TotalBookings int
	Pending       int
	Approved      int
	Revenue       money.Money
	UniqueGuests  int
	PerProperty   []PropertyStats
}

// ForOwner aggregates the owner's properties and every booking made against them.
func ForOwner(props []*property.Property, bookings []*booking.Booking, currency string) (OwnerDashboard, error) {
	index := IndexProperties(props)
	own := make([]*booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil {
			if _, ok := index[b.PropertyID]; ok {
				own = append(own, b)
			}
		}
	}
	rev, err := TotalRevenue(own, index, currency)
	if err != nil {
		return OwnerDashboard{}, err
	}
	dash := OwnerDashboard{
		Properties:    len(index),
		TotalBookings: len(own),
		Pending:       countStatus(own, func(s booking.Status) bool { return s == booking.StatusPending }),
		Approved:      countStatus(own, func(s booking.Status) bool { return s == booking.StatusApproved }),
		Revenue:       rev,
		UniqueGuests:  UniqueGuestCount(own),
		PerProperty:   make([]PropertyStats, 0, len(props)),
	}
	for _, p := range props {
		if p == nil {
			continue
		}
		if p.IsAvailable {
			dash.Available++
		}
		stats, err := ForProperty(p, own)
		if err != nil {
			return OwnerDashboard{}, err
		}
		dash.PerProperty = append(dash.PerProperty, stats)
	}
	return dash, nil
}

type PlatformStats struct {
	TotalUsers      int
	TotalProperties int
	TotalBookings   int
	ActiveBookings  int
	Revenue         money.Money
}

// ForPlatform builds the admin overview. Active bookings are PENDING or APPROVED.
// Revenue only covers bookings whose property still exists.
func ForPlatform(users int, props []*property.Property, bookings []*booking.Booking, currency string) (PlatformStats, error) {
	index := IndexProperties(props)
	listed := make([]*booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil {
			if _, ok := index[b.PropertyID]; ok {
				listed = append(listed, b)
			}
		}
	}
	rev, err := TotalRevenue(listed, index, currency)
	if err != nil {
		return PlatformStats{}, err
	}
	return PlatformStats{
		TotalUsers:      users,
		TotalProperties: len(props),
		TotalBookings:   len(bookings),
		ActiveBookings:  countStatus(bookings, booking.Status.Occupying),
		Revenue:         rev,
	}, nil
}
