package dto

import "rentora/internal/domain/revenue"

type PropertyStats struct {
	PropertyID    string   `json:"property_id"`
	TotalBookings int      `json:"total_bookings"`
	Approved      int      `json:"approved_bookings"`
	Pending       int      `json:"pending_bookings"`
	Revenue       MoneyDTO `json:"revenue"`
	UniqueGuests  int      `json:"unique_guests"`
	OccupancyRate float64  `json:"occupancy_rate"`
}

type OwnerDashboard struct {
	Properties    int             `json:"properties"`
	Available     int             `json:"available_properties"`
	TotalBookings int             `json:"total_bookings"`
	Pending       int             `json:"pending_bookings"`
	Approved      int             `json:"approved_bookings"`
	Revenue       MoneyDTO        `json:"revenue"`
	UniqueGuests  int             `json:"unique_guests"`
	PerProperty   []PropertyStats `json:"per_property"`
}

type PlatformStats struct {
	TotalUsers      int      `json:"total_users"`
	TotalProperties int      `json:"total_properties"`
	TotalBookings   int      `json:"total_bookings"`
	ActiveBookings  int      `json:"active_bookings"`
	Revenue         MoneyDTO `json:"revenue"`
}

func MapPropertyStats(s revenue.PropertyStats) PropertyStats {
	return PropertyStats{
		PropertyID:    string(s.PropertyID),
		TotalBookings: s.TotalBookings,
		Approved:      s.Approved,
		Pending:       s.Pending,
		Revenue:       MapMoney(s.Revenue),
		UniqueGuests:  s.UniqueGuests,
		OccupancyRate: s.OccupancyRate,
	}
}

func MapOwnerDashboard(d revenue.OwnerDashboard) OwnerDashboard {
	per := make([]PropertyStats, 0, len(d.PerProperty))
	for _, s := range d.PerProperty {
		per = append(per, MapPropertyStats(s))
	}
	return OwnerDashboard{
		Properties:    d.Properties,
		Available:     d.Available,
		TotalBookings: d.TotalBookings,
		Pending:       d.Pending,
		Approved:      d.Approved,
		Revenue:       MapMoney(d.Revenue),
		UniqueGuests:  d.UniqueGuests,
		PerProperty:   per,
	}
}

func MapPlatformStats(s revenue.PlatformStats) PlatformStats {
	return PlatformStats{
		TotalUsers:      s.TotalUsers,
		TotalProperties: s.TotalProperties,
		TotalBookings:   s.TotalBookings,
		ActiveBookings:  s.ActiveBookings,
		Revenue:         MapMoney(s.Revenue),
	}
}
