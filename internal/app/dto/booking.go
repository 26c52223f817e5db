package dto

import (
	"time"

	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

type BookingPropertySnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	City     string `json:"city"`
	ImageURL string `json:"image_url,omitempty"`
	OwnerID  string `json:"owner_id"`
}

type Booking struct {
	ID           string                  `json:"id"`
	PropertyID   string                  `json:"property_id"`
	Property     BookingPropertySnapshot `json:"property"`
	RenterID     string                  `json:"renter_id"`
	StartDate    string                  `json:"start_date"`
	EndDate      string                  `json:"end_date"`
	DurationDays int                     `json:"duration_days"`
	Status       StatusPresentation      `json:"status"`
	Message      string                  `json:"message,omitempty"`
	Total        MoneyDTO                `json:"total"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
	Total int       `json:"total"`
}

// BookingCheck answers a validation request without creating anything.
type BookingCheck struct {
	Accepted     bool     `json:"accepted"`
	Reason       string   `json:"reason,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	BillingUnits int      `json:"billing_units,omitempty"`
	Total        MoneyDTO `json:"total"`
}

type BookingActionResult struct {
	BookingID string             `json:"booking_id"`
	Status    StatusPresentation `json:"status"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Display: value.String()}
}

func MapBooking(b *domainbooking.Booking, p *domainproperty.Property) Booking {
	snapshot := BookingPropertySnapshot{ID: string(b.PropertyID)}
	if p != nil {
		snapshot.Title = p.Title
		snapshot.City = p.Address.City
		snapshot.ImageURL = p.ImageURL
		snapshot.OwnerID = string(p.OwnerID)
	}
	return Booking{
		ID:           string(b.ID),
		PropertyID:   string(b.PropertyID),
		Property:     snapshot,
		RenterID:     string(b.RenterID),
		StartDate:    b.Range.Start.Format(daterange.ISODate),
		EndDate:      b.Range.End.Format(daterange.ISODate),
		DurationDays: b.Range.DurationDays(),
		Status:       PresentStatus(b.Status),
		Message:      b.Message,
		Total:        MapMoney(b.Total),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func MapBookings(bookings []*domainbooking.Booking, props map[domainproperty.ID]*domainproperty.Property) BookingCollection {
	items := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, MapBooking(b, props[b.PropertyID]))
	}
	return BookingCollection{Items: items, Total: len(items)}
}

func MapBookingAction(b *domainbooking.Booking) BookingActionResult {
	return BookingActionResult{BookingID: string(b.ID), Status: PresentStatus(b.Status)}
}
