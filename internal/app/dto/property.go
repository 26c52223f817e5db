package dto

import (
	"time"

	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
)

type Address struct {
	Line  string `json:"line,omitempty"`
	City  string `json:"city"`
	State string `json:"state,omitempty"`
}

type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	Address      Address   `json:"address"`
	MonthlyRent  MoneyDTO  `json:"monthly_rent"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	SquareFeet   int       `json:"square_feet,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PropertyCollection struct {
	Items  []Property `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type DateSpan struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Calendar lists the spans held by confirmed bookings.
type Calendar struct {
	PropertyID string     `json:"property_id"`
	Occupied   []DateSpan `json:"occupied"`
}

func MapProperty(p *domainproperty.Property) Property {
	return Property{
		ID:           string(p.ID),
		OwnerID:      string(p.OwnerID),
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		Address:      Address{Line: p.Address.Line, City: p.Address.City, State: p.Address.State},
		MonthlyRent:  MapMoney(p.Rent),
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		SquareFeet:   p.SquareFeet,
		ImageURL:     p.ImageURL,
		IsAvailable:  p.IsAvailable,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func MapProperties(props []*domainproperty.Property, params domainproperty.SearchParams) PropertyCollection {
	items := make([]Property, 0, len(props))
	for _, p := range props {
		items = append(items, MapProperty(p))
	}
	return PropertyCollection{Items: items, Total: len(items), Limit: params.Limit, Offset: params.Offset}
}

func MapCalendar(propertyID domainproperty.ID, ranges []daterange.DateRange) Calendar {
	spans := make([]DateSpan, 0, len(ranges))
	for _, r := range ranges {
		spans = append(spans, DateSpan{StartDate: r.Start.Format(daterange.ISODate), EndDate: r.End.Format(daterange.ISODate)})
	}
	return Calendar{PropertyID: string(propertyID), Occupied: spans}
}
