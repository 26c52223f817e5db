package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentora/internal/domain/shared/events"
	"rentora/internal/domain/shared/money"
	"rentora/internal/domain/user"
)

var (
	ErrIDRequired      = errors.New("property: id is required")
	ErrOwnerRequired   = errors.New("property: owner is required")
	ErrTitleRequired   = errors.New("property: title is required")
	ErrRentInvalid     = errors.New("property: monthly rent must be positive")
	ErrRoomsInvalid    = errors.New("property: bedrooms and bathrooms must be positive")
	ErrAreaInvalid     = errors.New("property: square feet must not be negative")
	ErrNotFound        = errors.New("property: not found")
	ErrNotOwned        = errors.New("property: not owned by user")
	ErrHasActiveStays  = errors.New("property: has pending or approved bookings")
	ErrAddressRequired = errors.New("property: city is required")
)

type ID string

type Address struct {
	Line  string
	City  string
	State string
}

// Property is a rentable unit owned by one user.
type Property struct {
	ID           ID
	OwnerID      user.ID
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Rent         money.Money
	Bedrooms     int
	Bathrooms    int
	SquareFeet   int
	ImageURL     string
	// IsAvailable is the owner's listing toggle; it is independent of booking occupancy.
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id ID) error
	Search(ctx context.Context, params SearchParams) ([]*Property, error)
	Count(ctx context.Context) (int, error)
}

type Details struct {
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Rent         money.Money
	Bedrooms     int
	Bathrooms    int
	SquareFeet   int
	ImageURL     string
}

type CreateParams struct {
	ID          ID
	OwnerID     user.ID
	Details     Details
	IsAvailable bool
	Now         time.Time
}

func NewProperty(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	details, err := normalizeDetails(params.Details)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	p := &Property{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		IsAvailable: params.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.apply(details)
	p.Record(PropertyCreated{PropertyID: p.ID, OwnerID: p.OwnerID, At: now})
	return p, nil
}

// OwnedBy reports whether id is the property's owner.
func (p *Property) OwnedBy(id user.ID) bool {
	return p != nil && id != "" && p.OwnerID == id
}

func (p *Property) Update(details Details, now time.Time) error {
	normalized, err := normalizeDetails(details)
	if err != nil {
		return err
	}
	p.apply(normalized)
	p.UpdatedAt = now.UTC()
	p.Record(PropertyUpdated{PropertyID: p.ID, At: p.UpdatedAt})
	return nil
}

// SetAvailability toggles whether the property accepts new booking requests.
func (p *Property) SetAvailability(available bool, now time.Time) {
	if p.IsAvailable == available {
		return
	}
	p.IsAvailable = available
	p.UpdatedAt = now.UTC()
	p.Record(PropertyAvailabilityChanged{PropertyID: p.ID, Available: available, At: p.UpdatedAt})
}

func (p *Property) AttachImage(url string, now time.Time) {
	p.ImageURL = strings.TrimSpace(url)
	p.UpdatedAt = now.UTC()
	p.Record(PropertyUpdated{PropertyID: p.ID, At: p.UpdatedAt})
}

func (p *Property) apply(d Details) {
	p.Title = d.Title
	p.Description = d.Description
	p.PropertyType = d.PropertyType
	p.Address = d.Address
	p.Rent = d.Rent
	p.Bedrooms = d.Bedrooms
	p.Bathrooms = d.Bathrooms
	p.SquareFeet = d.SquareFeet
	p.ImageURL = d.ImageURL
}

func normalizeDetails(d Details) (Details, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return Details{}, ErrTitleRequired
	}
	if !d.Rent.IsPositive() {
		return Details{}, ErrRentInvalid
	}
	if d.Bedrooms <= 0 || d.Bathrooms <= 0 {
		return Details{}, ErrRoomsInvalid
	}
	if d.SquareFeet < 0 {
		return Details{}, ErrAreaInvalid
	}
	d.Address = Address{
		Line:  strings.TrimSpace(d.Address.Line),
		City:  strings.TrimSpace(d.Address.City),
		State: strings.TrimSpace(d.Address.State),
	}
	if d.Address.City == "" {
		return Details{}, ErrAddressRequired
	}
	d.Description = strings.TrimSpace(d.Description)
	d.PropertyType = strings.ToLower(strings.TrimSpace(d.PropertyType))
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	return d, nil
}

// Retire records the property's deletion. It is refused while activeStays bookings
// are still pending or approved.
func (p *Property) Retire(by user.ID, activeStays int, now time.Time) error {
	if activeStays > 0 {
		return ErrHasActiveStays
	}
	p.Record(PropertyDeleted{PropertyID: p.ID, By: by, At: now.UTC()})
	return nil
}
