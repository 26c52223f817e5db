package properties

import (
	"context"
	"strings"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/user"
)

const (
	GetPropertyKey      = "property.get"
	SearchPropertiesKey = "property.search"
)

type GetPropertyQuery struct {
	PropertyID string `validate:"required"`
}

func (q GetPropertyQuery) Key() string { return GetPropertyKey }

// SearchPropertiesQuery filters the catalogue. Rent bounds are in whole currency units.
type SearchPropertiesQuery struct {
	City          string `validate:"max=100"`
	MinRent       int64  `validate:"gte=0"`
	MaxRent       int64  `validate:"gte=0"`
	OnlyAvailable bool
	OwnerID       string
	Limit         int `validate:"gte=0,lte=200"`
	Offset        int `validate:"gte=0"`
}

func (q SearchPropertiesQuery) Key() string { return SearchPropertiesKey }

func (q SearchPropertiesQuery) params() domainproperty.SearchParams {
	return domainproperty.SearchParams{
		OwnerID:       user.ID(strings.TrimSpace(q.OwnerID)),
		City:          q.City,
		MinRentAmount: q.MinRent * 100,
		MaxRentAmount: q.MaxRent * 100,
		OnlyAvailable: q.OnlyAvailable,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}.Normalized()
}

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Get(ctx context.Context, q GetPropertyQuery) (dto.Property, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	p, err := unit.Properties().ByID(execCtx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.Property{}, err
	}
	return dto.MapProperty(p), nil
}

func (h *QueryHandler) Search(ctx context.Context, q SearchPropertiesQuery) (dto.PropertyCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	params := q.params()
	props, err := unit.Properties().Search(execCtx, params)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	return dto.MapProperties(props, params), nil
}

// Register wires the property queries into reg.
func (h *QueryHandler) Register(reg *bus.Registry) {
	bus.Register[GetPropertyQuery, dto.Property](reg, GetPropertyKey, bus.HandlerFunc[GetPropertyQuery, dto.Property](h.Get))
	bus.Register[SearchPropertiesQuery, dto.PropertyCollection](reg, SearchPropertiesKey, bus.HandlerFunc[SearchPropertiesQuery, dto.PropertyCollection](h.Search))
}
