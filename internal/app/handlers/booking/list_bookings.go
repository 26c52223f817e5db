package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	"rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/user"
)

const (
	GetBookingKey         = "booking.get"
	ListRenterBookingsKey = "booking.list_renter"
	ListOwnerBookingsKey  = "booking.list_owner"
	ListAllBookingsKey    = "booking.list_all"
)

type GetBookingQuery struct {
	Actor     auth.Actor
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string               { return GetBookingKey }
func (q GetBookingQuery) Principal() auth.Actor     { return q.Actor }
func (q GetBookingQuery) AllowedRoles() []user.Role { return nil }

type ListRenterBookingsQuery struct {
	Actor  auth.Actor
	Status string `validate:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED COMPLETED pending approved rejected cancelled completed"`
}

func (q ListRenterBookingsQuery) Key() string               { return ListRenterBookingsKey }
func (q ListRenterBookingsQuery) Principal() auth.Actor     { return q.Actor }
func (q ListRenterBookingsQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleRenter} }

// ListOwnerBookingsQuery lists bookings across the owner's properties, optionally one property.
type ListOwnerBookingsQuery struct {
	Actor      auth.Actor
	PropertyID string
	Status     string `validate:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED COMPLETED pending approved rejected cancelled completed"`
}

func (q ListOwnerBookingsQuery) Key() string               { return ListOwnerBookingsKey }
func (q ListOwnerBookingsQuery) Principal() auth.Actor     { return q.Actor }
func (q ListOwnerBookingsQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleOwner} }

type ListAllBookingsQuery struct {
	Actor  auth.Actor
	Status string `validate:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED COMPLETED pending approved rejected cancelled completed"`
}

func (q ListAllBookingsQuery) Key() string               { return ListAllBookingsKey }
func (q ListAllBookingsQuery) Principal() auth.Actor     { return q.Actor }
func (q ListAllBookingsQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) Get(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.ID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	prop, err := lookupProperty(execCtx, unit, b.PropertyID)
	if err != nil {
		return dto.Booking{}, err
	}
	if !visible(q.Actor, b, prop) {
		return dto.Booking{}, handlersupport.ErrNotVisible
	}
	return dto.MapBooking(b, prop), nil
}

func (h *QueryHandler) ListRenter(ctx context.Context, q ListRenterBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByRenter(execCtx, q.Actor.UserID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return h.collect(execCtx, unit, bookings, q.Status, nil)
}

func (h *QueryHandler) ListOwner(ctx context.Context, q ListOwnerBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	props, err := ownerProperties(execCtx, unit, q.Actor.UserID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	ids := make([]domainproperty.ID, 0, len(props))
	for id := range props {
		if q.PropertyID == "" || string(id) == q.PropertyID {
			ids = append(ids, id)
		}
	}
	if q.PropertyID != "" && len(ids) == 0 {
		return dto.BookingCollection{}, domainproperty.ErrNotOwned
	}
	bookings, err := unit.Bookings().ListByProperties(execCtx, ids)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	out, err := h.collect(execCtx, unit, bookings, q.Status, props)
	if err == nil && h.Logger != nil {
		h.Logger.DebugContext(ctx, "owner bookings listed", "owner_id", q.Actor.UserID, "count", out.Total, "status", q.Status)
	}
	return out, err
}

func (h *QueryHandler) ListAll(ctx context.Context, q ListAllBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().List(execCtx)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return h.collect(execCtx, unit, bookings, q.Status, nil)
}

// collect filters, sorts newest first and attaches property snapshots.
func (h *QueryHandler) collect(ctx context.Context, unit uow.UnitOfWork, bookings []*domainbooking.Booking, status string, props map[domainproperty.ID]*domainproperty.Property) (dto.BookingCollection, error) {
	if status != "" {
		s, err := domainbooking.ParseStatus(status)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		bookings = domainbooking.WithStatus(bookings, s)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	if props == nil {
		props = make(map[domainproperty.ID]*domainproperty.Property)
	}
	for _, b := range bookings {
		if _, ok := props[b.PropertyID]; ok {
			continue
		}
		p, err := lookupProperty(ctx, unit, b.PropertyID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		props[b.PropertyID] = p
	}
	return dto.MapBookings(bookings, props), nil
}

// ownerProperties returns every property of ownerID keyed by id.
func ownerProperties(ctx context.Context, unit uow.UnitOfWork, ownerID user.ID) (map[domainproperty.ID]*domainproperty.Property, error) {
	props, err := handlersupport.CollectProperties(ctx, unit, ownerID)
	if err != nil {
		return nil, err
	}
	out := make(map[domainproperty.ID]*domainproperty.Property, len(props))
	for _, p := range props {
		out[p.ID] = p
	}
	return out, nil
}

// lookupProperty tolerates deleted properties; bookings outlive them.
func lookupProperty(ctx context.Context, unit uow.UnitOfWork, id domainproperty.ID) (*domainproperty.Property, error) {
	p, err := unit.Properties().ByID(ctx, id)
	if errors.Is(err, domainproperty.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func visible(actor auth.Actor, b *domainbooking.Booking, p *domainproperty.Property) bool {
	switch actor.Role {
	case user.RoleAdmin, user.RoleSystem:
		return true
	case user.RoleRenter:
		return b.RenterID == actor.UserID
	case user.RoleOwner:
		return p.OwnedBy(actor.UserID)
	}
	return false
}

// Register wires the booking queries into reg.
func (h *QueryHandler) Register(reg *bus.Registry) {
	bus.Register[GetBookingQuery, dto.Booking](reg, GetBookingKey, bus.HandlerFunc[GetBookingQuery, dto.Booking](h.Get))
	bus.Register[ListRenterBookingsQuery, dto.BookingCollection](reg, ListRenterBookingsKey, bus.HandlerFunc[ListRenterBookingsQuery, dto.BookingCollection](h.ListRenter))
	bus.Register[ListOwnerBookingsQuery, dto.BookingCollection](reg, ListOwnerBookingsKey, bus.HandlerFunc[ListOwnerBookingsQuery, dto.BookingCollection](h.ListOwner))
	bus.Register[ListAllBookingsQuery, dto.BookingCollection](reg, ListAllBookingsKey, bus.HandlerFunc[ListAllBookingsQuery, dto.BookingCollection](h.ListAll))
}
