package stats

import (
	"context"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	"rentora/internal/domain/auth"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/revenue"
	"rentora/internal/domain/user"
)

const (
	PropertyStatsKey  = "stats.property"
	OwnerDashboardKey = "stats.owner_dashboard"
	PlatformStatsKey  = "stats.platform"
)

type PropertyStatsQuery struct {
	Actor      auth.Actor
	PropertyID string `validate:"required"`
}

func (q PropertyStatsQuery) Key() string           { return PropertyStatsKey }
func (q PropertyStatsQuery) Principal() auth.Actor { return q.Actor }
func (q PropertyStatsQuery) AllowedRoles() []user.Role {
	return []user.Role{user.RoleOwner, user.RoleAdmin}
}

type OwnerDashboardQuery struct {
	Actor auth.Actor
}

func (q OwnerDashboardQuery) Key() string               { return OwnerDashboardKey }
func (q OwnerDashboardQuery) Principal() auth.Actor     { return q.Actor }
func (q OwnerDashboardQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleOwner} }

type PlatformStatsQuery struct {
	Actor auth.Actor
}

func (q PlatformStatsQuery) Key() string               { return PlatformStatsKey }
func (q PlatformStatsQuery) Principal() auth.Actor     { return q.Actor }
func (q PlatformStatsQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

// QueryHandler computes aggregates on demand from the stores. An empty Currency
// adopts the currency of the first billable booking.
type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
}

func (h *QueryHandler) Property(ctx context.Context, q PropertyStatsQuery) (dto.PropertyStats, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	p, err := unit.Properties().ByID(execCtx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.PropertyStats{}, err
	}
	if !q.Actor.Is(user.RoleAdmin) && !p.OwnedBy(q.Actor.UserID) {
		return dto.PropertyStats{}, domainproperty.ErrNotOwned
	}
	snapshot, err := unit.Bookings().Snapshot(execCtx, p.ID)
	if err != nil {
		return dto.PropertyStats{}, err
	}
	result, err := revenue.ForProperty(p, snapshot.Bookings)
	if err != nil {
		return dto.PropertyStats{}, err
	}
	return dto.MapPropertyStats(result), nil
}

func (h *QueryHandler) OwnerDashboard(ctx context.Context, q OwnerDashboardQuery) (dto.OwnerDashboard, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	props, err := handlersupport.CollectProperties(execCtx, unit, q.Actor.UserID)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	ids := make([]domainproperty.ID, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	bookings, err := unit.Bookings().ListByProperties(execCtx, ids)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	dash, err := revenue.ForOwner(props, bookings, h.Currency)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	return dto.MapOwnerDashboard(dash), nil
}

func (h *QueryHandler) Platform(ctx context.Context, q PlatformStatsQuery) (dto.PlatformStats, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PlatformStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	users, err := unit.Users().Count(execCtx)
	if err != nil {
		return dto.PlatformStats{}, err
	}
	props, err := handlersupport.CollectProperties(execCtx, unit, "")
	if err != nil {
		return dto.PlatformStats{}, err
	}
	bookings, err := unit.Bookings().List(execCtx)
	if err != nil {
		return dto.PlatformStats{}, err
	}
	result, err := revenue.ForPlatform(users, props, bookings, h.Currency)
	if err != nil {
		return dto.PlatformStats{}, err
	}
	return dto.MapPlatformStats(result), nil
}

// Register wires the stats queries into reg.
func (h *QueryHandler) Register(reg *bus.Registry) {
	bus.Register[PropertyStatsQuery, dto.PropertyStats](reg, PropertyStatsKey, bus.HandlerFunc[PropertyStatsQuery, dto.PropertyStats](h.Property))
	bus.Register[OwnerDashboardQuery, dto.OwnerDashboard](reg, OwnerDashboardKey, bus.HandlerFunc[OwnerDashboardQuery, dto.OwnerDashboard](h.OwnerDashboard))
	bus.Register[PlatformStatsQuery, dto.PlatformStats](reg, PlatformStatsKey, bus.HandlerFunc[PlatformStatsQuery, dto.PlatformStats](h.Platform))
}
