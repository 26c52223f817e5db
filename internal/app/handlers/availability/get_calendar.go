package availability

import (
	"context"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
)

const GetCalendarKey = "property.calendar"

type GetCalendarQuery struct {
	PropertyID string `validate:"required"`
}

func (q GetCalendarQuery) Key() string { return GetCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle rebuilds the index from the current bookings; nothing is cached between calls.
func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.Calendar{}, err
	}
	snapshot, err := unit.Bookings().Snapshot(execCtx, prop.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	index := domainbooking.BuildIndex(snapshot.Bookings)
	return dto.MapCalendar(prop.ID, index.Ranges(string(prop.ID))), nil
}

var _ bus.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
