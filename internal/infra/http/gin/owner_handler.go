package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	bookingapp "rentora/internal/app/handlers/booking"
	propertyapp "rentora/internal/app/handlers/properties"
	statsapp "rentora/internal/app/handlers/stats"
	"rentora/internal/domain/user"
)

type OwnerHTTP interface {
	Properties(c *gin.Context)
	Bookings(c *gin.Context)
	Dashboard(c *gin.Context)
}

type OwnerHandler struct {
	Queries bus.Bus
	Logger  *slog.Logger
}

// Properties lists the caller's own properties, available or not.
func (h OwnerHandler) Properties(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if !actor.Is(user.RoleOwner) {
		writeError(c, h.Logger, errOwnerOnly)
		return
	}
	query := searchQueryFromRequest(c)
	query.OwnerID = string(actor.UserID)
	result, err := bus.Dispatch[propertyapp.SearchPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) Bookings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.ListOwnerBookingsQuery{
		Actor:      actor,
		PropertyID: strings.TrimSpace(c.Query("property_id")),
		Status:     strings.TrimSpace(c.Query("status")),
	}
	result, err := bus.Dispatch[bookingapp.ListOwnerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) Dashboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := bus.Dispatch[statsapp.OwnerDashboardQuery, dto.OwnerDashboard](c.Request.Context(), h.Queries, statsapp.OwnerDashboardQuery{Actor: actor})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ OwnerHTTP = OwnerHandler{}
