package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	availabilityapp "rentora/internal/app/handlers/availability"
)

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Check(c *gin.Context)
}

type AvailabilityHandler struct {
	Queries bus.Bus
	Logger  *slog.Logger
}

// Calendar lists the ranges held by approved bookings.
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{PropertyID: strings.TrimSpace(c.Param("id"))}
	result, err := bus.Dispatch[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Check answers 200 whether or not the dates are bookable; the verdict is in the body.
func (h AvailabilityHandler) Check(c *gin.Context) {
	query := availabilityapp.CheckBookingQuery{
		PropertyID: strings.TrimSpace(c.Param("id")),
		StartDate:  strings.TrimSpace(c.Query("start_date")),
		EndDate:    strings.TrimSpace(c.Query("end_date")),
	}
	result, err := bus.Dispatch[availabilityapp.CheckBookingQuery, dto.BookingCheck](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
