package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	adminapp "rentora/internal/app/handlers/admin"
	bookingapp "rentora/internal/app/handlers/booking"
	propertyapp "rentora/internal/app/handlers/properties"
	statsapp "rentora/internal/app/handlers/stats"
	"rentora/internal/domain/user"
)

type AdminHTTP interface {
	ListUsers(c *gin.Context)
	DeleteUser(c *gin.Context)
	ListProperties(c *gin.Context)
	ListBookings(c *gin.Context)
	Stats(c *gin.Context)
}

type AdminHandler struct {
	Commands bus.Bus
	Queries  bus.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := bus.Dispatch[adminapp.ListUsersQuery, dto.UserList](c.Request.Context(), h.Queries, adminapp.ListUsersQuery{Actor: actor})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteUser removes the account and its sessions. Bookings and properties stay.
func (h AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := adminapp.DeleteUserCommand{Actor: actor, UserID: strings.TrimSpace(c.Param("id"))}
	if _, err := bus.Dispatch[adminapp.DeleteUserCommand, *dto.UserProfile](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProperties includes unavailable properties; the public catalogue filter is opt-in.
func (h AdminHandler) ListProperties(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if !actor.Is(user.RoleAdmin) {
		writeError(c, h.Logger, errAdminOnly)
		return
	}
	query := searchQueryFromRequest(c)
	result, err := bus.Dispatch[propertyapp.SearchPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListBookings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.ListAllBookingsQuery{Actor: actor, Status: strings.TrimSpace(c.Query("status"))}
	result, err := bus.Dispatch[bookingapp.ListAllBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Stats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := bus.Dispatch[statsapp.PlatformStatsQuery, dto.PlatformStats](c.Request.Context(), h.Queries, statsapp.PlatformStatsQuery{Actor: actor})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
