package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	"rentora/internal/app/notifications"
)

type NotificationHTTP interface {
	List(c *gin.Context)
}

type NotificationHandler struct {
	Queries bus.Bus
	Logger  *slog.Logger
}

// List returns the caller's notifications, newest first.
func (h NotificationHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := notifications.ListNotificationsQuery{Actor: actor, Limit: parseInt(c.Query("limit"))}
	result, err := bus.Dispatch[notifications.ListNotificationsQuery, dto.NotificationList](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ NotificationHTTP = NotificationHandler{}
