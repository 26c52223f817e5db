package notifications

import (
	"context"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	"rentora/internal/app/policies"
	"rentora/internal/domain/auth"
	"rentora/internal/domain/user"
)

const (
	ListNotificationsKey = "notifications.list"
	defaultListLimit     = 50
)

type ListNotificationsQuery struct {
	Actor auth.Actor
	Limit int `validate:"gte=0,lte=100"`
}

func (q ListNotificationsQuery) Key() string           { return ListNotificationsKey }
func (q ListNotificationsQuery) Principal() auth.Actor { return q.Actor }
func (q ListNotificationsQuery) AllowedRoles() []user.Role {
	return []user.Role{user.RoleRenter, user.RoleOwner, user.RoleAdmin}
}

// QueryHandler reads the caller's notification history. Without a feed the list is empty.
type QueryHandler struct {
	Feed policies.NotificationFeed
}

func (h *QueryHandler) Handle(ctx context.Context, q ListNotificationsQuery) (dto.NotificationList, error) {
	if h.Feed == nil {
		return dto.MapNotifications(nil), nil
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	items, err := h.Feed.Recent(ctx, string(q.Actor.UserID), limit)
	if err != nil {
		return dto.NotificationList{}, err
	}
	return dto.MapNotifications(items), nil
}

func (h *QueryHandler) Register(reg *bus.Registry) {
	bus.Register[ListNotificationsQuery, dto.NotificationList](reg, ListNotificationsKey, h)
}
