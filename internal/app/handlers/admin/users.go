package admin

import (
	"context"
	"errors"
	"log/slog"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/uow"
	"rentora/internal/domain/auth"
	domainuser "rentora/internal/domain/user"
)

const (
	ListUsersKey  = "admin.list_users"
	DeleteUserKey = "admin.delete_user"
)

var ErrSelfDelete = errors.New("admin: cannot delete own account")

type ListUsersQuery struct {
	Actor auth.Actor
}

func (q ListUsersQuery) Key() string                     { return ListUsersKey }
func (q ListUsersQuery) Principal() auth.Actor           { return q.Actor }
func (q ListUsersQuery) AllowedRoles() []domainuser.Role { return []domainuser.Role{domainuser.RoleAdmin} }

type DeleteUserCommand struct {
	Actor  auth.Actor
	UserID string `validate:"required"`
}

func (c DeleteUserCommand) Key() string                     { return DeleteUserKey }
func (c DeleteUserCommand) Principal() auth.Actor           { return c.Actor }
func (c DeleteUserCommand) AllowedRoles() []domainuser.Role { return []domainuser.Role{domainuser.RoleAdmin} }

type ListUsersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUsersHandler) Handle(ctx context.Context, _ ListUsersQuery) (dto.UserList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UserList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	users, err := unit.Users().List(execCtx)
	if err != nil {
		return dto.UserList{}, err
	}
	return dto.MapUsers(users), nil
}

// DeleteUserHandler removes the account and every session it holds. Bookings and
// properties stay in place; bookings are never physically deleted.
type DeleteUserHandler struct {
	Sessions auth.SessionStore
	Logger   *slog.Logger
}

func (h *DeleteUserHandler) Handle(ctx context.Context, cmd DeleteUserCommand) (*dto.UserProfile, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	id := domainuser.ID(cmd.UserID)
	if id == cmd.Actor.UserID {
		return nil, ErrSelfDelete
	}
	target, err := unit.Users().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := unit.Users().Delete(ctx, id); err != nil {
		return nil, err
	}
	if h.Sessions != nil {
		if err := h.Sessions.DeleteByUser(ctx, id); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "user deleted", "user_id", id, "admin_id", cmd.Actor.UserID)
	}
	profile := dto.MapUserProfile(target)
	return &profile, nil
}

var (
	_ bus.Handler[ListUsersQuery, dto.UserList]        = (*ListUsersHandler)(nil)
	_ bus.Handler[DeleteUserCommand, *dto.UserProfile] = (*DeleteUserHandler)(nil)
)
