package middleware

import (
	"context"
	"errors"
	"slices"

	"rentora/internal/app/bus"
	"rentora/internal/domain/auth"
	"rentora/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("middleware: authentication required")
	ErrForbidden       = errors.New("middleware: role not permitted")
)

// Secured messages name the acting user and the roles allowed to send them.
// An empty role list admits any authenticated actor.
type Secured interface {
	Principal() auth.Actor
	AllowedRoles() []user.Role
}

type Authorizer interface {
	Authorize(ctx context.Context, msg bus.Message) error
}

// RoleAuthorizer checks Secured messages; others pass through.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, msg bus.Message) error {
	secured, ok := msg.(Secured)
	if !ok {
		return nil
	}
	actor := secured.Principal()
	if actor.IsZero() {
		return ErrUnauthenticated
	}
	allowed := secured.AllowedRoles()
	if len(allowed) > 0 && !slices.Contains(allowed, actor.Role) {
		return ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) bus.Middleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next bus.Bus) bus.Bus {
		return bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
			if err := a.Authorize(ctx, msg); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, msg)
		})
	}
}
