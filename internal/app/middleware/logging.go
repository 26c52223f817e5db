package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentora/internal/app/bus"
)

// Logging records each dispatch with its duration. Failures are logged at warn level;
// the caller still decides how to surface them.
func Logging(logger *slog.Logger, kind string) bus.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next bus.Bus) bus.Bus {
		return bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, msg)
			attrs := []any{"kind", kind, "key", msg.Key(), "duration", time.Since(start)}
			if secured, ok := msg.(Secured); ok {
				actor := secured.Principal()
				attrs = append(attrs, "actor_id", actor.UserID, "actor_role", actor.Role)
			}
			if err != nil {
				logger.WarnContext(ctx, "dispatch failed", append(attrs, "err", err)...)
				return nil, err
			}
			logger.DebugContext(ctx, "dispatched", attrs...)
			return res, nil
		})
	}
}
