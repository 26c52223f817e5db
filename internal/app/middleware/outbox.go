package middleware

import (
	"context"

	"rentora/internal/app/bus"
	"rentora/internal/app/outbox"
)

// OutboxFlush wakes the relay once a command has committed.
func OutboxFlush(box outbox.Outbox) bus.Middleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next bus.Bus) bus.Bus {
		return bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
			res, err := next.Dispatch(ctx, msg)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
