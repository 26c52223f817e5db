package middleware

import (
	"context"

	"rentora/internal/app/bus"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) bus.Middleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next bus.Bus) bus.Bus {
		return bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
			if err := v.Validate(ctx, msg); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, msg)
		})
	}
}
