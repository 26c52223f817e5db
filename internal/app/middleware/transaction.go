package middleware

import (
	"context"

	"rentora/internal/app/bus"
	"rentora/internal/app/uow"
)

// UnitScoped commands open their own units, e.g. to retry on a fresh snapshot.
type UnitScoped interface {
	ScopesOwnUnit()
}

type TxOptionsProvider func(msg bus.Message) uow.TxOptions

func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) bus.Middleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next bus.Bus) bus.Bus {
		return bus.Func(func(ctx context.Context, msg bus.Message) (any, error) {
			if _, ok := msg.(UnitScoped); ok {
				return next.Dispatch(ctx, msg)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(msg)
			}
			unit, execCtx, err := uow.Begin(ctx, factory, opts)
			if err != nil {
				return nil, err
			}
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, msg)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
