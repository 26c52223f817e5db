package support

import (
	"context"

	"rentora/internal/app/outbox"
	"rentora/internal/app/uow"
	"rentora/internal/domain/shared/events"
)

// BeginReadOnlyUnit reuses the unit already in ctx or opens a read-only one.
// The returned cleanup is nil when the unit was borrowed.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// Recorder is any aggregate collecting domain events.
type Recorder interface {
	DrainEvents() []events.DomainEvent
}

// StageEvents moves pending events from aggregates into the unit's outbox.
func StageEvents(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, aggregates ...Recorder) error {
	for _, agg := range aggregates {
		if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, agg.DrainEvents()); err != nil {
			return err
		}
	}
	return nil
}
