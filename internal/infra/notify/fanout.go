package notify

import (
	"context"
	"errors"

	"rentora/internal/app/policies"
)

// Fanout sends to every notifier and joins their errors.
type Fanout []policies.Notifier

func (f Fanout) Send(ctx context.Context, msg policies.Notification) error {
	var errs []error
	for _, n := range f {
		if err := n.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ policies.Notifier = Fanout(nil)
