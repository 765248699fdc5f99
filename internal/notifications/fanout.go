package notifications

import (
	"context"

	"go.uber.org/multierr"
)

// Fanout delivers to every sink and joins their failures.
type Fanout []Sink

func (f Fanout) Deliver(ctx context.Context, event Event) error {
	var err error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Deliver(ctx, event))
	}
	return err
}
