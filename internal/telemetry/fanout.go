package telemetry

import (
	"context"
	"errors"
)

// Fanout delivers each event to every backend. Emit returns the joined
// errors; a failing backend does not block the others.
type Fanout []EventEmitter

// NewFanout returns an emitter over the non-nil backends. Returns nil when
// none are configured, which EmitAsync treats as disabled.
func NewFanout(emitters ...EventEmitter) EventEmitter {
	var live Fanout
	for _, e := range emitters {
		if e != nil {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return nil
	}
	if len(live) == 1 {
		return live[0]
	}
	return live
}

func (f Fanout) Emit(ctx context.Context, event *AuthEvent) error {
	var errs []error
	for _, e := range f {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
