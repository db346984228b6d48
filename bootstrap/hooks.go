package bootstrap

import (
	"context"
	"errors"
	"fmt"
)

// Hook is a shutdown callback.
type Hook func(ctx context.Context) error

// OnStop registers hooks that run during graceful shutdown, before any
// component is stopped. Engine clients are released here.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks runs every hook and joins their errors.
func runHooks(ctx context.Context, hooks []Hook) error {
	var errs []error
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
