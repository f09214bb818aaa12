package job

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Detacher runs best-effort work that must outlive the request that
// started it. Failures and panics are logged, never returned.
type Detacher struct {
	logger  *zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDetacher bounds every detached function by timeout; zero means no bound.
func NewDetacher(logger *zerolog.Logger, timeout time.Duration) *Detacher {
	return &Detacher{logger: logger, timeout: timeout}
}

// Detach starts fn on its own goroutine. fn sees ctx's values but not its
// cancellation, so it keeps running after the response is written.
func (d *Detacher) Detach(ctx context.Context, name string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	if txn := newrelic.FromContext(ctx); txn != nil {
		ctx = newrelic.NewContext(ctx, txn.NewGoroutine())
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		log := d.loggerFor(ctx).With().Str("task", name).Logger()
		start := time.Now()

		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		err := run(ctx, fn)
		if err == nil {
			log.Debug().Dur("duration", time.Since(start)).Msg("detached task completed")
			return
		}

		log.Error().
			Stack().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("detached task failed")

		if txn := newrelic.FromContext(ctx); txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
		}
	}()
}

// loggerFor prefers the request logger carried by ctx.
func (d *Detacher) loggerFor(ctx context.Context) *zerolog.Logger {
	if log := zerolog.Ctx(ctx); log.GetLevel() != zerolog.Disabled {
		return log
	}
	return d.logger
}

func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Wait blocks until every detached function returned or ctx is done.
func (d *Detacher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for detached tasks: %w", ctx.Err())
	}
}
