package ui

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
)

// Runner runs user actions in the background.
//
// Failures are shown with the prompter, except cancellations which are only
// logged.
type Runner struct {
	prompter Prompter
	l        *zap.Logger
	wg       sync.WaitGroup
}

// RunnerOption configures a runner
type RunnerOption func(*Runner)

// RunnerLogger sets the logger of a runner
func RunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.l = l
		}
	}
}

// NewRunner builds a runner reporting to a prompter
func NewRunner(prompter Prompter, opts ...RunnerOption) *Runner {
	r := &Runner{
		prompter: prompter,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Run an action on its own goroutine. done, if not nil, is called with the
// outcome once the action has completed. A cancelled action completes
// without error.
func (r *Runner) Run(ctx context.Context, title string, action func(context.Context) error, done func(error)) {
	r.wg.Add(1)
	task := ksuid.New().String()
	go func(start time.Time) {
		defer r.wg.Done()
		l := r.l.With(zap.String("task", task), zap.String("action", title))
		l.Debug("action started")

		err := action(ctx)
		switch {
		case err == nil:
			l.Info("action completed", zap.Duration("elapsed", time.Since(start)))
		case errors.Is(err, status.ErrCancelled):
			l.Info("action cancelled")
			err = nil
		default:
			l.Warn("action failed", zap.Error(err))
			r.prompter.ShowError(title, err)
		}
		if done != nil {
			done(err)
		}
	}(time.Now())
}

// Wait for all running actions to complete
func (r *Runner) Wait() {
	r.wg.Wait()
}
