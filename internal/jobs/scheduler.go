// Package jobs runs periodic background work such as marking finished
// bookings as completed.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is a job that can be registered with the Scheduler.
type Runner interface {
	Name() string
	Spec() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron specs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

// Info logs routine messages about cron's operation.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

// Error logs an error condition.
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// NewScheduler returns a Scheduler that logs through logger.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cron")
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl))),
		logger: logger,
	}
}

// Register schedules runner. Each run gets a context derived from ctx that is
// bounded by timeout when timeout is positive.
func (s *Scheduler) Register(ctx context.Context, runner Runner, timeout time.Duration) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(runner.Spec(), func() {
		runCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		started := time.Now()
		logger := s.logger.With("job", runner.Name())
		if err := runner.Run(runCtx); err != nil {
			logger.ErrorContext(runCtx, "job failed", "error", err, "duration", time.Since(started))
			return
		}
		logger.DebugContext(runCtx, "job finished", "duration", time.Since(started))
	})
	if err != nil {
		return 0, fmt.Errorf("register job %s with spec %q: %w", runner.Name(), runner.Spec(), err)
	}
	return id, nil
}

// Start starts the Scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown stops scheduling new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries reports the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
