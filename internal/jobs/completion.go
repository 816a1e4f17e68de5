package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/meeting-scheduler/internal/metrics"
)

// DefaultCompletionSpec runs the completion sweep every quarter hour.
const DefaultCompletionSpec = "@every 15m"

// BookingCompleter marks confirmed bookings that ended before reference as
// completed and reports how many rows changed.
type BookingCompleter interface {
	CompleteBookingsEndedBefore(ctx context.Context, reference time.Time) (int64, error)
}

// CompletionSweep transitions finished bookings from confirmed to completed.
type CompletionSweep struct {
	store  BookingCompleter
	spec   string
	now    func() time.Time
	logger *slog.Logger
}

// NewCompletionSweep builds the sweep. An empty spec falls back to DefaultCompletionSpec.
func NewCompletionSweep(store BookingCompleter, spec string, now func() time.Time, logger *slog.Logger) *CompletionSweep {
	if spec == "" {
		spec = DefaultCompletionSpec
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionSweep{store: store, spec: spec, now: now, logger: logger}
}

// Name implements Runner.
func (c *CompletionSweep) Name() string { return "complete-bookings" }

// Spec implements Runner.
func (c *CompletionSweep) Spec() string { return c.spec }

// Run implements Runner.
func (c *CompletionSweep) Run(ctx context.Context) error {
	if c == nil || c.store == nil {
		return fmt.Errorf("completion sweep not configured")
	}
	n, err := c.store.CompleteBookingsEndedBefore(ctx, c.now().UTC())
	if err != nil {
		return fmt.Errorf("complete bookings: %w", err)
	}
	if n > 0 {
		metrics.CompletedBookings.Add(float64(n))
		c.logger.InfoContext(ctx, "bookings completed", "job", c.Name(), "count", n)
	}
	return nil
}
