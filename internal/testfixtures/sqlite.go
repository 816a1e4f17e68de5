package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/meeting-scheduler/internal/persistence"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style tests.
type SQLiteHarness struct {
	Storage    *sqlite.Storage
	Organizers persistence.OrganizerRepository
	Settings   persistence.SettingsRepository
	Bookings   persistence.BookingRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "scheduler.db")

	storage, err := sqlite.Open(sqlite.DefaultOptions(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:    storage,
		Organizers: storage,
		Settings:   storage,
		Bookings:   storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedOrganizer stores the organizer, its settings and working hours.
func (h *SQLiteHarness) SeedOrganizer(tb testing.TB, fixture OrganizerFixture) {
	tb.Helper()

	ctx := context.Background()
	organizer, settings := fixture.Persistence()
	if err := h.Organizers.CreateOrganizer(ctx, organizer, settings); err != nil {
		tb.Fatalf("failed to seed organizer %s: %v", fixture.ID, err)
	}
	if err := h.Settings.ReplaceWorkingHours(ctx, fixture.ID, fixture.WorkingHours()); err != nil {
		tb.Fatalf("failed to seed working hours for %s: %v", fixture.ID, err)
	}
}

// SeedBooking stores a confirmed booking.
func (h *SQLiteHarness) SeedBooking(tb testing.TB, fixture BookingFixture) {
	tb.Helper()

	if err := h.Bookings.InsertBooking(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("failed to seed booking %s: %v", fixture.ID, err)
	}
}
