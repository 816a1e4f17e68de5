package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/meeting-scheduler/internal/persistence/sqlite/migration"
)

// Storage bundles the SQL-backed repositories over a single connection pool.
// The same implementation serves SQLite and PostgreSQL; queries are written
// with ? placeholders and rebound for the active driver.
type Storage struct {
	*OrganizerRepository
	*SettingsRepository
	*BookingRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to the database described by opts.
func Open(opts Options) (*Storage, error) {
	return OpenWithLogger(opts, nil)
}

// OpenWithLogger connects to the database and uses logger for migration output.
func OpenWithLogger(opts Options, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(opts)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Storage{
		OrganizerRepository: NewOrganizerRepository(pool),
		SettingsRepository:  NewSettingsRepository(pool),
		BookingRepository:   NewBookingRepository(pool),
		pool:                pool,
		logger:              logger,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if err := migration.NewManager(s.pool.DB(), s.logger).Run(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
