package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Manager applies pending migrations in version order.
type Manager struct {
	executor   *Executor
	logger     *slog.Logger
	migrations func() ([]Migration, error)
}

// NewManager creates a manager that applies the embedded migrations.
func NewManager(db *sqlx.DB, logger *slog.Logger) *Manager {
	return NewManagerWithSource(db, logger, Embedded)
}

// NewManagerWithSource creates a manager using a custom migration source.
func NewManagerWithSource(db *sqlx.DB, logger *slog.Logger, source func() ([]Migration, error)) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		executor:   NewExecutor(db),
		logger:     logger.With("component", "migration"),
		migrations: source,
	}
}

// Run executes all pending migrations. Each migration runs in its own transaction.
func (m *Manager) Run(ctx context.Context) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date", "version", status.CurrentVersion)
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for _, migration := range status.Pending {
		elapsed, err := m.executor.ExecuteMigration(ctx, migration)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				"version", migration.Version,
				"file", migration.FilePath,
				"error", err,
			)
			return err
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return nil
}

// Status reports the applied and pending migrations.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, err
	}

	available, err := m.migrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedSet := make(map[string]bool, len(applied))
	currentVersion := ""
	for _, a := range applied {
		appliedSet[a.Version] = true
		if versionNumber(a.Version) > versionNumber(currentVersion) {
			currentVersion = a.Version
		}
	}

	var pending []Migration
	for _, migration := range available {
		if !appliedSet[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return &Status{
		CurrentVersion: currentVersion,
		Applied:        applied,
		Pending:        pending,
	}, nil
}

// validateSequence rejects gaps in the available versions, applied versions
// that no longer have a file, and applied files whose content changed.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	if len(available) > 0 {
		first := versionNumber(available[0].Version)
		for i, migration := range available {
			if versionNumber(migration.Version) != first+i {
				return NewMigrationError(migration.Version, migration.FilePath, "validate sequence",
					fmt.Errorf("%w: missing migration version %03d", ErrVersionConflict, first+i))
			}
		}
	}

	byVersion := make(map[string]Migration, len(available))
	for _, migration := range available {
		byVersion[migration.Version] = migration
	}

	for _, a := range applied {
		migration, ok := byVersion[a.Version]
		if !ok {
			return NewMigrationError(a.Version, "", "validate sequence",
				fmt.Errorf("%w: applied migration %s has no file", ErrVersionConflict, a.Version))
		}
		if a.Checksum != "" && a.Checksum != migration.Checksum {
			return NewMigrationError(a.Version, migration.FilePath, "validate checksum",
				fmt.Errorf("%w: checksum changed since it was applied", ErrVersionConflict))
		}
	}
	return nil
}
