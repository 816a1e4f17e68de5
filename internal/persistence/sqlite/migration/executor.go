package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const appliedAtLayout = "2006-01-02T15:04:05Z07:00"

// Executor applies migrations and maintains the schema_migrations table.
type Executor struct {
	db *sqlx.DB
}

// NewExecutor creates an executor bound to db.
func NewExecutor(db *sqlx.DB) *Executor {
	return &Executor{db: db}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`

	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewMigrationError("", "", "create schema_migrations table", err)
	}
	return nil
}

// ExecuteMigration runs every statement of a migration and records it in one transaction.
func (e *Executor) ExecuteMigration(ctx context.Context, migration Migration) (time.Duration, error) {
	statements := splitStatements(migration.SQL)
	if len(statements) == 0 {
		return 0, NewMigrationError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := time.Now()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, NewMigrationError(migration.Version, migration.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return 0, NewMigrationError(migration.Version, migration.FilePath,
				fmt.Sprintf("execute statement %d", i+1), fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
	}

	elapsed := time.Since(started)
	insertSQL := tx.Rebind(`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, insertSQL,
		migration.Version,
		time.Now().UTC().Format(appliedAtLayout),
		migration.Checksum,
		elapsed.Milliseconds(),
	); err != nil {
		return 0, NewMigrationError(migration.Version, migration.FilePath, "record migration", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, NewMigrationError(migration.Version, migration.FilePath, "commit transaction", err)
	}
	return elapsed, nil
}

type appliedRow struct {
	Version         string `db:"version"`
	AppliedAt       string `db:"applied_at"`
	Checksum        string `db:"checksum"`
	ExecutionTimeMs int64  `db:"execution_time_ms"`
}

// AppliedMigrations returns the recorded migrations ordered by version.
func (e *Executor) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	var rows []appliedRow
	err := e.db.SelectContext(ctx, &rows,
		`SELECT version, applied_at, checksum, execution_time_ms FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, NewMigrationError("", "", "list applied migrations", err)
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		appliedAt, err := time.Parse(appliedAtLayout, row.AppliedAt)
		if err != nil {
			return nil, NewMigrationError(row.Version, "", "parse applied_at", err)
		}
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     appliedAt,
			ExecutionTime: time.Duration(row.ExecutionTimeMs) * time.Millisecond,
			Checksum:      row.Checksum,
		})
	}
	return applied, nil
}
