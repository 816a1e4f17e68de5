// Package migration applies the versioned database schema.
//
// Migrations are SQL files embedded from the sql/ directory and named
// {version}_{description}.sql (e.g. "001_initial_schema.sql"). Applied
// versions are tracked in the schema_migrations table so each file runs once,
// inside its own transaction.
//
// Example usage:
//
//	manager := migration.NewManager(db, logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
