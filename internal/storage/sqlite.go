/*
Package storage provides SQLite database migrations and write helpers.

Migrations only run on writable stores (db init, test fixtures). A study
database opened read-only is used exactly as found.
*/
package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStorage) runMigrations(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	// Create migrations table
	if err := s.createMigrationsTable(ctx); err != nil {
		return err
	}

	// Get current version
	version, err := s.getCurrentMigrationVersion(ctx)
	if err != nil {
		return err
	}

	// Run migrations in order
	migrations := []migration{
		{version: 1, name: "event_tables", up: s.migration001EventTables},
		{version: 2, name: "window_indexes", up: s.migration002WindowIndexes},
	}

	for _, m := range migrations {
		if version < m.version {
			if err := m.up(ctx); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(ctx, m.version, m.name); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func(ctx context.Context) error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStorage) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStorage) getCurrentMigrationVersion(ctx context.Context) (int, error) {
	query := "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	row := s.db.QueryRowContext(ctx, query)

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStorage) setMigrationVersion(ctx context.Context, version int, name string) error {
	query := "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
	_, err := s.db.ExecContext(ctx, query, version, name)
	return err
}

// migration001EventTables creates the codes and commands tables.
// Existing study databases already have them; IF NOT EXISTS leaves them alone.
func (s *SQLiteStorage) migration001EventTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS codes (
			participant TEXT NOT NULL,
			videotime TEXT NOT NULL,
			retrospective TEXT NOT NULL DEFAULT '',
			forks INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("failed to create codes table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS commands (
			participant TEXT NOT NULL,
			videotime TEXT NOT NULL,
			command TEXT NOT NULL,
			eclipsecommand TEXT
		)
	`); err != nil {
		return fmt.Errorf("failed to create commands table: %w", err)
	}

	return nil
}

// migration002WindowIndexes adds the indexes window queries filter on.
func (s *SQLiteStorage) migration002WindowIndexes(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_commands_command
		ON commands(command)
	`); err != nil {
		return fmt.Errorf("failed to create commands command index: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_commands_eclipsecommand
		ON commands(eclipsecommand)
	`); err != nil {
		return fmt.Errorf("failed to create commands eclipsecommand index: %w", err)
	}

	return nil
}

// InsertAnnotated appends a codes row. Only writable stores accept it.
func (s *SQLiteStorage) InsertAnnotated(ctx context.Context, e AnnotatedEvent) error {
	db, err := s.writable()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO codes (participant, videotime, retrospective, forks) VALUES (?, ?, ?, ?)",
		e.Participant, e.VideoTime, e.Retrospective, e.Forks,
	)
	if err != nil {
		return fmt.Errorf("failed to insert codes row: %w", err)
	}
	return nil
}

// InsertInteraction appends a commands row. An empty EclipseCommand is stored as NULL.
func (s *SQLiteStorage) InsertInteraction(ctx context.Context, e InteractionEvent) error {
	db, err := s.writable()
	if err != nil {
		return err
	}

	var eclipse sql.NullString
	if e.EclipseCommand != "" {
		eclipse = sql.NullString{String: e.EclipseCommand, Valid: true}
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO commands (participant, videotime, command, eclipsecommand) VALUES (?, ?, ?, ?)",
		e.Participant, e.VideoTime, e.Command, eclipse,
	)
	if err != nil {
		return fmt.Errorf("failed to insert commands row: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) writable() (*sql.DB, error) {
	if s.readOnly {
		return nil, fmt.Errorf("storage is read-only: %s", s.dbPath)
	}
	return s.handle()
}
