package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Criteria catalog and projects",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS criteria (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE,
					description TEXT NOT NULL,
					weight INTEGER NOT NULL CHECK (weight BETWEEN 1 AND 10),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS projects (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					sector TEXT NOT NULL DEFAULT '',
					budget REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'PENDING',
					esg_score INTEGER CHECK (esg_score IS NULL OR esg_score BETWEEN 0 AND 100),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_projects_status ON projects(status)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Evaluations and ratings",
		Up: func(tx *sql.Tx) error {
			// ratings.criterion_id has no foreign key: criteria may be removed
			// while historical ratings still point at them.
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS evaluations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					decision TEXT NOT NULL,
					observations TEXT NOT NULL,
					score REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_evaluations_project ON evaluations(project_id, id)`,

				`CREATE TABLE IF NOT EXISTS ratings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					evaluation_id INTEGER NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
					position INTEGER NOT NULL,
					criterion_id INTEGER NOT NULL,
					note INTEGER NOT NULL CHECK (note BETWEEN 1 AND 10),
					respected INTEGER NOT NULL DEFAULT 0,
					comment TEXT NOT NULL,
					UNIQUE (evaluation_id, position)
				)`,
				`CREATE INDEX idx_ratings_criterion ON ratings(criterion_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Backup history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS backups (
					id TEXT PRIMARY KEY,
					path TEXT NOT NULL,
					file_size INTEGER NOT NULL,
					schema_version INTEGER NOT NULL,
					row_counts TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
