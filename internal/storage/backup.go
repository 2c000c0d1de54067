package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backup errors.
var (
	ErrBackupExists    = errors.New("backup file already exists")
	ErrInvalidBackupTo = errors.New("invalid backup destination")
)

// backupTables are counted into each backup's metadata.
var backupTables = []string{"criteria", "projects", "evaluations", "ratings"}

// BackupInfo describes a database snapshot.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
	RowCounts     map[string]int `json:"row_counts" yaml:"row_counts"`
	ID            string         `json:"id" yaml:"id"`
	Path          string         `json:"path" yaml:"path"`
	FileSize      int64          `json:"file_size" yaml:"file_size"`
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
}

// Backup writes a consistent copy of the database to destPath with VACUUM
// INTO and records it in the backups table.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateBackupPath(destPath); err != nil {
		return nil, err
	}
	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	schemaVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	rowCounts, err := s.collectRowCounts(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - destPath is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	stat, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := &BackupInfo{
		ID:            uuid.NewString(),
		Path:          destPath,
		CreatedAt:     time.Now(),
		FileSize:      stat.Size(),
		SchemaVersion: schemaVersion,
		RowCounts:     rowCounts,
	}

	counts, err := json.Marshal(rowCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row counts: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO backups (id, path, file_size, schema_version, row_counts, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID, info.Path, info.FileSize, info.SchemaVersion, string(counts), info.CreatedAt); err != nil {
		// The backup file is still valid.
		slog.Warn("failed to record backup", "path", destPath, "error", err)
	}

	slog.Info("created backup", "path", destPath, "size", info.FileSize)
	return info, nil
}

// ListBackups returns recorded backups, newest first.
func (s *SQLiteStorage) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, file_size, schema_version, row_counts, created_at
		FROM backups
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}
	defer rows.Close()

	var backups []BackupInfo
	for rows.Next() {
		var (
			b      BackupInfo
			counts string
		)
		if err := rows.Scan(&b.ID, &b.Path, &b.FileSize, &b.SchemaVersion, &counts, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &b.RowCounts); err != nil {
			return nil, fmt.Errorf("failed to decode row counts for backup %s: %w", b.ID, err)
		}
		backups = append(backups, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backups: %w", err)
	}
	return backups, nil
}

func (s *SQLiteStorage) collectRowCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(backupTables))
	for _, table := range backupTables {
		var n int
		// #nosec G202 - table names come from a fixed list
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func validateBackupPath(destPath string) error {
	if err := validateString(destPath, "destPath"); err != nil {
		return err
	}
	if strings.ContainsAny(destPath, `'";`) {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidBackupTo)
	}
	if !filepath.IsAbs(destPath) || filepath.Clean(destPath) != destPath {
		return fmt.Errorf("%w: must be a clean absolute path", ErrInvalidBackupTo)
	}
	return nil
}
