package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteStorage_Backup(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestProject(t, store, "Mangrove restoration")
	createTestCriteria(t, store)

	dest := filepath.Join(t.TempDir(), "backups", "carbon-backup.db")
	info, err := store.Backup(ctx, dest)
	if err != nil {
		t.Fatalf("Backup() failed: %v", err)
	}
	if info.FileSize == 0 {
		t.Error("backup file is empty")
	}
	if info.SchemaVersion != ExpectedSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", info.SchemaVersion, ExpectedSchemaVersion)
	}
	if info.RowCounts["criteria"] != 2 || info.RowCounts["projects"] != 1 {
		t.Errorf("RowCounts = %v", info.RowCounts)
	}

	restored, err := NewSQLiteStorage(dest)
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	defer func() { _ = restored.Close() }()
	criteria, err := restored.GetCriteria(ctx)
	if err != nil {
		t.Fatalf("GetCriteria() on backup failed: %v", err)
	}
	if len(criteria) != 2 {
		t.Errorf("backup has %d criteria, want 2", len(criteria))
	}

	backups, err := store.ListBackups(ctx)
	if err != nil {
		t.Fatalf("ListBackups() failed: %v", err)
	}
	if len(backups) != 1 || backups[0].ID != info.ID || backups[0].RowCounts["criteria"] != 2 {
		t.Errorf("ListBackups() = %+v", backups)
	}

	if _, err := store.Backup(ctx, dest); !errors.Is(err, ErrBackupExists) {
		t.Errorf("second Backup() error = %v, want ErrBackupExists", err)
	}
}

func TestValidateBackupPath(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		path    string
	}{
		{name: "empty", path: "", wantErr: ErrEmptyString},
		{name: "relative", path: "backup.db", wantErr: ErrInvalidBackupTo},
		{name: "quote", path: "/tmp/it's.db", wantErr: ErrInvalidBackupTo},
		{name: "traversal", path: "/tmp/../etc/x.db", wantErr: ErrInvalidBackupTo},
		{name: "valid", path: "/tmp/carbon/backup.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBackupPath(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateBackupPath(%q) unexpected error: %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateBackupPath(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
