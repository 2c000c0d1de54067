// Package testutil provides test utilities for the carbon audit engine: an
// isolated in-memory database seeded with reference criteria.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	criteria map[string]model.CriterionReference
}

// SetupTestDB creates a new in-memory test database seeded with the given
// criteria. It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.DefaultCriteria()...)
//	co2 := db.MustCriterionID(testutil.CriterionCO2)
func SetupTestDB(t *testing.T, criteria ...model.CriterionReference) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage:  store,
		t:        t,
		criteria: make(map[string]model.CriterionReference, len(criteria)),
	}
	for _, c := range criteria {
		if err := store.CreateCriterion(ctx, &c); err != nil {
			t.Fatalf("failed to seed criterion %q: %v", c.Name, err)
		}
		db.criteria[c.Name] = c
	}

	return db
}

// MustCriterionID returns the id of a seeded criterion or fails the test.
func (db *TestDB) MustCriterionID(name string) int64 {
	db.t.Helper()
	c, ok := db.criteria[name]
	if !ok {
		db.t.Fatalf("criterion %q was not seeded", name)
	}
	return c.ID
}

// CreateProject stores a project with test defaults and returns it.
func (db *TestDB) CreateProject(name string) *model.Project {
	db.t.Helper()
	project := &model.Project{
		Name:        name,
		Description: "Community solar and reforestation programme",
		Sector:      "Energy",
		Budget:      500000,
	}
	if err := db.Storage.CreateProject(context.Background(), project); err != nil {
		db.t.Fatalf("failed to create project %q: %v", name, err)
	}
	return project
}
