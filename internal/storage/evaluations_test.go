package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
)

func newTestEvaluation(projectID int64, criteria []int64) *model.Evaluation {
	return &model.Evaluation{
		ProjectID:    projectID,
		Decision:     "Approuvé",
		Observations: "Solid carbon accounting",
		Score:        4.6,
		Ratings: []model.Rating{
			{CriterionID: criteria[0], Note: 8, Respected: true, Comment: "Verified by auditor"},
			{CriterionID: criteria[1], Note: 2, Respected: false, Comment: "Board not independent"},
		},
	}
}

func TestSQLiteStorage_CreateAndGetEvaluation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	project := createTestProject(t, store, "Mangrove restoration")
	criteria := createTestCriteria(t, store)

	eval := newTestEvaluation(project.ID, criteria)
	if err := store.CreateEvaluation(ctx, eval); err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}
	if eval.ID == 0 {
		t.Fatal("CreateEvaluation() did not set ID")
	}

	got, err := store.GetEvaluation(ctx, eval.ID)
	if err != nil {
		t.Fatalf("GetEvaluation() failed: %v", err)
	}
	if got.Decision != "Approuvé" || got.Score != 4.6 || got.ProjectID != project.ID {
		t.Errorf("GetEvaluation() = %+v", got)
	}
	if len(got.Ratings) != 2 {
		t.Fatalf("len(Ratings) = %d, want 2", len(got.Ratings))
	}
	if got.Ratings[0] != eval.Ratings[0] || got.Ratings[1] != eval.Ratings[1] {
		t.Errorf("Ratings = %+v, want %+v", got.Ratings, eval.Ratings)
	}
}

func TestSQLiteStorage_CreateEvaluationInvalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	project := createTestProject(t, store, "Mangrove restoration")
	criteria := createTestCriteria(t, store)

	tests := []struct {
		mutate  func(*model.Evaluation)
		wantErr error
		name    string
	}{
		{
			name:    "no ratings",
			mutate:  func(e *model.Evaluation) { e.Ratings = nil },
			wantErr: common.ErrNoRatings,
		},
		{
			name:    "note out of range",
			mutate:  func(e *model.Evaluation) { e.Ratings[1].Note = 11 },
			wantErr: common.ErrValidation,
		},
		{
			name:    "short comment",
			mutate:  func(e *model.Evaluation) { e.Ratings[0].Comment = "ok" },
			wantErr: common.ErrValidation,
		},
		{
			name:    "unknown project",
			mutate:  func(e *model.Evaluation) { e.ProjectID = 999 },
			wantErr: common.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := newTestEvaluation(project.ID, criteria)
			tt.mutate(eval)
			if err := store.CreateEvaluation(ctx, eval); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateEvaluation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	var ratings int
	if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ratings").Scan(&ratings); err != nil {
		t.Fatalf("Failed to count ratings: %v", err)
	}
	if ratings != 0 {
		t.Errorf("failed creates left %d ratings behind", ratings)
	}
}

func TestSQLiteStorage_UpdateEvaluation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	project := createTestProject(t, store, "Mangrove restoration")
	criteria := createTestCriteria(t, store)

	eval := newTestEvaluation(project.ID, criteria)
	if err := store.CreateEvaluation(ctx, eval); err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}

	eval.Decision = "Rejeté"
	eval.Score = 8
	eval.Ratings = []model.Rating{
		{CriterionID: criteria[1], Note: 8, Respected: true, Comment: "Board reformed"},
	}
	if err := store.UpdateEvaluation(ctx, eval); err != nil {
		t.Fatalf("UpdateEvaluation() failed: %v", err)
	}

	got, err := store.GetEvaluation(ctx, eval.ID)
	if err != nil {
		t.Fatalf("GetEvaluation() failed: %v", err)
	}
	if got.Decision != "Rejeté" || got.Score != 8 || len(got.Ratings) != 1 {
		t.Errorf("GetEvaluation() after update = %+v", got)
	}

	// A failing update leaves the stored evaluation unchanged.
	eval.Ratings = nil
	if err := store.UpdateEvaluation(ctx, eval); !errors.Is(err, common.ErrNoRatings) {
		t.Fatalf("UpdateEvaluation() error = %v, want ErrNoRatings", err)
	}
	got, err = store.GetEvaluation(ctx, eval.ID)
	if err != nil {
		t.Fatalf("GetEvaluation() failed: %v", err)
	}
	if len(got.Ratings) != 1 {
		t.Errorf("ratings after failed update = %d, want 1", len(got.Ratings))
	}

	missing := newTestEvaluation(project.ID, criteria)
	missing.ID = 999
	if err := store.UpdateEvaluation(ctx, missing); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("UpdateEvaluation(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_LatestAndDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	project := createTestProject(t, store, "Mangrove restoration")
	other := createTestProject(t, store, "Solar farm")
	criteria := createTestCriteria(t, store)

	if _, err := store.GetLatestEvaluation(ctx, project.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetLatestEvaluation() with none error = %v, want ErrNotFound", err)
	}

	first := newTestEvaluation(project.ID, criteria)
	second := newTestEvaluation(project.ID, criteria)
	second.Observations = "Second site visit"
	foreign := newTestEvaluation(other.ID, criteria)
	for _, e := range []*model.Evaluation{first, second, foreign} {
		if err := store.CreateEvaluation(ctx, e); err != nil {
			t.Fatalf("CreateEvaluation() failed: %v", err)
		}
	}

	latest, err := store.GetLatestEvaluation(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetLatestEvaluation() failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest = %d, want %d", latest.ID, second.ID)
	}
	if len(latest.Ratings) != 2 {
		t.Errorf("latest ratings = %d, want 2", len(latest.Ratings))
	}

	all, err := store.GetEvaluationsByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetEvaluationsByProject() failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Fatalf("GetEvaluationsByProject() = %+v", all)
	}
	for _, e := range all {
		if len(e.Ratings) != 2 {
			t.Errorf("evaluation %d has %d ratings, want 2", e.ID, len(e.Ratings))
		}
	}

	if err := store.DeleteEvaluation(ctx, second.ID); err != nil {
		t.Fatalf("DeleteEvaluation() failed: %v", err)
	}
	latest, err = store.GetLatestEvaluation(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetLatestEvaluation() failed: %v", err)
	}
	if latest.ID != first.ID {
		t.Errorf("latest after delete = %d, want %d", latest.ID, first.ID)
	}

	if err := store.DeleteEvaluation(ctx, second.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second DeleteEvaluation() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_RatingsSurviveCriterionRemoval(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	project := createTestProject(t, store, "Mangrove restoration")
	criteria := createTestCriteria(t, store)

	eval := newTestEvaluation(project.ID, criteria)
	if err := store.CreateEvaluation(ctx, eval); err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}

	if err := store.DeleteCriterion(ctx, criteria[0]); err != nil {
		t.Fatalf("DeleteCriterion() failed: %v", err)
	}

	got, err := store.GetEvaluation(ctx, eval.ID)
	if err != nil {
		t.Fatalf("GetEvaluation() failed: %v", err)
	}
	if len(got.Ratings) != 2 || got.Ratings[0].CriterionID != criteria[0] {
		t.Errorf("orphaned rating was lost: %+v", got.Ratings)
	}
}
