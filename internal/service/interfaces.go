// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/carbon-audit/internal/model"
)

// CriteriaStore persists the criteria catalog.
type CriteriaStore interface {
	GetCriteria(ctx context.Context) ([]model.CriterionReference, error)
	GetCriterionByID(ctx context.Context, id int64) (*model.CriterionReference, error)
	CreateCriterion(ctx context.Context, criterion *model.CriterionReference) error
	UpdateCriterion(ctx context.Context, criterion *model.CriterionReference) error
	DeleteCriterion(ctx context.Context, id int64) error
}

// EvaluationStore persists evaluations together with their ratings.
type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, evaluation *model.Evaluation) error
	UpdateEvaluation(ctx context.Context, evaluation *model.Evaluation) error
	DeleteEvaluation(ctx context.Context, id int64) error
	GetEvaluation(ctx context.Context, id int64) (*model.Evaluation, error)
	GetEvaluationsByProject(ctx context.Context, projectID int64) ([]model.Evaluation, error)
	// GetLatestEvaluation returns the project's evaluation with the highest id,
	// or common.ErrNotFound when the project has none.
	GetLatestEvaluation(ctx context.Context, projectID int64) (*model.Evaluation, error)
}

// ProjectStore persists project records.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	GetProjects(ctx context.Context) ([]model.Project, error)
	// UpdateProjectESGScore writes the score, or NULL when score is nil.
	UpdateProjectESGScore(ctx context.Context, id int64, score *int) error
	UpdateProjectStatus(ctx context.Context, id int64, status model.ProjectStatus) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	CriteriaStore
	EvaluationStore
	ProjectStore

	Migrate(ctx context.Context) error
	Close() error
}
