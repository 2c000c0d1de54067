// Package engine orchestrates the audit workflow: evaluation writes with ESG
// write-back, suggestions and decision lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/carbon-audit/internal/advisory"
	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/decision"
	"github.com/Veraticus/carbon-audit/internal/esg"
	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/scoring"
	"github.com/Veraticus/carbon-audit/internal/service"
)

// AuditEngine coordinates storage, the criteria catalog and the advisory service.
type AuditEngine struct {
	storage service.Storage
	catalog *catalog.Catalog
	refiner *decision.Refiner
}

// Config holds configuration options for the audit engine.
type Config struct {
	// Advisory is optional; without it suggestions stay local.
	Advisory        advisory.Client
	AdvisoryTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		AdvisoryTimeout: advisory.DefaultTimeout,
	}
}

// New creates an audit engine without a remote advisory client.
func New(storage service.Storage) *AuditEngine {
	return NewWithConfig(storage, DefaultConfig())
}

// NewWithConfig creates an audit engine with custom configuration.
func NewWithConfig(storage service.Storage, config Config) *AuditEngine {
	return &AuditEngine{
		storage: storage,
		catalog: catalog.New(storage),
		refiner: decision.NewRefiner(config.Advisory, config.AdvisoryTimeout),
	}
}

// Catalog returns the criteria catalog backed by the engine's storage.
func (e *AuditEngine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Projects returns every project.
func (e *AuditEngine) Projects(ctx context.Context) ([]model.Project, error) {
	projects, err := e.storage.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// EvaluationInput is the caller-provided part of an evaluation.
type EvaluationInput struct {
	Decision     string         `json:"decision" yaml:"decision"`
	Observations string         `json:"observations" yaml:"observations"`
	Ratings      []model.Rating `json:"ratings" yaml:"ratings"`
	ProjectID    int64          `json:"project_id" yaml:"project_id"`
}

// CreateEvaluation validates the input, derives its score from the current
// catalog and stores it. The project's ESG score is then refreshed.
func (e *AuditEngine) CreateEvaluation(ctx context.Context, in EvaluationInput) (*model.Evaluation, error) {
	evaluation := &model.Evaluation{
		ProjectID:    in.ProjectID,
		Decision:     strings.TrimSpace(in.Decision),
		Observations: strings.TrimSpace(in.Observations),
		Ratings:      in.Ratings,
	}
	if err := evaluation.Validate(); err != nil {
		return nil, err
	}

	lookup, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	evaluation.Score = scoring.ScoreRatings(evaluation.Ratings, lookup)

	if err := e.storage.CreateEvaluation(ctx, evaluation); err != nil {
		return nil, fmt.Errorf("failed to create evaluation: %w", err)
	}

	slog.Info("created evaluation",
		"id", evaluation.ID,
		"project_id", evaluation.ProjectID,
		"score", evaluation.Score)

	e.refreshESG(ctx, evaluation.ProjectID, lookup)
	return evaluation, nil
}

// UpdateEvaluation replaces an evaluation's decision, observations and
// ratings. The owning project is kept from the stored evaluation.
func (e *AuditEngine) UpdateEvaluation(ctx context.Context, id int64, in EvaluationInput) (*model.Evaluation, error) {
	existing, err := e.storage.GetEvaluation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation %d: %w", id, err)
	}

	evaluation := &model.Evaluation{
		ID:           existing.ID,
		ProjectID:    existing.ProjectID,
		CreatedAt:    existing.CreatedAt,
		Decision:     strings.TrimSpace(in.Decision),
		Observations: strings.TrimSpace(in.Observations),
		Ratings:      in.Ratings,
	}
	if err := evaluation.Validate(); err != nil {
		return nil, err
	}

	lookup, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	evaluation.Score = scoring.ScoreRatings(evaluation.Ratings, lookup)

	if err := e.storage.UpdateEvaluation(ctx, evaluation); err != nil {
		return nil, fmt.Errorf("failed to update evaluation %d: %w", id, err)
	}

	slog.Info("updated evaluation", "id", id, "score", evaluation.Score)

	e.refreshESG(ctx, evaluation.ProjectID, lookup)
	return evaluation, nil
}

// DeleteEvaluation removes an evaluation and refreshes its project's ESG score.
func (e *AuditEngine) DeleteEvaluation(ctx context.Context, id int64) error {
	existing, err := e.storage.GetEvaluation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load evaluation %d: %w", id, err)
	}

	if err := e.storage.DeleteEvaluation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete evaluation %d: %w", id, err)
	}

	slog.Info("deleted evaluation", "id", id, "project_id", existing.ProjectID)

	lookup, err := e.catalog.Snapshot(ctx)
	if err != nil {
		common.LogError(ctx, err, "failed to refresh project ESG score", common.Fields{
			"project_id": existing.ProjectID,
		})
		return nil
	}
	e.refreshESG(ctx, existing.ProjectID, lookup)
	return nil
}

// RecomputeProjectESG recomputes the project's ESG score from its latest
// evaluation and persists it. A project without evaluations gets nil.
func (e *AuditEngine) RecomputeProjectESG(ctx context.Context, projectID int64) (*int, error) {
	lookup, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.recomputeESG(ctx, projectID, lookup)
}

func (e *AuditEngine) recomputeESG(ctx context.Context, projectID int64, lookup *catalog.Lookup) (*int, error) {
	latest, err := e.storage.GetLatestEvaluation(ctx, projectID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to load latest evaluation: %w", err)
	}
	if err != nil {
		latest = nil
	}

	score := esg.ProjectScore(latest, lookup)
	if err := e.storage.UpdateProjectESGScore(ctx, projectID, score); err != nil {
		return nil, fmt.Errorf("failed to persist ESG score: %w", err)
	}

	if score == nil {
		slog.Debug("cleared project ESG score", "project_id", projectID)
	} else {
		slog.Debug("updated project ESG score", "project_id", projectID, "esg_score", *score)
	}
	return score, nil
}

// refreshESG is the best-effort write-back after an evaluation write.
// Failures are logged and never reach the caller.
func (e *AuditEngine) refreshESG(ctx context.Context, projectID int64, lookup *catalog.Lookup) {
	if _, err := e.recomputeESG(ctx, projectID, lookup); err != nil {
		common.LogError(ctx, err, "failed to refresh project ESG score", common.Fields{
			"project_id": projectID,
		})
	}
}

// Preview scores in-progress ratings without validating or storing them.
func (e *AuditEngine) Preview(ctx context.Context, drafts []scoring.Draft) (scoring.PreviewResult, error) {
	lookup, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return scoring.PreviewResult{}, err
	}
	return scoring.Preview(drafts, lookup), nil
}

// ApplyDecision maps an evaluation's decision text to a project status and
// stores it. Unrecognized decision text is a validation error.
func (e *AuditEngine) ApplyDecision(ctx context.Context, evaluationID int64) (model.ProjectStatus, error) {
	evaluation, err := e.storage.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return "", fmt.Errorf("failed to load evaluation %d: %w", evaluationID, err)
	}

	status, err := decision.ProjectStatusFor(evaluation.Decision)
	if err != nil {
		return "", err
	}

	if err := e.storage.UpdateProjectStatus(ctx, evaluation.ProjectID, status); err != nil {
		return "", fmt.Errorf("failed to update project %d status: %w", evaluation.ProjectID, err)
	}

	slog.Info("applied evaluation decision",
		"evaluation_id", evaluationID,
		"project_id", evaluation.ProjectID,
		"status", status)
	return status, nil
}
