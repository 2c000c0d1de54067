package engine

import (
	"context"
	"fmt"

	"github.com/Veraticus/carbon-audit/internal/advisor"
	"github.com/Veraticus/carbon-audit/internal/advisory"
	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/decision"
	"github.com/Veraticus/carbon-audit/internal/model"
)

// suggestionInput is everything one suggestion is computed from.
type suggestionInput struct {
	project    *model.Project
	evaluation *model.Evaluation
	lookup     *catalog.Lookup
}

// Suggest builds the local suggestion for an evaluation.
func (e *AuditEngine) Suggest(ctx context.Context, evaluationID int64) (*model.AiSuggestion, error) {
	evaluation, err := e.storage.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation %d: %w", evaluationID, err)
	}
	in, err := e.loadInput(ctx, evaluation)
	if err != nil {
		return nil, err
	}
	s := in.suggest()
	return &s, nil
}

// SuggestForProject builds the local suggestion for a project's latest evaluation.
func (e *AuditEngine) SuggestForProject(ctx context.Context, projectID int64) (*model.AiSuggestion, error) {
	in, err := e.latestInput(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s := in.suggest()
	return &s, nil
}

// RefineAsync returns the local suggestion for a project's latest evaluation
// right away, plus a pending remote refinement. Apply the refinement with
// advisor.ApplyRemote once it completes.
func (e *AuditEngine) RefineAsync(ctx context.Context, projectID int64) (*model.AiSuggestion, *decision.Pending, error) {
	in, err := e.latestInput(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	s := in.suggest()

	local := decision.Local(s.Score, s.ComplianceRate)
	req := advisory.BuildRequest(*in.project, in.evaluation.Ratings, in.lookup)
	return &s, e.refiner.Refine(ctx, req, local), nil
}

// SuggestRefined builds a project's suggestion and waits for the remote
// refinement. Advisory failures leave the local suggestion in place.
func (e *AuditEngine) SuggestRefined(ctx context.Context, projectID int64) (*model.AiSuggestion, error) {
	s, pending, err := e.RefineAsync(ctx, projectID)
	if err != nil {
		return nil, err
	}
	advisor.ApplyRemote(s, pending.Wait(ctx))
	return s, nil
}

func (e *AuditEngine) latestInput(ctx context.Context, projectID int64) (*suggestionInput, error) {
	evaluation, err := e.storage.GetLatestEvaluation(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest evaluation for project %d: %w", projectID, err)
	}
	return e.loadInput(ctx, evaluation)
}

func (e *AuditEngine) loadInput(ctx context.Context, evaluation *model.Evaluation) (*suggestionInput, error) {
	project, err := e.storage.GetProject(ctx, evaluation.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %d: %w", evaluation.ProjectID, err)
	}
	lookup, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &suggestionInput{project: project, evaluation: evaluation, lookup: lookup}, nil
}

func (in *suggestionInput) suggest() model.AiSuggestion {
	s := advisor.Suggest(*in.project, in.evaluation.Ratings, in.lookup)
	s.EvaluationID = in.evaluation.ID
	return s
}
