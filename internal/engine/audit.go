package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/decision"
	"github.com/Veraticus/carbon-audit/internal/model"
)

// AuditOptions configures a portfolio audit.
type AuditOptions struct {
	// Concurrency bounds how many projects are processed at once.
	Concurrency int
	// Remote asks the advisory service to refine each suggestion.
	Remote bool
}

// DefaultAuditOptions returns sensible defaults.
func DefaultAuditOptions() AuditOptions {
	return AuditOptions{Concurrency: 4}
}

// AuditResult is the outcome for one project.
type AuditResult struct {
	Error      error               `json:"-" yaml:"-"`
	Suggestion *model.AiSuggestion `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Project    model.Project       `json:"project" yaml:"project"`
	// Skipped is set for projects that have no evaluation yet.
	Skipped bool `json:"skipped" yaml:"skipped"`
}

// AuditSummary contains statistics about an audit run.
type AuditSummary struct {
	Results        []AuditResult `json:"results" yaml:"results"`
	Approved       int           `json:"approved" yaml:"approved"`
	Rejected       int           `json:"rejected" yaml:"rejected"`
	Skipped        int           `json:"skipped" yaml:"skipped"`
	Failed         int           `json:"failed" yaml:"failed"`
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
}

// Audit builds a suggestion for every project's latest evaluation. Projects
// are processed concurrently; results keep project order. onDone, if set, is
// called once per finished project from worker goroutines.
func (e *AuditEngine) Audit(ctx context.Context, opts AuditOptions, onDone func(AuditResult)) (*AuditSummary, error) {
	startTime := time.Now()

	projects, err := e.Projects(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	slog.Info("Starting audit",
		"projects", len(projects),
		"concurrency", opts.Concurrency,
		"remote", opts.Remote)

	results := make([]AuditResult, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, project := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := e.auditProject(gctx, project, opts)
			results[i] = result
			if onDone != nil {
				onDone(result)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &AuditSummary{Results: results}
	for _, r := range results {
		switch {
		case r.Skipped:
			summary.Skipped++
		case r.Error != nil:
			summary.Failed++
		case r.Suggestion.Decision == decision.LabelApproved:
			summary.Approved++
		default:
			summary.Rejected++
		}
	}
	summary.ProcessingTime = time.Since(startTime)

	slog.Info("Audit complete",
		"approved", summary.Approved,
		"rejected", summary.Rejected,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.ProcessingTime)
	return summary, nil
}

func (e *AuditEngine) auditProject(ctx context.Context, project model.Project, opts AuditOptions) AuditResult {
	result := AuditResult{Project: project}

	var err error
	if opts.Remote {
		result.Suggestion, err = e.SuggestRefined(ctx, project.ID)
	} else {
		result.Suggestion, err = e.SuggestForProject(ctx, project.ID)
	}

	switch {
	case errors.Is(err, common.ErrNotFound):
		result.Skipped = true
		result.Suggestion = nil
	case err != nil:
		result.Error = err
		common.LogError(ctx, err, "failed to audit project", common.Fields{"project_id": project.ID})
	}
	return result
}
