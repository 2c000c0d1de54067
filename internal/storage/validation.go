// Package storage provides the data persistence layer for the carbon audit engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/carbon-audit/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidID        = errors.New("id must be positive")
	ErrInvalidCriterion = errors.New("invalid criterion")
	ErrInvalidProject   = errors.New("invalid project")
	ErrInvalidStatus    = errors.New("invalid project status")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures an id parameter is positive.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

// validateCriterion checks the fields the database depends on. Length rules
// are enforced by the catalog before a criterion reaches storage.
func validateCriterion(c *model.CriterionReference) error {
	if c == nil {
		return fmt.Errorf("%w: criterion", ErrNilParameter)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCriterion)
	}
	if c.Weight < model.MinWeight || c.Weight > model.MaxWeight {
		return fmt.Errorf("%w: weight %d out of range", ErrInvalidCriterion, c.Weight)
	}
	return nil
}

// validateEvaluation runs the full evaluation rules so nothing invalid is written.
func validateEvaluation(e *model.Evaluation) error {
	if e == nil {
		return fmt.Errorf("%w: evaluation", ErrNilParameter)
	}
	return e.Validate()
}

// validateProject checks a project before insert.
func validateProject(p *model.Project) error {
	if p == nil {
		return fmt.Errorf("%w: project", ErrNilParameter)
	}
	if p.Status == "" {
		p.Status = model.ProjectStatusPending
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	return nil
}

// validateStatus ensures a project status is one of the known values.
func validateStatus(status model.ProjectStatus) error {
	switch status {
	case model.ProjectStatusPending,
		model.ProjectStatusInProgress,
		model.ProjectStatusCancelled:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
}
