// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"

	"github.com/Veraticus/carbon-audit/internal/common"
)

// Note bounds for a rating.
const (
	MinNote = 1
	MaxNote = 10
)

// Rating is one criterion's result inside an evaluation.
type Rating struct {
	Comment     string `json:"comment" yaml:"comment" validate:"min=8,max=250"`
	CriterionID int64  `json:"criterion_id" yaml:"criterion_id" validate:"gt=0"`
	Note        int    `json:"note" yaml:"note" validate:"min=1,max=10"`
	Respected   bool   `json:"respected" yaml:"respected"`
}

// Evaluation is an audit of a project against a set of criteria.
type Evaluation struct {
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	Decision     string    `json:"decision" yaml:"decision" validate:"required,max=50"`
	Observations string    `json:"observations" yaml:"observations" validate:"min=10,max=250"`
	Ratings      []Rating  `json:"ratings" yaml:"ratings" validate:"dive"`
	ID           int64     `json:"id" yaml:"id"`
	ProjectID    int64     `json:"project_id" yaml:"project_id" validate:"gt=0"`
	// Score is derived from the ratings on every write; it is never taken from input.
	Score float64 `json:"score" yaml:"score"`
}

// Validate checks every field and requires at least one rating.
func (e *Evaluation) Validate() error {
	if len(e.Ratings) == 0 {
		return fmt.Errorf("%w: %w", common.ErrValidation, common.ErrNoRatings)
	}
	return validateStruct(e)
}

// Validate checks a single rating.
func (r *Rating) Validate() error {
	return validateStruct(r)
}

// ComplianceRate is the fraction of ratings flagged respected, 0 when empty.
func ComplianceRate(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	respected := 0
	for _, r := range ratings {
		if r.Respected {
			respected++
		}
	}
	return float64(respected) / float64(len(ratings))
}
