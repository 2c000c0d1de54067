package model

import "time"

// Criterion weight bounds.
const (
	MinWeight = 1
	MaxWeight = 10
)

// CriterionReference is a named, weighted rating dimension in the catalog.
type CriterionReference struct {
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Name        string    `json:"name" yaml:"name" validate:"min=8,max=30"`
	Description string    `json:"description" yaml:"description" validate:"min=8,max=250"`
	ID          int64     `json:"id" yaml:"id"`
	Weight      int       `json:"weight" yaml:"weight" validate:"min=1,max=10"`
}

// Validate checks name and description lengths and the weight range.
func (c *CriterionReference) Validate() error {
	return validateStruct(c)
}
