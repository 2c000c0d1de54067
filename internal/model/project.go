package model

import "time"

// ProjectStatus is the lifecycle state of an audited project.
type ProjectStatus string

// Project status constants.
const (
	ProjectStatusPending    ProjectStatus = "PENDING"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusCancelled  ProjectStatus = "CANCELLED"
)

// Project is a carbon/ESG project under audit.
type Project struct {
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// ESGScore is nil until an evaluation exists, and again once all are deleted.
	ESGScore    *int          `json:"esg_score" yaml:"esg_score"`
	Name        string        `json:"name" yaml:"name" validate:"min=3,max=100"`
	Description string        `json:"description" yaml:"description" validate:"max=2000"`
	Sector      string        `json:"sector" yaml:"sector" validate:"max=100"`
	Status      ProjectStatus `json:"status" yaml:"status" validate:"oneof=PENDING IN_PROGRESS CANCELLED"`
	ID          int64         `json:"id" yaml:"id"`
	Budget      float64       `json:"budget" yaml:"budget" validate:"gte=0"`
}

// Validate checks the project's fields.
func (p *Project) Validate() error {
	return validateStruct(p)
}
