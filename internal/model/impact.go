package model

// Penalty annotations attached to an impact point.
const (
	PenaltyCO2Critical   = "CO2 < 4"
	PenaltyEnvironmental = "environmental failure"
)

// ImpactPoint is one criterion's row in the explainability ranking.
type ImpactPoint struct {
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Penalties   []string `json:"penalties,omitempty" yaml:"penalties,omitempty"`
	CriterionID int64    `json:"criterion_id" yaml:"criterion_id"`
	Note        int      `json:"note" yaml:"note"`
	Weight      int      `json:"weight" yaml:"weight"`
	Impact      float64  `json:"impact" yaml:"impact"`
}

// PenaltyLabel joins the penalty annotations for display, empty when none apply.
func (p ImpactPoint) PenaltyLabel() string {
	switch len(p.Penalties) {
	case 0:
		return ""
	case 1:
		return p.Penalties[0]
	default:
		return p.Penalties[0] + " + " + p.Penalties[1]
	}
}
