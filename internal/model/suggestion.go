package model

// Decision is the engine's Approve/Reject verdict.
type Decision string

// Decision constants.
const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// DecisionSource records which path produced a decision.
type DecisionSource string

// Decision source constants.
const (
	SourceLocal  DecisionSource = "local"
	SourceRemote DecisionSource = "remote"
)

// AiSuggestion is the composed advisory output for one evaluation.
type AiSuggestion struct {
	Decision        string         `json:"decision" yaml:"decision"`
	Source          DecisionSource `json:"source" yaml:"source"`
	Conclusion      string         `json:"conclusion" yaml:"conclusion"`
	CarbonRisk      string         `json:"carbon_risk,omitempty" yaml:"carbon_risk,omitempty"`
	TopFactors      []string       `json:"top_factors" yaml:"top_factors"`
	Warnings        []string       `json:"warnings" yaml:"warnings"`
	Recommendations []string       `json:"recommendations" yaml:"recommendations"`
	Impacts         []ImpactPoint  `json:"impacts" yaml:"impacts"`
	PredictedESG    *int           `json:"predicted_esg_score,omitempty" yaml:"predicted_esg_score,omitempty"`
	ESGScore        *int           `json:"esg_score" yaml:"esg_score"`
	ProjectID       int64          `json:"project_id" yaml:"project_id"`
	EvaluationID    int64          `json:"evaluation_id" yaml:"evaluation_id"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
	Score           float64        `json:"score" yaml:"score"`
	ComplianceRate  float64        `json:"compliance_rate" yaml:"compliance_rate"`
}
