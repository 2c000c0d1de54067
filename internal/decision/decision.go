// Package decision derives Approve/Reject verdicts for evaluations, either
// from a local heuristic or from the remote advisory service.
package decision

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/carbon-audit/internal/advisory"
	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/scoring"
)

// Local heuristic thresholds.
const (
	ApproveScoreThreshold = 6.5
	MinComplianceRate     = 0.6
)

// Remote thresholds on the predicted ESG score.
const (
	RemoteApproveScore        = 65
	RemoteLowRiskApproveScore = 55
)

// Display labels.
const (
	LabelApproved = "Approved"
	LabelRejected = "Rejected"
)

// Result is a decision with its confidence and origin.
type Result struct {
	// Analysis is set when the remote service produced the result.
	Analysis   *advisory.Analysis
	Decision   model.Decision
	Source     model.DecisionSource
	Confidence float64
}

// Label returns the display label for the decision.
func (r Result) Label() string {
	return DisplayLabel(string(r.Decision))
}

// Local applies the heuristic: approve when the score reaches 6.5 and at
// least 60% of the ratings are respected.
func Local(score, complianceRate float64) Result {
	d := model.DecisionReject
	if score >= ApproveScoreThreshold && complianceRate >= MinComplianceRate {
		d = model.DecisionApprove
	}
	return Result{
		Decision:   d,
		Confidence: clamp01(complianceRate),
		Source:     model.SourceLocal,
	}
}

// LocalFor scores the ratings and applies the local heuristic.
func LocalFor(ratings []model.Rating, lookup *catalog.Lookup) Result {
	return Local(scoring.ScoreRatings(ratings, lookup), model.ComplianceRate(ratings))
}

// FromAnalysis turns a remote analysis into a decision.
func FromAnalysis(a advisory.Analysis) Result {
	risk := strings.ToLower(a.CarbonRisk)

	d := model.DecisionReject
	switch {
	case a.PredictedESGScore >= RemoteApproveScore && !strings.Contains(risk, "high"):
		d = model.DecisionApprove
	case a.PredictedESGScore >= RemoteLowRiskApproveScore && strings.Contains(risk, "low"):
		d = model.DecisionApprove
	}

	analysis := a
	return Result{
		Decision:   d,
		Confidence: clamp01(float64(a.CredibilityScore) / 100),
		Source:     model.SourceRemote,
		Analysis:   &analysis,
	}
}

var (
	approveWords = []string{"accept", "approve", "ok", "accepted"}
	rejectWords  = []string{"reject", "refuse", "rejected"}
)

// DisplayLabel maps free decision text to "Approved" or "Rejected".
// Unrecognized text is shown as rejected.
func DisplayLabel(text string) string {
	lower := strings.ToLower(text)
	if containsAny(lower, approveWords) {
		return LabelApproved
	}
	if containsAny(lower, rejectWords) {
		return LabelRejected
	}
	return LabelRejected
}

var (
	inProgressWords = []string{"accept", "accepte", "approuve", "approve"}
	cancelledWords  = []string{"refuse", "refus", "rejete", "reject"}
)

// ProjectStatusFor maps an evaluation's decision text to the project status it
// implies. Accents are ignored, so "Approuvé" and "Rejeté" are recognized.
func ProjectStatusFor(text string) (model.ProjectStatus, error) {
	folded := fold(text)
	switch {
	case containsAny(folded, inProgressWords):
		return model.ProjectStatusInProgress, nil
	case containsAny(folded, cancelledWords):
		return model.ProjectStatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %w: %q", common.ErrValidation, common.ErrUnknownDecision, text)
	}
}

// fold lowercases text and strips combining accents.
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return strings.ToLower(out)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
