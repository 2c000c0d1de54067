// Package advisor composes scoring, impact and decision outputs into a single
// suggestion for an evaluated project.
package advisor

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/decision"
	"github.com/Veraticus/carbon-audit/internal/esg"
	"github.com/Veraticus/carbon-audit/internal/impact"
	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/scoring"
)

// WeakNote is the note below which a criterion gets a recommendation.
const WeakNote = 6

// InlineRecommendationCount caps CriterionRecommendations.
const InlineRecommendationCount = 3

var categoryActions = map[model.Category]string{
	model.CategoryEnvCO2: "cut emissions and publish a verified carbon footprint",
	model.CategoryEnv:    "set measurable resource and pollution reduction targets",
	model.CategorySocial: "strengthen social safeguards and community engagement",
	model.CategoryGov:    "tighten governance controls and reporting transparency",
	model.CategoryOther:  "document supporting evidence and a corrective plan",
}

const complianceAction = "restore compliance and document corrective actions"

// Suggest builds the local suggestion for one rating set of a project.
func Suggest(project model.Project, ratings []model.Rating, lookup *catalog.Lookup) model.AiSuggestion {
	score := scoring.ScoreRatings(ratings, lookup)
	rate := model.ComplianceRate(ratings)
	local := decision.Local(score, rate)
	analysis := impact.Analyze(ratings, lookup)
	esgScore := esg.Aggregate(ratings, lookup).Score100

	s := model.AiSuggestion{
		ProjectID:       project.ID,
		Decision:        local.Label(),
		Source:          local.Source,
		Confidence:      local.Confidence,
		Score:           score,
		ComplianceRate:  rate,
		ESGScore:        &esgScore,
		TopFactors:      analysis.KeyFactors,
		Impacts:         analysis.Points,
		Warnings:        Warnings(score, rate, analysis, ratings, lookup),
		Recommendations: recommendations(ratings, lookup, -1),
	}
	if len(s.Recommendations) == 0 {
		s.Recommendations = []string{"Maintain current practices and keep monitoring the key factors"}
	}
	s.Conclusion = conclusion(s)
	return s
}

// CriterionRecommendations returns up to three "Criterion: Recommendation"
// strings for the weakest criteria.
func CriterionRecommendations(ratings []model.Rating, lookup *catalog.Lookup) []string {
	return recommendations(ratings, lookup, InlineRecommendationCount)
}

// Warnings lists the risk signals of a rating set.
func Warnings(score, rate float64, analysis impact.Analysis, ratings []model.Rating, lookup *catalog.Lookup) []string {
	var warnings []string

	if len(ratings) == 0 {
		return []string{"No ratings recorded"}
	}
	if analysis.CO2Critical() {
		warnings = append(warnings, fmt.Sprintf("Critical CO2 performance: note %d/10 (below %d)", *analysis.CO2Note, impact.CriticalNote))
	}
	if rate < decision.MinComplianceRate {
		warnings = append(warnings, fmt.Sprintf("Low compliance: %.0f%% of criteria respected", rate*100))
	}
	if score < decision.ApproveScoreThreshold {
		warnings = append(warnings, fmt.Sprintf("Score %.1f/10 is below the approval threshold of %.1f", score, decision.ApproveScoreThreshold))
	}
	for _, p := range analysis.Points {
		if slices.Contains(p.Penalties, model.PenaltyEnvironmental) {
			warnings = append(warnings, fmt.Sprintf("Environmental failure on %s (note %d/10)", p.Name, p.Note))
		}
	}

	orphaned := 0
	for _, r := range ratings {
		if !lookup.Resolve(r.CriterionID).Known {
			orphaned++
		}
	}
	if orphaned > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rating(s) reference criteria no longer in the catalog", orphaned))
	}

	return warnings
}

// ApplyRemote merges a refined decision into the suggestion. Local results
// leave it untouched.
func ApplyRemote(s *model.AiSuggestion, result decision.Result) {
	if s == nil || result.Source != model.SourceRemote || result.Analysis == nil {
		return
	}

	s.Decision = result.Label()
	s.Source = result.Source
	s.Confidence = result.Confidence
	s.CarbonRisk = strings.TrimSpace(result.Analysis.CarbonRisk)
	predicted := result.Analysis.PredictedESGScore
	s.PredictedESG = &predicted

	for _, rec := range splitRecommendations(result.Analysis.Recommendations) {
		if !slices.Contains(s.Recommendations, rec) {
			s.Recommendations = append(s.Recommendations, rec)
		}
	}
	s.Conclusion = conclusion(*s)
}

type weakRating struct {
	entry     catalog.Entry
	effective float64
	note      int
	respected bool
}

func recommendations(ratings []model.Rating, lookup *catalog.Lookup, limit int) []string {
	weak := make([]weakRating, 0, len(ratings))
	seen := make(map[int64]bool, len(ratings))
	for _, r := range ratings {
		if r.Note >= WeakNote && r.Respected {
			continue
		}
		if seen[r.CriterionID] {
			continue
		}
		seen[r.CriterionID] = true
		weak = append(weak, weakRating{
			entry:     lookup.Resolve(r.CriterionID),
			effective: scoring.Effective(r.Note, r.Respected),
			note:      r.Note,
			respected: r.Respected,
		})
	}

	// Weakest first, heavier criteria first on ties.
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].effective != weak[j].effective {
			return weak[i].effective < weak[j].effective
		}
		return weak[i].entry.Weight > weak[j].entry.Weight
	})

	if limit >= 0 && len(weak) > limit {
		weak = weak[:limit]
	}

	out := make([]string, 0, len(weak))
	for _, w := range weak {
		out = append(out, fmt.Sprintf("%s: %s", w.entry.Name, action(w)))
	}
	return out
}

func action(w weakRating) string {
	if !w.respected && w.note >= WeakNote {
		return complianceAction
	}
	if a, ok := categoryActions[w.entry.Category]; ok {
		return a
	}
	return categoryActions[model.CategoryOther]
}

func conclusion(s model.AiSuggestion) string {
	var b strings.Builder
	if s.Decision == decision.LabelApproved {
		b.WriteString("Recommended for approval")
	} else {
		b.WriteString("Not recommended for approval")
	}
	fmt.Fprintf(&b, ": score %.1f/10, %.0f%% compliance, confidence %.2f (%s).",
		s.Score, s.ComplianceRate*100, s.Confidence, s.Source)
	if s.PredictedESG != nil {
		fmt.Fprintf(&b, " Advisory service predicts ESG %d/100", *s.PredictedESG)
		if s.CarbonRisk != "" {
			fmt.Fprintf(&b, " with %s carbon risk", strings.ToLower(s.CarbonRisk))
		}
		b.WriteString(".")
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(&b, " Main concern: %s.", s.Warnings[0])
	}
	return b.String()
}

func splitRecommendations(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(p), "-*•"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
