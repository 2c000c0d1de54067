// Package esg combines criterion ratings into Environmental, Social and
// Governance pillar scores.
package esg

import (
	"math"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/scoring"
)

// Pillar weights in the combined score.
const (
	EnvironmentalWeight = 0.5
	SocialWeight        = 0.3
	GovernanceWeight    = 0.2
)

// PillarScore is the mean effective note of the ratings in one pillar.
type PillarScore struct {
	Score float64 `json:"score" yaml:"score"`
	Count int     `json:"count" yaml:"count"`
}

// Breakdown is the ESG view of one rating set.
type Breakdown struct {
	Environmental PillarScore `json:"environmental" yaml:"environmental"`
	Social        PillarScore `json:"social" yaml:"social"`
	Governance    PillarScore `json:"governance" yaml:"governance"`
	// Unclassified counts ratings whose criterion fell in no pillar.
	Unclassified int     `json:"unclassified" yaml:"unclassified"`
	Score10      float64 `json:"score10" yaml:"score10"`
	Score100     int     `json:"score100" yaml:"score100"`
}

// Aggregate classifies each rating and builds the pillar breakdown.
func Aggregate(ratings []model.Rating, lookup *catalog.Lookup) Breakdown {
	sums := make(map[model.Pillar]float64, 3)
	counts := make(map[model.Pillar]int, 3)
	unclassified := 0

	for _, r := range ratings {
		pillar, ok := lookup.Resolve(r.CriterionID).Category.Pillar()
		if !ok {
			unclassified++
			continue
		}
		sums[pillar] += scoring.Effective(r.Note, r.Respected)
		counts[pillar]++
	}

	pillar := func(p model.Pillar) PillarScore {
		if counts[p] == 0 {
			return PillarScore{}
		}
		return PillarScore{Score: sums[p] / float64(counts[p]), Count: counts[p]}
	}

	b := Breakdown{
		Environmental: pillar(model.PillarEnvironmental),
		Social:        pillar(model.PillarSocial),
		Governance:    pillar(model.PillarGovernance),
		Unclassified:  unclassified,
	}
	b.Score10 = Combine(b.Environmental.Score, b.Social.Score, b.Governance.Score)
	b.Score100 = Scale(b.Score10)
	return b
}

// Combine weights the pillar sub-scores 50/30/20.
func Combine(environmental, social, governance float64) float64 {
	return EnvironmentalWeight*environmental + SocialWeight*social + GovernanceWeight*governance
}

// Scale converts a 0-10 ESG score to the rounded 0-100 scale.
func Scale(score10 float64) int {
	v := int(math.Round(score10 * 10))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ProjectScore returns the ESG100 to persist for a project whose latest
// evaluation is latest, or nil when the project has no evaluation left.
func ProjectScore(latest *model.Evaluation, lookup *catalog.Lookup) *int {
	if latest == nil {
		return nil
	}
	score := Aggregate(latest.Ratings, lookup).Score100
	return &score
}
