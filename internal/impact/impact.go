// Package impact ranks criteria by how strongly they drove an evaluation.
// The ranking is for explanation only and never feeds back into the score.
package impact

import (
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/model"
)

const (
	// KeyFactorCount is how many top-ranked rows become key factors.
	KeyFactorCount = 6
	// DecayScale controls the diminishing returns of higher notes.
	DecayScale = 3.5
	// CriticalNote is the note below which CO2 and environmental penalties apply.
	CriticalNote = 4
	// EnvironmentalFailurePenalty scales a failing ENV or ENV_CO2 criterion.
	EnvironmentalFailurePenalty = 0.70
)

var categoryBoost = map[model.Category]float64{
	model.CategoryEnvCO2: 1.35,
	model.CategoryEnv:    1.20,
	model.CategorySocial: 0.90,
	model.CategoryGov:    0.85,
	model.CategoryOther:  0.80,
}

// co2CriticalPenalty applies to every row when the CO2 criterion is failing.
// The CO2 row itself is penalized hardest (0.40).
var co2CriticalPenalty = map[model.Category]float64{
	model.CategoryEnvCO2: 0.40,
	model.CategoryEnv:    0.60,
	model.CategorySocial: 0.80,
	model.CategoryGov:    0.90,
	model.CategoryOther:  0.85,
}

// Analysis is the ranked impact view of one rating set.
type Analysis struct {
	// CO2Note is the note of the evaluation's CO2 criterion, nil when none was rated.
	CO2Note    *int
	Points     []model.ImpactPoint
	KeyFactors []string
}

// CO2Critical reports whether the CO2 criterion was rated below the critical note.
func (a Analysis) CO2Critical() bool {
	return a.CO2Note != nil && *a.CO2Note < CriticalNote
}

// Base is the diminishing-returns contribution of a note at a given weight.
func Base(note, weight int) float64 {
	return (1 - math.Exp(-float64(note)/DecayScale)) * float64(weight)
}

// Boost returns the category multiplier, treating unknown categories as OTHER.
func Boost(category model.Category) float64 {
	if b, ok := categoryBoost[category]; ok {
		return b
	}
	return categoryBoost[model.CategoryOther]
}

// Compute returns the impact of one criterion and the penalties applied to it.
func Compute(note, weight int, category model.Category, co2Critical bool) (float64, []string) {
	value := Base(note, weight) * Boost(category)

	var penalties []string
	if co2Critical {
		factor, ok := co2CriticalPenalty[category]
		if !ok {
			factor = co2CriticalPenalty[model.CategoryOther]
		}
		value *= factor
		penalties = append(penalties, model.PenaltyCO2Critical)
	}
	if category.IsEnvironmental() && note < CriticalNote {
		value *= EnvironmentalFailurePenalty
		penalties = append(penalties, model.PenaltyEnvironmental)
	}

	return value, penalties
}

// Analyze ranks every rating by impact, highest first.
func Analyze(ratings []model.Rating, lookup *catalog.Lookup) Analysis {
	entries := make([]catalog.Entry, len(ratings))
	var co2Note *int
	for i, r := range ratings {
		entries[i] = lookup.Resolve(r.CriterionID)
		if co2Note == nil && entries[i].Category == model.CategoryEnvCO2 {
			note := r.Note
			co2Note = &note
		}
	}

	analysis := Analysis{CO2Note: co2Note}
	critical := analysis.CO2Critical()

	points := make([]model.ImpactPoint, 0, len(ratings))
	for i, r := range ratings {
		e := entries[i]
		value, penalties := Compute(r.Note, e.Weight, e.Category, critical)
		points = append(points, model.ImpactPoint{
			CriterionID: r.CriterionID,
			Name:        e.Name,
			Note:        r.Note,
			Weight:      e.Weight,
			Category:    e.Category,
			Impact:      value,
			Penalties:   penalties,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Impact > points[j].Impact
	})

	analysis.Points = points
	analysis.KeyFactors = KeyFactors(points, KeyFactorCount)
	return analysis
}

// KeyFactors formats the first n ranked points for display.
func KeyFactors(points []model.ImpactPoint, n int) []string {
	if n > len(points) {
		n = len(points)
	}
	if n < 0 {
		n = 0
	}
	factors := make([]string, 0, n)
	for _, p := range points[:n] {
		factors = append(factors, FormatFactor(p))
	}
	return factors
}

// FormatFactor renders a point as "<name> • impact <v> • note <n>/10".
func FormatFactor(p model.ImpactPoint) string {
	return fmt.Sprintf("%s • impact %.2f • note %d/10", p.Name, p.Impact, p.Note)
}
