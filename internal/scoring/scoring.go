// Package scoring computes weighted overall scores from criterion ratings.
package scoring

import (
	"strconv"
	"strings"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/model"
)

// NonCompliantFactor scales the note of a rating that is not respected.
const NonCompliantFactor = 0.6

// MaxScore is the upper bound of every score produced here.
const MaxScore = 10.0

// Input is a rating paired with its resolved weight.
type Input struct {
	Note      int
	Weight    int
	Respected bool
}

// Effective returns the note after the non-compliance reduction, clamped to [0, 10].
func Effective(note int, respected bool) float64 {
	factor := 1.0
	if !respected {
		factor = NonCompliantFactor
	}
	return clamp(float64(note)*factor, 0, MaxScore)
}

// Score returns Σ(effective·weight) / Σ(weight), or 0 when there is no
// input or the total weight is 0. Negative weights count as 0.
func Score(inputs []Input) float64 {
	var weighted, total float64
	for _, in := range inputs {
		if in.Weight <= 0 {
			continue
		}
		w := float64(in.Weight)
		weighted += Effective(in.Note, in.Respected) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return clamp(weighted/total, 0, MaxScore)
}

// Inputs resolves each rating's weight against the catalog snapshot.
func Inputs(ratings []model.Rating, lookup *catalog.Lookup) []Input {
	inputs := make([]Input, 0, len(ratings))
	for _, r := range ratings {
		inputs = append(inputs, Input{
			Note:      r.Note,
			Respected: r.Respected,
			Weight:    lookup.Resolve(r.CriterionID).Weight,
		})
	}
	return inputs
}

// ScoreRatings scores ratings using catalog weights (1 for unknown criteria).
func ScoreRatings(ratings []model.Rating, lookup *catalog.Lookup) float64 {
	return Score(Inputs(ratings, lookup))
}

// Draft is an in-progress rating whose note has not been validated yet.
type Draft struct {
	Note        string
	CriterionID int64
	Respected   bool
}

// PreviewResult is the outcome of a lenient preview computation.
type PreviewResult struct {
	Score   float64 `json:"score" yaml:"score"`
	Used    int     `json:"used" yaml:"used"`
	Skipped int     `json:"skipped" yaml:"skipped"`
}

// Preview scores partially filled input. Drafts with a blank, non-numeric or
// out-of-range note are skipped rather than reported.
func Preview(drafts []Draft, lookup *catalog.Lookup) PreviewResult {
	inputs := make([]Input, 0, len(drafts))
	skipped := 0
	for _, d := range drafts {
		note, ok := parseNote(d.Note)
		if !ok {
			skipped++
			continue
		}
		inputs = append(inputs, Input{
			Note:      note,
			Respected: d.Respected,
			Weight:    lookup.Resolve(d.CriterionID).Weight,
		})
	}
	return PreviewResult{
		Score:   Score(inputs),
		Used:    len(inputs),
		Skipped: skipped,
	}
}

func parseNote(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	note, err := strconv.Atoi(raw)
	if err != nil || note < model.MinNote || note > model.MaxNote {
		return 0, false
	}
	return note, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
