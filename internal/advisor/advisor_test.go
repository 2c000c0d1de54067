package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carbon-audit/internal/advisory"
	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/decision"
	"github.com/Veraticus/carbon-audit/internal/model"
)

func testLookup() *catalog.Lookup {
	return catalog.NewLookup([]model.CriterionReference{
		{ID: 1, Name: "Emissions CO2", Description: "Tonnes évitées", Weight: 5},
		{ID: 2, Name: "Gouvernance", Description: "Comité indépendant", Weight: 5},
		{ID: 3, Name: "Consommation d'eau", Description: "Volume prélevé", Weight: 3},
		{ID: 4, Name: "Création d'emplois", Description: "Postes créés", Weight: 4},
	})
}

func TestSuggest_WorkedExample(t *testing.T) {
	project := model.Project{ID: 7, Name: "Solar farm"}
	ratings := []model.Rating{
		{CriterionID: 1, Note: 8, Respected: true},
		{CriterionID: 2, Note: 2, Respected: false},
	}

	got := Suggest(project, ratings, testLookup())

	assert.Equal(t, int64(7), got.ProjectID)
	assert.InDelta(t, 4.6, got.Score, 1e-9)
	assert.InDelta(t, 0.5, got.ComplianceRate, 1e-9)
	assert.Equal(t, decision.LabelRejected, got.Decision)
	assert.Equal(t, model.SourceLocal, got.Source)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	require.NotNil(t, got.ESGScore)
	assert.Equal(t, 42, *got.ESGScore)
	assert.Len(t, got.TopFactors, 2)
	assert.Len(t, got.Impacts, 2)

	assert.Equal(t, []string{
		"Low compliance: 50% of criteria respected",
		"Score 4.6/10 is below the approval threshold of 6.5",
	}, got.Warnings)
	assert.Equal(t, []string{
		"Gouvernance: tighten governance controls and reporting transparency",
	}, got.Recommendations)
	assert.Equal(t,
		"Not recommended for approval: score 4.6/10, 50% compliance, confidence 0.50 (local). Main concern: Low compliance: 50% of criteria respected.",
		got.Conclusion)
}

func TestSuggest_CriticalCO2(t *testing.T) {
	ratings := []model.Rating{
		{CriterionID: 1, Note: 3, Respected: true},
		{CriterionID: 3, Note: 2, Respected: true},
		{CriterionID: 4, Note: 9, Respected: false},
		{CriterionID: 99, Note: 7, Respected: true},
	}

	got := Suggest(model.Project{ID: 1}, ratings, testLookup())

	assert.Equal(t, decision.LabelRejected, got.Decision)
	assert.Equal(t, "Critical CO2 performance: note 3/10 (below 4)", got.Warnings[0])
	assert.Contains(t, got.Warnings, "Environmental failure on Emissions CO2 (note 3/10)")
	assert.Contains(t, got.Warnings, "Environmental failure on Consommation d'eau (note 2/10)")
	assert.Contains(t, got.Warnings, "1 rating(s) reference criteria no longer in the catalog")
	assert.NotContains(t, got.Warnings, "Low compliance: 75% of criteria respected")

	assert.Equal(t, []string{
		"Consommation d'eau: set measurable resource and pollution reduction targets",
		"Emissions CO2: cut emissions and publish a verified carbon footprint",
		"Création d'emplois: restore compliance and document corrective actions",
	}, got.Recommendations)
}

func TestSuggest_AllStrong(t *testing.T) {
	ratings := []model.Rating{
		{CriterionID: 1, Note: 8, Respected: true},
		{CriterionID: 2, Note: 9, Respected: true},
	}

	got := Suggest(model.Project{}, ratings, testLookup())

	assert.Equal(t, decision.LabelApproved, got.Decision)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Empty(t, got.Warnings)
	assert.Equal(t, []string{"Maintain current practices and keep monitoring the key factors"}, got.Recommendations)
	assert.Equal(t, "Recommended for approval: score 8.5/10, 100% compliance, confidence 1.00 (local).", got.Conclusion)
}

func TestSuggest_NoRatings(t *testing.T) {
	got := Suggest(model.Project{}, nil, testLookup())

	assert.Equal(t, decision.LabelRejected, got.Decision)
	assert.Zero(t, got.Score)
	assert.Equal(t, []string{"No ratings recorded"}, got.Warnings)
	assert.Empty(t, got.TopFactors)
}

func TestSuggest_EveryWeakCriterionGetsRecommendation(t *testing.T) {
	ratings := []model.Rating{
		{CriterionID: 1, Note: 3, Respected: true},
		{CriterionID: 2, Note: 5, Respected: true},
		{CriterionID: 3, Note: 2, Respected: true},
		{CriterionID: 4, Note: 9, Respected: false},
	}

	got := Suggest(model.Project{}, ratings, testLookup())
	assert.Len(t, got.Recommendations, 4)

	inline := CriterionRecommendations(ratings, testLookup())
	assert.Equal(t, []string{
		"Consommation d'eau: set measurable resource and pollution reduction targets",
		"Emissions CO2: cut emissions and publish a verified carbon footprint",
		"Gouvernance: tighten governance controls and reporting transparency",
	}, inline)
}

func TestCriterionRecommendations_DuplicateCriterion(t *testing.T) {
	got := CriterionRecommendations([]model.Rating{
		{CriterionID: 2, Note: 1, Respected: false},
		{CriterionID: 2, Note: 4, Respected: true},
	}, testLookup())

	assert.Equal(t, []string{"Gouvernance: tighten governance controls and reporting transparency"}, got)
	assert.Empty(t, CriterionRecommendations(nil, testLookup()))
}

func TestApplyRemote(t *testing.T) {
	ratings := []model.Rating{
		{CriterionID: 1, Note: 8, Respected: true},
		{CriterionID: 2, Note: 2, Respected: false},
	}
	s := Suggest(model.Project{ID: 3}, ratings, testLookup())

	remote := decision.FromAnalysis(advisory.Analysis{
		PredictedESGScore: 70,
		CredibilityScore:  85,
		CarbonRisk:        " Low ",
		Recommendations:   "Install solar panels\n- Publish scope 3 data; Gouvernance: tighten governance controls and reporting transparency",
	})
	ApplyRemote(&s, remote)

	assert.Equal(t, decision.LabelApproved, s.Decision)
	assert.Equal(t, model.SourceRemote, s.Source)
	assert.InDelta(t, 0.85, s.Confidence, 1e-9)
	assert.Equal(t, "Low", s.CarbonRisk)
	require.NotNil(t, s.PredictedESG)
	assert.Equal(t, 70, *s.PredictedESG)
	assert.Equal(t, []string{
		"Gouvernance: tighten governance controls and reporting transparency",
		"Install solar panels",
		"Publish scope 3 data",
	}, s.Recommendations)
	assert.Contains(t, s.Conclusion, "Recommended for approval")
	assert.Contains(t, s.Conclusion, "Advisory service predicts ESG 70/100 with low carbon risk.")
}

func TestApplyRemote_LocalResultIgnored(t *testing.T) {
	s := Suggest(model.Project{}, []model.Rating{{CriterionID: 1, Note: 8, Respected: true}}, testLookup())
	before := s

	ApplyRemote(&s, decision.Local(1, 0))
	assert.Equal(t, before, s)

	ApplyRemote(nil, decision.Local(1, 0))
}
