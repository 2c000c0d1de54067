package testutil

import "github.com/Veraticus/carbon-audit/internal/model"

// Names of the default criteria, one per category.
const (
	CriterionCO2        = "Emissions CO2"
	CriterionWater      = "Consommation d'eau"
	CriterionJobs       = "Création d'emplois"
	CriterionGovernance = "Gouvernance"
	CriterionVisitors   = "Nombre de visites"
)

// DefaultCriteria returns a catalog covering ENV_CO2, ENV, SOC, GOV and OTHER.
func DefaultCriteria() []model.CriterionReference {
	return []model.CriterionReference{
		{Name: CriterionCO2, Description: "Tonnes évitées par an", Weight: 5},
		{Name: CriterionWater, Description: "Volume prélevé", Weight: 3},
		{Name: CriterionJobs, Description: "Postes créés localement", Weight: 4},
		{Name: CriterionGovernance, Description: "Comité indépendant", Weight: 2},
		{Name: CriterionVisitors, Description: "Compteur de visiteurs", Weight: 1},
	}
}
