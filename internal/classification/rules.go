package classification

import "github.com/Veraticus/carbon-audit/internal/model"

// DefaultRules returns the keyword table used to classify criteria, in match order.
// ENV_CO2 must stay ahead of ENV: "émission carbone" is a CO2 criterion even though
// it would also match several environmental keywords.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: model.CategoryEnvCO2,
			Keywords: []string{"co2", "émission", "carbone", "ghg", "scope"},
		},
		{
			Category: model.CategoryEnv,
			Keywords: []string{"eau", "énergie", "déchet", "biodivers", "pollution", "air", "sol", "renouvel", "ressource"},
		},
		{
			Category: model.CategorySocial,
			Keywords: []string{"social", "emploi", "santé", "sécurité", "inclusion", "commun", "égalité", "formation"},
		},
		{
			Category: model.CategoryGov,
			Keywords: []string{"gouvernance", "compliance", "audit", "éthique", "transparence", "risque", "conform"},
		},
	}
}
