package model

// Category is the ESG bucket a criterion falls into.
type Category string

// Category constants, in classification order.
const (
	CategoryEnvCO2 Category = "ENV_CO2"
	CategoryEnv    Category = "ENV"
	CategorySocial Category = "SOC"
	CategoryGov    Category = "GOV"
	CategoryOther  Category = "OTHER"
)

// Pillar is one of the three ESG pillars.
type Pillar string

// Pillar constants.
const (
	PillarEnvironmental Pillar = "E"
	PillarSocial        Pillar = "S"
	PillarGovernance    Pillar = "G"
)

// Pillar folds a category into its ESG pillar. OTHER belongs to no pillar.
func (c Category) Pillar() (Pillar, bool) {
	switch c {
	case CategoryEnvCO2, CategoryEnv:
		return PillarEnvironmental, true
	case CategorySocial:
		return PillarSocial, true
	case CategoryGov:
		return PillarGovernance, true
	default:
		return "", false
	}
}

// IsEnvironmental reports whether the category is ENV or ENV_CO2.
func (c Category) IsEnvironmental() bool {
	return c == CategoryEnvCO2 || c == CategoryEnv
}
