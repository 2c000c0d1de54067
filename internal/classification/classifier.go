// Package classification assigns rating criteria to ESG categories.
package classification

import (
	"strings"

	"github.com/Veraticus/carbon-audit/internal/model"
)

// Rule maps a set of lowercase keywords to a category.
type Rule struct {
	Category model.Category
	Keywords []string
}

// Classifier matches criteria against an ordered rule table. The first rule
// with a keyword contained in the criterion text wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules. Keywords are
// lowercased so callers may pass them in any case.
func NewClassifier(rules []Rule) *Classifier {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		normalized = append(normalized, Rule{Category: r.Category, Keywords: keywords})
	}
	return &Classifier{rules: normalized}
}

var defaultClassifier = NewClassifier(DefaultRules())

// Classify returns the category of a criterion using the default rule table.
func Classify(name, description string) model.Category {
	return defaultClassifier.Classify(name, description)
}

// Classify returns the category for a criterion's name and description,
// or OTHER when no keyword matches.
func (c *Classifier) Classify(name, description string) model.Category {
	text := strings.ToLower(name + " " + description)

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Category
			}
		}
	}

	return model.CategoryOther
}

// RuleCount returns the number of loaded rules.
func (c *Classifier) RuleCount() int {
	return len(c.rules)
}
