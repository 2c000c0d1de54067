package catalog

import (
	"fmt"

	"github.com/Veraticus/carbon-audit/internal/classification"
	"github.com/Veraticus/carbon-audit/internal/model"
)

// Entry is the resolved view of a criterion used during computation.
type Entry struct {
	Name        string
	Description string
	Category    model.Category
	ID          int64
	Weight      int
	Known       bool
}

// Lookup is an immutable snapshot of the catalog keyed by criterion id.
// It is safe for concurrent use.
type Lookup struct {
	entries map[int64]Entry
}

// NewLookup builds a snapshot from the given criteria, classifying each one.
func NewLookup(criteria []model.CriterionReference) *Lookup {
	entries := make(map[int64]Entry, len(criteria))
	for _, c := range criteria {
		weight := c.Weight
		if weight < model.MinWeight {
			weight = model.MinWeight
		}
		entries[c.ID] = Entry{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Weight:      weight,
			Category:    classification.Classify(c.Name, c.Description),
			Known:       true,
		}
	}
	return &Lookup{entries: entries}
}

// Resolve returns the entry for a criterion id. Unknown ids (for example a
// criterion removed after it was rated) resolve to weight 1, category OTHER.
func (l *Lookup) Resolve(id int64) Entry {
	if l != nil {
		if e, ok := l.entries[id]; ok {
			return e
		}
	}
	return Entry{
		ID:       id,
		Name:     fmt.Sprintf("Criterion #%d", id),
		Weight:   model.MinWeight,
		Category: model.CategoryOther,
	}
}

// Len returns the number of known criteria.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
