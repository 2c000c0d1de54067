// Package catalog manages the reference criteria that evaluations are rated against.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/carbon-audit/internal/classification"
	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/service"
)

// Catalog validates and persists criteria.
type Catalog struct {
	store service.CriteriaStore
}

// New creates a catalog backed by the given store.
func New(store service.CriteriaStore) *Catalog {
	return &Catalog{store: store}
}

// List returns every criterion in the catalog.
func (c *Catalog) List(ctx context.Context) ([]model.CriterionReference, error) {
	criteria, err := c.store.GetCriteria(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return criteria, nil
}

// Add validates and stores a new criterion. Nothing is written when validation fails.
func (c *Catalog) Add(ctx context.Context, name, description string, weight int) (*model.CriterionReference, error) {
	criterion := &model.CriterionReference{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Weight:      weight,
	}
	if err := criterion.Validate(); err != nil {
		return nil, err
	}

	if err := c.store.CreateCriterion(ctx, criterion); err != nil {
		return nil, fmt.Errorf("failed to create criterion: %w", err)
	}

	slog.Info("added criterion",
		"id", criterion.ID,
		"name", criterion.Name,
		"weight", criterion.Weight,
		"category", classification.Classify(criterion.Name, criterion.Description))
	return criterion, nil
}

// Edit replaces a criterion's name, description and weight.
func (c *Catalog) Edit(ctx context.Context, id int64, name, description string, weight int) (*model.CriterionReference, error) {
	existing, err := c.store.GetCriterionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load criterion %d: %w", id, err)
	}

	updated := *existing
	updated.Name = strings.TrimSpace(name)
	updated.Description = strings.TrimSpace(description)
	updated.Weight = weight
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := c.store.UpdateCriterion(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update criterion %d: %w", id, err)
	}

	slog.Info("updated criterion", "id", id, "name", updated.Name, "weight", updated.Weight)
	return &updated, nil
}

// Remove deletes a criterion. Ratings that still reference it are left alone;
// lookups for the orphaned id fall back to weight 1 and category OTHER.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	if err := c.store.DeleteCriterion(ctx, id); err != nil {
		return fmt.Errorf("failed to delete criterion %d: %w", id, err)
	}
	slog.Info("removed criterion", "id", id)
	return nil
}

// Snapshot loads the full catalog into a Lookup for one computation.
func (c *Catalog) Snapshot(ctx context.Context) (*Lookup, error) {
	criteria, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewLookup(criteria), nil
}
