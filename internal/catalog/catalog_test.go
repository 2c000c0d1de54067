package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
	"github.com/Veraticus/carbon-audit/internal/testutil"
)

func TestCatalog_AddEditRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := New(db.Storage)
	ctx := context.Background()

	added, err := c.Add(ctx, "  Emissions CO2 ", " Tonnes évitées ", 5)
	require.NoError(t, err)
	assert.Equal(t, "Emissions CO2", added.Name)
	assert.Equal(t, "Tonnes évitées", added.Description)

	edited, err := c.Edit(ctx, added.ID, "Bilan carbone", "Scope 1, 2 et 3", 8)
	require.NoError(t, err)
	assert.Equal(t, added.ID, edited.ID)
	assert.Equal(t, 8, edited.Weight)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bilan carbone", list[0].Name)

	require.NoError(t, c.Remove(ctx, added.ID))
	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, c.Remove(ctx, added.ID), common.ErrNotFound)
}

func TestCatalog_AddValidation(t *testing.T) {
	tests := []struct {
		name        string
		criterion   string
		description string
		wantField   string
		weight      int
	}{
		{name: "name too short", criterion: "CO2", description: "Tonnes évitées", weight: 5, wantField: "name"},
		{name: "name too long", criterion: "Emissions de gaz à effet de serre", description: "Tonnes évitées", weight: 5, wantField: "name"},
		{name: "description too short", criterion: "Emissions CO2", description: "court", weight: 5, wantField: "description"},
		{name: "weight zero", criterion: "Emissions CO2", description: "Tonnes évitées", weight: 0, wantField: "weight"},
		{name: "weight eleven", criterion: "Emissions CO2", description: "Tonnes évitées", weight: 11, wantField: "weight"},
		{name: "whitespace padded short name", criterion: "   CO2    ", description: "Tonnes évitées", weight: 5, wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			c := New(db.Storage)
			ctx := context.Background()

			_, err := c.Add(ctx, tt.criterion, tt.description, tt.weight)
			var validationErr *common.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)

			list, err := c.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list, "nothing should be written on validation failure")
		})
	}
}

func TestCatalog_EditValidationKeepsOriginal(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.DefaultCriteria()...)
	c := New(db.Storage)
	ctx := context.Background()
	id := db.MustCriterionID(testutil.CriterionCO2)

	_, err := c.Edit(ctx, id, testutil.CriterionCO2, "Tonnes évitées par an", 42)
	assert.ErrorIs(t, err, common.ErrValidation)

	stored, err := db.Storage.GetCriterionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Weight)

	_, err = c.Edit(ctx, 999, "Emissions CO2", "Tonnes évitées", 5)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCatalog_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.DefaultCriteria()...)
	c := New(db.Storage)

	_, err := c.Add(context.Background(), testutil.CriterionCO2, "Another description", 3)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCatalog_Snapshot(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.DefaultCriteria()...)
	c := New(db.Storage)

	lookup, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, lookup.Len())

	tests := []struct {
		name      string
		want      model.Category
		wantW     int
		criterion string
	}{
		{name: "co2", criterion: testutil.CriterionCO2, want: model.CategoryEnvCO2, wantW: 5},
		{name: "water", criterion: testutil.CriterionWater, want: model.CategoryEnv, wantW: 3},
		{name: "jobs", criterion: testutil.CriterionJobs, want: model.CategorySocial, wantW: 4},
		{name: "governance", criterion: testutil.CriterionGovernance, want: model.CategoryGov, wantW: 2},
		{name: "visitors", criterion: testutil.CriterionVisitors, want: model.CategoryOther, wantW: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := lookup.Resolve(db.MustCriterionID(tt.criterion))
			assert.True(t, e.Known)
			assert.Equal(t, tt.want, e.Category)
			assert.Equal(t, tt.wantW, e.Weight)
		})
	}
}

func TestLookup_Resolve(t *testing.T) {
	lookup := NewLookup([]model.CriterionReference{
		{ID: 1, Name: "Emissions CO2", Description: "Tonnes évitées", Weight: 0},
	})

	known := lookup.Resolve(1)
	assert.True(t, known.Known)
	assert.Equal(t, model.MinWeight, known.Weight, "weight is clamped to at least 1")

	missing := lookup.Resolve(42)
	assert.False(t, missing.Known)
	assert.Equal(t, "Criterion #42", missing.Name)
	assert.Equal(t, 1, missing.Weight)
	assert.Equal(t, model.CategoryOther, missing.Category)

	var nilLookup *Lookup
	assert.Equal(t, model.CategoryOther, nilLookup.Resolve(1).Category)
	assert.Equal(t, 0, nilLookup.Len())
}
