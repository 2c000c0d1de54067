package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
)

// GetCriteria returns every criterion ordered by id.
func (s *SQLiteStorage) GetCriteria(ctx context.Context) ([]model.CriterionReference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, description, weight, created_at
		FROM criteria
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer rows.Close()

	var criteria []model.CriterionReference
	for rows.Next() {
		var c model.CriterionReference
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Weight, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		criteria = append(criteria, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating criteria: %w", err)
	}

	slog.Debug("retrieved criteria", "count", len(criteria))
	return criteria, nil
}

// GetCriterionByID returns a single criterion or common.ErrNotFound.
func (s *SQLiteStorage) GetCriterionByID(ctx context.Context, id int64) (*model.CriterionReference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, description, weight, created_at
		FROM criteria
		WHERE id = ?`

	var c model.CriterionReference
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.Weight, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("criterion %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query criterion: %w", err)
	}

	return &c, nil
}

// CreateCriterion inserts a criterion and sets its ID and CreatedAt.
func (s *SQLiteStorage) CreateCriterion(ctx context.Context, criterion *model.CriterionReference) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCriterion(criterion); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO criteria (name, description, weight, created_at)
		VALUES (?, ?, ?, ?)`,
		criterion.Name, criterion.Description, criterion.Weight, now)
	if err != nil {
		return fmt.Errorf("failed to create criterion: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get criterion ID: %w", err)
	}

	criterion.ID = id
	criterion.CreatedAt = now
	return nil
}

// UpdateCriterion replaces a criterion's name, description and weight.
func (s *SQLiteStorage) UpdateCriterion(ctx context.Context, criterion *model.CriterionReference) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCriterion(criterion); err != nil {
		return err
	}
	if err := validateID(criterion.ID, "criterion.ID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE criteria
		SET name = ?, description = ?, weight = ?
		WHERE id = ?`,
		criterion.Name, criterion.Description, criterion.Weight, criterion.ID)
	if err != nil {
		return fmt.Errorf("failed to update criterion: %w", translateError(err))
	}

	return checkAffected(result, "criterion", criterion.ID)
}

// DeleteCriterion removes a criterion. Ratings referencing it are kept.
func (s *SQLiteStorage) DeleteCriterion(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM criteria WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete criterion: %w", err)
	}

	return checkAffected(result, "criterion", id)
}
