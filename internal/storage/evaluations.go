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

const evaluationColumns = `id, project_id, decision, observations, score, created_at`

// CreateEvaluation stores an evaluation and its ratings in one transaction.
// The evaluation must already carry its derived score.
func (s *SQLiteStorage) CreateEvaluation(ctx context.Context, evaluation *model.Evaluation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEvaluation(evaluation); err != nil {
		return err
	}

	now := time.Now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO evaluations (project_id, decision, observations, score, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			evaluation.ProjectID, evaluation.Decision, evaluation.Observations, evaluation.Score, now)
		if err != nil {
			return fmt.Errorf("failed to insert evaluation: %w", translateError(err))
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get evaluation ID: %w", err)
		}

		if err := insertRatings(ctx, tx, id, evaluation.Ratings); err != nil {
			return err
		}

		evaluation.ID = id
		return nil
	})
	if err != nil {
		return err
	}

	evaluation.CreatedAt = now
	slog.Debug("created evaluation",
		"id", evaluation.ID,
		"project_id", evaluation.ProjectID,
		"ratings", len(evaluation.Ratings))
	return nil
}

// UpdateEvaluation replaces an evaluation's decision, observations, score and
// ratings. The owning project cannot change.
func (s *SQLiteStorage) UpdateEvaluation(ctx context.Context, evaluation *model.Evaluation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEvaluation(evaluation); err != nil {
		return err
	}
	if err := validateID(evaluation.ID, "evaluation.ID"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE evaluations
			SET decision = ?, observations = ?, score = ?
			WHERE id = ? AND project_id = ?`,
			evaluation.Decision, evaluation.Observations, evaluation.Score,
			evaluation.ID, evaluation.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to update evaluation: %w", err)
		}
		if err := checkAffected(result, "evaluation", evaluation.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM ratings WHERE evaluation_id = ?`, evaluation.ID); err != nil {
			return fmt.Errorf("failed to clear ratings: %w", err)
		}
		return insertRatings(ctx, tx, evaluation.ID, evaluation.Ratings)
	})
}

// DeleteEvaluation removes an evaluation and its ratings.
func (s *SQLiteStorage) DeleteEvaluation(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ratings WHERE evaluation_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete ratings: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete evaluation: %w", err)
		}
		return checkAffected(result, "evaluation", id)
	})
}

// GetEvaluation returns an evaluation with its ratings or common.ErrNotFound.
func (s *SQLiteStorage) GetEvaluation(ctx context.Context, id int64) (*model.Evaluation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id)
	return s.loadEvaluation(ctx, row, fmt.Sprintf("evaluation %d", id))
}

// GetLatestEvaluation returns the project's evaluation with the highest id.
func (s *SQLiteStorage) GetLatestEvaluation(ctx context.Context, projectID int64) (*model.Evaluation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(projectID, "projectID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE project_id = ?
		ORDER BY id DESC
		LIMIT 1`, projectID)
	return s.loadEvaluation(ctx, row, fmt.Sprintf("latest evaluation for project %d", projectID))
}

// GetEvaluationsByProject returns a project's evaluations, oldest first.
func (s *SQLiteStorage) GetEvaluationsByProject(ctx context.Context, projectID int64) ([]model.Evaluation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(projectID, "projectID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE project_id = ?
		ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []model.Evaluation
	index := make(map[int64]int)
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		index[e.ID] = len(evaluations)
		evaluations = append(evaluations, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluations: %w", err)
	}
	if len(evaluations) == 0 {
		return evaluations, nil
	}

	ratingRows, err := s.db.QueryContext(ctx, `
		SELECT r.evaluation_id, r.criterion_id, r.note, r.respected, r.comment
		FROM ratings r
		JOIN evaluations e ON e.id = r.evaluation_id
		WHERE e.project_id = ?
		ORDER BY r.evaluation_id, r.position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer ratingRows.Close()

	for ratingRows.Next() {
		var (
			evaluationID int64
			r            model.Rating
		)
		if err := ratingRows.Scan(&evaluationID, &r.CriterionID, &r.Note, &r.Respected, &r.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		if i, ok := index[evaluationID]; ok {
			evaluations[i].Ratings = append(evaluations[i].Ratings, r)
		}
	}
	if err := ratingRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return evaluations, nil
}

func (s *SQLiteStorage) loadEvaluation(ctx context.Context, row rowScanner, what string) (*model.Evaluation, error) {
	e, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation: %w", err)
	}

	ratings, err := s.getRatings(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Ratings = ratings
	return &e, nil
}

func (s *SQLiteStorage) getRatings(ctx context.Context, evaluationID int64) ([]model.Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT criterion_id, note, respected, comment
		FROM ratings
		WHERE evaluation_id = ?
		ORDER BY position`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []model.Rating
	for rows.Next() {
		var r model.Rating
		if err := rows.Scan(&r.CriterionID, &r.Note, &r.Respected, &r.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return ratings, nil
}

func scanEvaluation(row rowScanner) (model.Evaluation, error) {
	var e model.Evaluation
	err := row.Scan(&e.ID, &e.ProjectID, &e.Decision, &e.Observations, &e.Score, &e.CreatedAt)
	return e, err
}

func insertRatings(ctx context.Context, tx *sql.Tx, evaluationID int64, ratings []model.Rating) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ratings (evaluation_id, position, criterion_id, note, respected, comment)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare rating insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range ratings {
		if _, err := stmt.ExecContext(ctx, evaluationID, i, r.CriterionID, r.Note, r.Respected, r.Comment); err != nil {
			return fmt.Errorf("failed to insert rating %d: %w", i, err)
		}
	}
	return nil
}
