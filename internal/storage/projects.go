package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
)

const projectColumns = `id, name, description, sector, budget, status, esg_score, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p        model.Project
		esgScore sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Sector, &p.Budget, &p.Status, &esgScore, &p.CreatedAt); err != nil {
		return p, err
	}
	if esgScore.Valid {
		v := int(esgScore.Int64)
		p.ESGScore = &v
	}
	return p, nil
}

// CreateProject inserts a project, defaulting its status to PENDING.
func (s *SQLiteStorage) CreateProject(ctx context.Context, project *model.Project) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProject(project); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, sector, budget, status, esg_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.Name, project.Description, project.Sector, project.Budget,
		project.Status, nullableInt(project.ESGScore), now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get project ID: %w", err)
	}

	project.ID = id
	project.CreatedAt = now
	return nil
}

// GetProject returns a project or common.ErrNotFound.
func (s *SQLiteStorage) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return &p, nil
}

// GetProjects returns every project ordered by id.
func (s *SQLiteStorage) GetProjects(ctx context.Context) ([]model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// UpdateProjectESGScore writes the project's ESG score, or NULL when score is nil.
func (s *SQLiteStorage) UpdateProjectESGScore(ctx context.Context, id int64, score *int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if score != nil && (*score < 0 || *score > 100) {
		return fmt.Errorf("%w: esg score %d out of range", ErrInvalidProject, *score)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE projects SET esg_score = ? WHERE id = ?`, nullableInt(score), id)
	if err != nil {
		return fmt.Errorf("failed to update project esg score: %w", err)
	}
	return checkAffected(result, "project", id)
}

// UpdateProjectStatus changes a project's lifecycle status.
func (s *SQLiteStorage) UpdateProjectStatus(ctx context.Context, id int64, status model.ProjectStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE projects SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	return checkAffected(result, "project", id)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
