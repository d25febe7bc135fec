package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/survey-api/internal/models"
)

const surveyColumns = `id, name, owner_id, date_expire, status, created_at, updated_at`

// SurveyRepository persists survey metadata.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs a SurveyRepository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// Create inserts a survey.
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}
	survey.UpdatedAt = now
	const query = `INSERT INTO surveys (id, name, owner_id, date_expire, status, created_at, updated_at) VALUES (:id, :name, :owner_id, :date_expire, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, survey); err != nil {
		return fmt.Errorf("create survey: %w", err)
	}
	return nil
}

// FindByID returns a survey by id.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	query := fmt.Sprintf("SELECT %s FROM surveys WHERE id = $1", surveyColumns)
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	return &survey, nil
}

// ListActive returns every ACTIVE survey, newest first.
func (r *SurveyRepository) ListActive(ctx context.Context) ([]models.Survey, error) {
	query := fmt.Sprintf("SELECT %s FROM surveys WHERE status = $1 ORDER BY created_at DESC", surveyColumns)
	surveys := make([]models.Survey, 0)
	if err := r.db.SelectContext(ctx, &surveys, query, models.SurveyStatusActive); err != nil {
		return nil, fmt.Errorf("list active surveys: %w", err)
	}
	return surveys, nil
}

// ListByOwner returns every survey created by ownerID, newest first.
func (r *SurveyRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Survey, error) {
	query := fmt.Sprintf("SELECT %s FROM surveys WHERE owner_id = $1 ORDER BY created_at DESC", surveyColumns)
	surveys := make([]models.Survey, 0)
	if err := r.db.SelectContext(ctx, &surveys, query, ownerID); err != nil {
		return nil, fmt.Errorf("list surveys by owner: %w", err)
	}
	return surveys, nil
}

// Update writes name, expiration and status. The owner column is never touched.
func (r *SurveyRepository) Update(ctx context.Context, survey *models.Survey) error {
	survey.UpdatedAt = time.Now().UTC()
	const query = `UPDATE surveys SET name = :name, date_expire = :date_expire, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, survey)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check survey update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetManualStatus switches between ACTIVE and INACTIVE. It reports false when the
// survey is missing or already EXPIRED, in which case nothing changes.
func (r *SurveyRepository) SetManualStatus(ctx context.Context, id string, status models.SurveyStatus) (bool, error) {
	const query = `UPDATE surveys SET status = $2, updated_at = $3 WHERE id = $1 AND status <> 'EXPIRED'`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update survey status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check survey status rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a survey; questions follow through the foreign key cascade.
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check survey delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExpireOverdue flips every survey whose expiration lies before now to EXPIRED
// in a single statement and returns the ids it touched.
func (r *SurveyRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	const query = `UPDATE surveys SET status = 'EXPIRED', updated_at = $1 WHERE date_expire IS NOT NULL AND date_expire < $1 AND status <> 'EXPIRED' RETURNING id`
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("expire overdue surveys: %w", err)
	}
	return ids, nil
}
