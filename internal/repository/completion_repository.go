package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/survey-api/internal/models"
)

// CompletionRepository owns the completion ledger and applies submissions.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs a CompletionRepository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Exists reports whether userID already completed surveyID.
func (r *CompletionRepository) Exists(ctx context.Context, surveyID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM survey_completions WHERE survey_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, surveyID, userID); err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return exists, nil
}

// RecordSubmission writes the ledger entry and every tally or response change in one
// transaction. The ledger insert runs first so a concurrent duplicate blocks on the
// unique index and then reports ErrAlreadyCompleted without touching any aggregate.
func (r *CompletionRepository) RecordSubmission(ctx context.Context, plan models.SubmissionPlan) (*models.SurveyCompletion, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}
	completion, err := r.recordTx(ctx, tx, plan)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}
	return completion, nil
}

func (r *CompletionRepository) recordTx(ctx context.Context, tx *sqlx.Tx, plan models.SubmissionPlan) (*models.SurveyCompletion, error) {
	completion := &models.SurveyCompletion{
		ID:          uuid.NewString(),
		SurveyID:    plan.SurveyID,
		UserID:      plan.UserID,
		CompletedAt: time.Now().UTC(),
	}
	const ledger = `INSERT INTO survey_completions (id, survey_id, user_id, completed_at) VALUES ($1, $2, $3, $4) ON CONFLICT (survey_id, user_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, ledger, completion.ID, completion.SurveyID, completion.UserID, completion.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check completion rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrAlreadyCompleted
	}

	for _, step := range plan.Steps {
		if err := applyStep(ctx, tx, plan.SurveyID, step, completion.CompletedAt); err != nil {
			return nil, &QuestionWriteError{QuestionID: step.QuestionID, Err: err}
		}
	}
	return completion, nil
}

func applyStep(ctx context.Context, tx *sqlx.Tx, surveyID string, step models.SubmissionStep, now time.Time) error {
	var (
		res sql.Result
		err error
	)
	switch step.Type {
	case models.QuestionTypeMultipleChoice:
		// Postgres arrays are 1-based.
		const query = `UPDATE questions SET tally[$3] = tally[$3] + 1, updated_at = $4 WHERE id = $1 AND survey_id = $2 AND question_type = 'MC'`
		res, err = tx.ExecContext(ctx, query, step.QuestionID, surveyID, step.Option+1, now)
	case models.QuestionTypeFreeText:
		const query = `UPDATE questions SET responses = array_append(responses, $3::text), updated_at = $4 WHERE id = $1 AND survey_id = $2 AND question_type = 'FT'`
		res, err = tx.ExecContext(ctx, query, step.QuestionID, surveyID, step.Response, now)
	default:
		return fmt.Errorf("unknown question type %q", step.Type)
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
