package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/survey-api/internal/models"
)

const questionColumns = `id, survey_id, question_order, question_type, name, answer_num, possible_answers, tally, responses, created_at, updated_at`

// QuestionRepository persists ordered survey questions and their aggregates.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs a QuestionRepository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// lockSurvey serialises order-changing writes of one survey.
func lockSurvey(ctx context.Context, tx *sqlx.Tx, surveyID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM surveys WHERE id = $1 FOR UPDATE`, surveyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock survey: %w", err)
	}
	return nil
}

// Create appends a question at position count+1 of its survey.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now
	if question.Tally == nil {
		question.Tally = models.EmptyTally()
	}
	if question.PossibleAnswers == nil {
		question.PossibleAnswers = pq.StringArray{}
	}
	if question.Responses == nil {
		question.Responses = pq.StringArray{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create question: %w", err)
	}
	if err := r.createTx(ctx, tx, question); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) createTx(ctx context.Context, tx *sqlx.Tx, question *models.Question) error {
	if err := lockSurvey(ctx, tx, question.SurveyID); err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &question.Order, `SELECT COUNT(*) + 1 FROM questions WHERE survey_id = $1`, question.SurveyID); err != nil {
		return fmt.Errorf("next question order: %w", err)
	}
	const insert = `INSERT INTO questions (id, survey_id, question_order, question_type, name, answer_num, possible_answers, tally, responses, created_at, updated_at) VALUES (:id, :survey_id, :question_order, :question_type, :name, :answer_num, :possible_answers, :tally, :responses, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, question); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// FindByID returns a question by id.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := fmt.Sprintf("SELECT %s FROM questions WHERE id = $1", questionColumns)
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &question, nil
}

// ListBySurvey returns the questions of a survey ordered by position.
func (r *QuestionRepository) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error) {
	query := fmt.Sprintf("SELECT %s FROM questions WHERE survey_id = $1 ORDER BY question_order ASC", questionColumns)
	questions := make([]models.Question, 0)
	if err := r.db.SelectContext(ctx, &questions, query, surveyID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// ExistsByName reports whether name is used by another question of the survey.
func (r *QuestionRepository) ExistsByName(ctx context.Context, surveyID, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM questions WHERE survey_id = $1 AND name = $2 AND id::text <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, surveyID, name, excludeID); err != nil {
		return false, fmt.Errorf("check question name: %w", err)
	}
	return exists, nil
}

func execOne(ctx context.Context, db sqlx.ExecerContext, label, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("%s: %w", label, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", label, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Update rewrites label, option count and option labels. Tally slots at or beyond the
// new option count are zeroed in place so concurrent increments are never lost.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE questions SET name = $2, answer_num = $3, possible_answers = $4,
        tally = ARRAY(SELECT CASE WHEN s.i <= COALESCE($3::int, 0) THEN questions.tally[s.i] ELSE 0 END FROM generate_series(1, 5) AS s(i) ORDER BY s.i),
        updated_at = $5 WHERE id = $1`
	return execOne(ctx, r.db, "update question", query, question.ID, question.Name, question.AnswerNum, question.PossibleAnswers, question.UpdatedAt)
}

// UpdateName renames a question.
func (r *QuestionRepository) UpdateName(ctx context.Context, id, name string) error {
	const query = `UPDATE questions SET name = $2, updated_at = $3 WHERE id = $1`
	return execOne(ctx, r.db, "rename question", query, id, name, time.Now().UTC())
}

// UpdatePossibleAnswers replaces the option labels of a multiple choice question.
func (r *QuestionRepository) UpdatePossibleAnswers(ctx context.Context, id string, answers []string) error {
	const query = `UPDATE questions SET possible_answers = $2, updated_at = $3 WHERE id = $1 AND question_type = 'MC'`
	return execOne(ctx, r.db, "update possible answers", query, id, pq.StringArray(answers), time.Now().UTC())
}

// Delete removes a question and shifts every later question of the survey down by one.
func (r *QuestionRepository) Delete(ctx context.Context, surveyID, questionID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete question: %w", err)
	}
	if err := r.deleteTx(ctx, tx, surveyID, questionID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) deleteTx(ctx context.Context, tx *sqlx.Tx, surveyID, questionID string) error {
	if err := lockSurvey(ctx, tx, surveyID); err != nil {
		return err
	}
	var order int
	if err := tx.GetContext(ctx, &order, `DELETE FROM questions WHERE id = $1 AND survey_id = $2 RETURNING question_order`, questionID, surveyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("delete question: %w", err)
	}
	const renumber = `UPDATE questions SET question_order = question_order - 1, updated_at = $3 WHERE survey_id = $1 AND question_order > $2`
	if _, err := tx.ExecContext(ctx, renumber, surveyID, order, time.Now().UTC()); err != nil {
		return fmt.Errorf("renumber questions: %w", err)
	}
	return nil
}

// DeleteBySurvey removes every question of a survey and returns how many were removed.
func (r *QuestionRepository) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE survey_id = $1`, surveyID)
	if err != nil {
		return 0, fmt.Errorf("delete survey questions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check survey questions delete rows: %w", err)
	}
	return affected, nil
}
