package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrAlreadyCompleted is returned when the completion ledger already holds the survey/user pair.
	ErrAlreadyCompleted = errors.New("survey already completed by user")
	// ErrDuplicateName is returned when a question label collides within its survey.
	ErrDuplicateName = errors.New("duplicate question name")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// QuestionWriteError identifies the question whose aggregate could not be updated.
type QuestionWriteError struct {
	QuestionID string
	Err        error
}

func (e *QuestionWriteError) Error() string {
	return fmt.Sprintf("apply answer to question %s: %v", e.QuestionID, e.Err)
}

func (e *QuestionWriteError) Unwrap() error {
	return e.Err
}
