package models

import "time"

// SurveyCompletion is a ledger entry proving a user submitted a survey once.
type SurveyCompletion struct {
	ID          string    `db:"id" json:"id"`
	SurveyID    string    `db:"survey_id" json:"surveyId"`
	UserID      string    `db:"user_id" json:"userId"`
	CompletedAt time.Time `db:"completed_at" json:"completedAt"`
}

// SubmissionStep is one pre-validated mutation applied inside a submission.
// Exactly one of Option and Response is meaningful, chosen by Type.
type SubmissionStep struct {
	QuestionID string
	Type       QuestionType
	Option     int
	Response   string
}

// SubmissionPlan is the full set of mutations for one respondent.
type SubmissionPlan struct {
	SurveyID string
	UserID   string
	Steps    []SubmissionStep
}

// SurveyResult is the exported projection of a survey and its aggregates.
type SurveyResult struct {
	Survey          Survey     `json:"survey"`
	SurveyQuestions []Question `json:"surveyQuestions"`
}
