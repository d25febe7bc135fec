package dto

import "time"

// CreateSurveyRequest defines the payload for creating a survey.
type CreateSurveyRequest struct {
	Name       string     `json:"name" validate:"required,max=200"`
	DateExpire *time.Time `json:"dateExpire"`
}

// UpdateSurveyRequest changes a survey name and/or expiration date.
type UpdateSurveyRequest struct {
	Name       *string    `json:"name" validate:"omitempty,min=1,max=200"`
	DateExpire *time.Time `json:"dateExpire"`
}

// CompletionCheckResponse answers whether the caller already submitted.
type CompletionCheckResponse struct {
	Answer string `json:"answer"`
}

// Completion probe answers.
const (
	CompletionYes = "Yes"
	CompletionNo  = "No"
)
