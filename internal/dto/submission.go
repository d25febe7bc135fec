package dto

import "encoding/json"

// SubmissionRequest maps question ids to raw answers. Multiple choice answers are
// option indexes given as a JSON number or numeric string; free text answers are strings.
type SubmissionRequest map[string]json.RawMessage

// SubmissionResponse confirms a recorded submission.
type SubmissionResponse struct {
	SurveyID  string `json:"surveyId"`
	Questions int    `json:"questions"`
	Message   string `json:"message"`
}
