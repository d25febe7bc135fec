package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

const incompleteSubmissionMessage = "all questions must be answered"

// canonicalID renders UUID keys in their lowercase hyphenated form. Other keys are kept as sent.
func canonicalID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

// canonicalAnswers rekeys answers by canonical question id. Two keys naming the same
// question make the submission ambiguous and are reported as not ok.
func canonicalAnswers(answers dto.SubmissionRequest) (dto.SubmissionRequest, bool) {
	out := make(dto.SubmissionRequest, len(answers))
	for key, raw := range answers {
		id := canonicalID(key)
		if _, dup := out[id]; dup {
			return nil, false
		}
		out[id] = raw
	}
	return out, true
}

// ValidateCompleteness succeeds only when the submitted keys are exactly the survey's question ids.
func ValidateCompleteness(questions []models.Question, answers dto.SubmissionRequest) error {
	keyed, ok := canonicalAnswers(answers)
	if !ok || len(questions) != len(keyed) {
		return appErrors.Clone(appErrors.ErrValidation, incompleteSubmissionMessage)
	}
	for _, q := range questions {
		if _, ok := keyed[canonicalID(q.ID)]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, incompleteSubmissionMessage)
		}
	}
	return nil
}

// BuildPlan turns a complete answer map into the ordered mutations of one submission.
// Every answer is checked against its question before anything is written.
func BuildPlan(surveyID, userID string, questions []models.Question, answers dto.SubmissionRequest) (models.SubmissionPlan, error) {
	keyed, ok := canonicalAnswers(answers)
	if !ok {
		return models.SubmissionPlan{}, appErrors.Clone(appErrors.ErrValidation, incompleteSubmissionMessage)
	}
	plan := models.SubmissionPlan{SurveyID: surveyID, UserID: userID, Steps: make([]models.SubmissionStep, 0, len(questions))}
	for _, q := range questions {
		raw := keyed[canonicalID(q.ID)]
		step := models.SubmissionStep{QuestionID: q.ID, Type: q.Type}
		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			idx, err := parseOptionIndex(raw)
			if err != nil {
				return models.SubmissionPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s: answer must be an option index", q.ID))
			}
			if idx < 0 || idx >= q.Options() || idx >= models.TallySlots {
				return models.SubmissionPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s: option %d is out of range", q.ID, idx))
			}
			step.Option = idx
		case models.QuestionTypeFreeText:
			var text string
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || trimmed[0] != '"' || json.Unmarshal(trimmed, &text) != nil {
				return models.SubmissionPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s: answer must be text", q.ID))
			}
			step.Response = text
		default:
			return models.SubmissionPlan{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s has unknown type %q", q.ID, q.Type))
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan, nil
}

// parseOptionIndex accepts an integral JSON number or a string holding one.
func parseOptionIndex(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	} else {
		text = string(raw)
	}
	return strconv.Atoi(text)
}
