package models

import (
	"time"

	"github.com/lib/pq"
)

// QuestionType distinguishes multiple choice from free text questions.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MC"
	QuestionTypeFreeText       QuestionType = "FT"
)

// TallySlots is the fixed length of a multiple choice tally.
const TallySlots = 5

// Bounds on the number of options of a multiple choice question.
const (
	MinAnswerNum = 2
	MaxAnswerNum = TallySlots
)

// Question is one ordered entry of a survey together with its aggregate.
type Question struct {
	ID              string         `db:"id" json:"id"`
	SurveyID        string         `db:"survey_id" json:"surveyId"`
	Order           int            `db:"question_order" json:"questionOrder"`
	Type            QuestionType   `db:"question_type" json:"questionType"`
	Name            string         `db:"name" json:"name"`
	AnswerNum       *int           `db:"answer_num" json:"answerNum,omitempty"`
	PossibleAnswers pq.StringArray `db:"possible_answers" json:"possibleAnswers"`
	Tally           pq.Int64Array  `db:"tally" json:"tally"`
	Responses       pq.StringArray `db:"responses" json:"responses"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsMultipleChoice reports whether the question tallies option indexes.
func (q Question) IsMultipleChoice() bool {
	return q.Type == QuestionTypeMultipleChoice
}

// Options returns the number of selectable options, zero for free text.
func (q Question) Options() int {
	if q.AnswerNum == nil {
		return 0
	}
	return *q.AnswerNum
}

// EmptyTally returns a zeroed tally of TallySlots entries.
func EmptyTally() pq.Int64Array {
	return make(pq.Int64Array, TallySlots)
}
