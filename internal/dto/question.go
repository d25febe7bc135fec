package dto

// CreateQuestionRequest adds a question at the end of a survey.
type CreateQuestionRequest struct {
	QuestionType    string   `json:"questionType" validate:"required,oneof=MC FT"`
	Name            string   `json:"name" validate:"required,max=500"`
	AnswerNum       *int     `json:"answerNum"`
	PossibleAnswers []string `json:"possibleAnswers" validate:"omitempty,dive,required,max=200"`
}

// UpdateQuestionRequest rewrites a question. Free text questions only honour Name.
type UpdateQuestionRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=1,max=500"`
	AnswerNum       *int     `json:"answerNum"`
	PossibleAnswers []string `json:"possibleAnswers" validate:"omitempty,dive,required,max=200"`
}

// UpdateQuestionNameRequest renames a question.
type UpdateQuestionNameRequest struct {
	Name string `json:"name" validate:"required,max=500"`
}

// ReplaceOptionsRequest swaps the option labels of a multiple choice question.
type ReplaceOptionsRequest struct {
	NewPossibleAnswers []string `json:"newPossibleAnswers" validate:"required,dive,required,max=200"`
}
