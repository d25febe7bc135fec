package cache

import "fmt"

const keyPrefix = "survey-api"

// ActiveSurveysKey caches the public listing of ACTIVE surveys.
func ActiveSurveysKey() string {
	return keyPrefix + ":surveys:active"
}

// SurveyQuestionsKey caches the ordered question list of one survey.
func SurveyQuestionsKey(surveyID string) string {
	return fmt.Sprintf("%s:surveys:%s:questions", keyPrefix, surveyID)
}

// SurveyPattern matches every cached projection of one survey.
func SurveyPattern(surveyID string) string {
	return fmt.Sprintf("%s:surveys:%s:*", keyPrefix, surveyID)
}
