package models

import "time"

// SurveyStatus is the lifecycle state of a survey.
type SurveyStatus string

const (
	SurveyStatusActive   SurveyStatus = "ACTIVE"
	SurveyStatusInactive SurveyStatus = "INACTIVE"
	SurveyStatusExpired  SurveyStatus = "EXPIRED"
)

// Survey is the metadata row of a questionnaire.
type Survey struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	OwnerID    string       `db:"owner_id" json:"ownerId"`
	DateExpire *time.Time   `db:"date_expire" json:"dateExpire,omitempty"`
	Status     SurveyStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updatedAt"`
}

// ExpiredAt reports whether the expiration timestamp lies strictly before now.
func (s Survey) ExpiredAt(now time.Time) bool {
	return s.DateExpire != nil && s.DateExpire.Before(now)
}

// AcceptsSubmissions reports whether respondents may submit at now.
func (s Survey) AcceptsSubmissions(now time.Time) bool {
	return s.Status == SurveyStatusActive && !s.ExpiredAt(now)
}

// StatusForExpiry derives the status implied by an expiration date.
func StatusForExpiry(dateExpire *time.Time, now time.Time) SurveyStatus {
	if dateExpire != nil && dateExpire.Before(now) {
		return SurveyStatusExpired
	}
	return SurveyStatusActive
}
