package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionAttempt is one answered question inside a session. It is immutable
// once written except for AggregatedAt, which records that the attempt has
// been folded into the topic statistics.
type QuestionAttempt struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	SessionID     string     `json:"session_id" gorm:"not null;size:36;uniqueIndex:idx_attempts_session_position"`
	QuestionIndex int        `json:"question_index" gorm:"not null;uniqueIndex:idx_attempts_session_position"`
	UserID        string     `json:"user_id" gorm:"not null;size:255;index"`
	QuestionID    uint       `json:"question_id" gorm:"not null"`
	Subject       string     `json:"subject" gorm:"not null;size:200"`
	Topic         string     `json:"topic" gorm:"not null;size:200;default:''"`
	ChosenOption  string     `json:"user_answer" gorm:"column:user_answer;not null;size:1"`
	CorrectOption string     `json:"correct_answer" gorm:"column:correct_answer;not null;size:1"`
	IsCorrect     bool       `json:"is_correct" gorm:"not null"`
	AnsweredAt    time.Time  `json:"answered_at" gorm:"not null"`
	AggregatedAt  *time.Time `json:"aggregated_at,omitempty"`

	Session StudySession `json:"-" gorm:"foreignKey:SessionID"`
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}

func (a *QuestionAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// StatKey is the topic statistics key this attempt contributes to.
func (a *QuestionAttempt) StatKey() StatKey {
	return StatKey{UserID: a.UserID, Subject: a.Subject, Topic: a.Topic}
}
