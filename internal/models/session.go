package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionKind string

const (
	SessionKindPractice SessionKind = "quiz"
	SessionKindMockExam SessionKind = "mock_exam"
)

// StudySession is one quiz run. TotalQuestions is fixed when the question set
// is finalized; CorrectAnswers and CompletedAt are set once at completion.
type StudySession struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	UserID         string         `json:"user_id" gorm:"not null;size:255;index:idx_sessions_user_completed"`
	Kind           SessionKind    `json:"session_type" gorm:"column:session_type;not null;size:20;default:quiz"`
	Subject        string         `json:"subject" gorm:"not null;size:200"`
	Topics         datatypes.JSON `json:"topics" gorm:"type:jsonb"`
	RequestedCount int            `json:"requested_count" gorm:"not null;default:0"`
	TotalQuestions int            `json:"total_questions" gorm:"not null;default:0"`
	CorrectAnswers int            `json:"correct_answers" gorm:"not null;default:0"`
	StartedAt      time.Time      `json:"started_at" gorm:"not null"`
	CompletedAt    *time.Time     `json:"completed_at" gorm:"index:idx_sessions_user_completed"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}

func (s *StudySession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *StudySession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// SetTopics stores the selected topics as a JSON array.
func (s *StudySession) SetTopics(topics []string) error {
	if topics == nil {
		topics = []string{}
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return err
	}
	s.Topics = datatypes.JSON(data)
	return nil
}

// TopicList decodes the stored topic selection. Malformed data yields nil.
func (s *StudySession) TopicList() []string {
	if len(s.Topics) == 0 {
		return nil
	}
	var topics []string
	if err := json.Unmarshal(s.Topics, &topics); err != nil {
		return nil
	}
	return topics
}
