package models

import "time"

// TopicStat is the rolling accuracy counter for a user on a subject/topic.
// An empty Topic is the subject-level row, distinct from any topic row.
type TopicStat struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_topic_stats_key"`
	Subject         string    `json:"subject" gorm:"not null;size:200;uniqueIndex:idx_topic_stats_key"`
	Topic           string    `json:"topic" gorm:"not null;size:200;default:'';uniqueIndex:idx_topic_stats_key"`
	TotalAttempts   int       `json:"total_attempts" gorm:"not null;default:0"`
	CorrectAttempts int       `json:"correct_attempts" gorm:"not null;default:0"`
	AccuracyRate    float64   `json:"accuracy_rate" gorm:"not null;default:0;index"`
	LastAttemptAt   time.Time `json:"last_attempt_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TopicStat) TableName() string {
	return "topic_stats"
}

// StatKey identifies a TopicStat row.
type StatKey struct {
	UserID  string `json:"user_id"`
	Subject string `json:"subject"`
	Topic   string `json:"topic,omitempty"`
}

// SubjectKey returns the subject-level key for the same user and subject.
func (k StatKey) SubjectKey() StatKey {
	return StatKey{UserID: k.UserID, Subject: k.Subject}
}

func (k StatKey) IsSubjectLevel() bool {
	return k.Topic == ""
}

func (t *TopicStat) Key() StatKey {
	return StatKey{UserID: t.UserID, Subject: t.Subject, Topic: t.Topic}
}

func (t *TopicStat) IsSubjectLevel() bool {
	return t.Topic == ""
}

// CalculateAccuracy returns 100*correct/total, or 0 when total is 0.
func CalculateAccuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}
