package services

import (
	"bytes"
	"strconv"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/quiz"
)

// FlexibleCount accepts the question count as a JSON number or string.
// Anything that is not a positive integer decodes to 0, which the builder
// replaces with the default count.
type FlexibleCount int

func (c *FlexibleCount) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if raw == "null" {
		*c = 0
		return nil
	}
	*c = FlexibleCount(quiz.ParseQuestionCount(raw, 0, 0))
	return nil
}

func (c FlexibleCount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(c))), nil
}

// ===== REQUESTS =====

// StartSessionRequest configures a new quiz. Dedupe, when set, overrides the
// service default for dropping repeated question ids.
type StartSessionRequest struct {
	Subject string             `json:"subject" validate:"required,max=200"`
	Topics  []string           `json:"topics" validate:"omitempty,max=20,topic_list"`
	Count   FlexibleCount      `json:"count"`
	Kind    models.SessionKind `json:"session_type" validate:"session_kind"`
	Dedupe  *bool              `json:"dedupe,omitempty"`
}

type SubmitAnswerRequest struct {
	Option string `json:"option" validate:"required,option_key"`
}

// ===== VIEWS =====

// QuestionView is a question without its answer key.
type QuestionView struct {
	ID      uint            `json:"id"`
	Subject string          `json:"subject"`
	Topic   string          `json:"topic"`
	Prompt  string          `json:"prompt"`
	Options []models.Option `json:"options"`
}

type AnswerResultView struct {
	QuestionID    uint   `json:"question_id"`
	ChosenOption  string `json:"chosen_option"`
	CorrectOption string `json:"correct_option"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// SessionView is the client facing state of a session. PendingWrites counts
// answers kept in memory after the database rejected them; they are retried
// before the next write.
type SessionView struct {
	ID            string              `json:"id"`
	Kind          models.SessionKind  `json:"session_type"`
	Subject       string              `json:"subject"`
	Topics        []string            `json:"topics,omitempty"`
	State         string              `json:"state"`
	Index         int                 `json:"index"`
	Total         int                 `json:"total"`
	Answered      int                 `json:"answered"`
	Correct       int                 `json:"correct"`
	Question      *QuestionView       `json:"question,omitempty"`
	LastResult    *AnswerResultView   `json:"last_result,omitempty"`
	Summary       *quiz.ResultSummary `json:"summary,omitempty"`
	Finalized     bool                `json:"finalized"`
	PendingWrites int                 `json:"pending_writes,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

func newQuestionView(q models.Question) *QuestionView {
	return &QuestionView{
		ID:      q.ID,
		Subject: q.Subject,
		Topic:   q.Topic,
		Prompt:  q.Prompt,
		Options: q.Options(),
	}
}

// ===== PERFORMANCE =====

type SubjectPerformance struct {
	Subject         string    `json:"subject"`
	TotalAttempts   int       `json:"total_attempts"`
	CorrectAttempts int       `json:"correct_attempts"`
	AccuracyRate    float64   `json:"accuracy_rate"`
	Band            string    `json:"band"`
	LastAttemptAt   time.Time `json:"last_attempt_at"`
}

type TopicPerformance struct {
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic"`
	TotalAttempts   int       `json:"total_attempts"`
	CorrectAttempts int       `json:"correct_attempts"`
	AccuracyRate    float64   `json:"accuracy_rate"`
	Band            string    `json:"band"`
	LastAttemptAt   time.Time `json:"last_attempt_at"`
}

type RecentSession struct {
	ID             string             `json:"id"`
	Kind           models.SessionKind `json:"session_type"`
	Subject        string             `json:"subject"`
	TotalQuestions int                `json:"total_questions"`
	CorrectAnswers int                `json:"correct_answers"`
	Percentage     int                `json:"percentage"`
	CompletedAt    time.Time          `json:"completed_at"`
}

type PerformanceOverview struct {
	UserID            string               `json:"user_id"`
	TotalAttempts     int                  `json:"total_attempts"`
	TotalCorrect      int                  `json:"total_correct"`
	OverallAccuracy   float64              `json:"overall_accuracy"`
	CompletedSessions int64                `json:"completed_sessions"`
	Subjects          []SubjectPerformance `json:"subjects"`
	Topics            []TopicPerformance   `json:"topics"`
	RecentSessions    []RecentSession      `json:"recent_sessions"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

type SessionListResponse struct {
	Sessions []*models.StudySession `json:"sessions"`
	Total    int64                  `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// ===== CATALOG =====

type CountResponse struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}
