package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSessionStarted   EventType = "quiz.session_started"
	EventSessionCompleted EventType = "quiz.session_completed"
	EventStatsUpdated     EventType = "quiz.stats_updated"
)

const (
	eventSource  = "practice-service"
	eventVersion = "1.0"
)

// QuizEvent is the envelope for everything published on the quiz topic.
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SessionStartedEvent struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	Kind           string    `json:"kind"`
	Subject        string    `json:"subject"`
	Topics         []string  `json:"topics,omitempty"`
	RequestedCount int       `json:"requested_count"`
	TotalQuestions int       `json:"total_questions"`
	StartedAt      time.Time `json:"started_at"`
}

type SessionCompletedEvent struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	CompletedAt time.Time `json:"completed_at"`
}

type StatsUpdatedEvent struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	KeysUpdated int    `json:"keys_updated"`
	Skipped     int    `json:"skipped,omitempty"`
}

func newEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSessionStartedEvent(data SessionStartedEvent) *QuizEvent {
	return newEvent(EventSessionStarted, data)
}

func NewSessionCompletedEvent(data SessionCompletedEvent) *QuizEvent {
	return newEvent(EventSessionCompleted, data)
}

func NewStatsUpdatedEvent(data StatsUpdatedEvent) *QuizEvent {
	return newEvent(EventStatsUpdated, data)
}
