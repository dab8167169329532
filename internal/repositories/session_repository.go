package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

// SessionRepository persists study sessions.
type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.StudySession) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StudySession, error)

	// Complete sets the score and completion time once. It reports false
	// when the session was already completed.
	Complete(ctx context.Context, tx *gorm.DB, id string, correctAnswers int, completedAt time.Time) (bool, error)

	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters SessionFilters) ([]*models.StudySession, int64, error)
	CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}
