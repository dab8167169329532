package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository appends and reads question attempts.
type AttemptRepository interface {
	// Create is idempotent on (session_id, question_index): replaying the
	// same attempt leaves the stored row untouched.
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuestionAttempt) error
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.QuestionAttempt, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID string) (int64, error)

	// MarkAggregated stamps aggregated_at if it is still unset and reports
	// whether this call did it.
	MarkAggregated(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error)
}
