package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

// TopicStatRepository stores the per (user, subject, topic) counters.
type TopicStatRepository interface {
	Get(ctx context.Context, tx *gorm.DB, key models.StatKey) (*models.TopicStat, error)

	// Increment adds one attempt to the row for key, creating it on first
	// use. It is a single upsert; callers never read before writing.
	Increment(ctx context.Context, tx *gorm.DB, key models.StatKey, correct bool, at time.Time) error

	// Upsert writes a full row, replacing the counters of an existing one.
	Upsert(ctx context.Context, tx *gorm.DB, stat *models.TopicStat) error

	// ListByUser returns every row for the user ordered by subject, with the
	// subject-level row ahead of its topics.
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.TopicStat, error)
}
