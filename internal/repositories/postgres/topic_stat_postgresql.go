package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var statKeyColumns = []clause.Column{{Name: "user_id"}, {Name: "subject"}, {Name: "topic"}}

type TopicStatPostgreSQL struct {
	db *gorm.DB
}

func NewTopicStatPostgreSQL(db *gorm.DB) repositories.TopicStatRepository {
	return &TopicStatPostgreSQL{db: db}
}

func (t TopicStatPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return pick(t.db, tx)
}

func (t TopicStatPostgreSQL) Get(ctx context.Context, tx *gorm.DB, key models.StatKey) (*models.TopicStat, error) {
	var stat models.TopicStat
	err := t.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND subject = ? AND topic = ?", key.UserID, key.Subject, key.Topic).
		First(&stat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("topic stat %s/%s/%s: %w", key.UserID, key.Subject, key.Topic, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get topic stat: %w", err)
	}
	return &stat, nil
}

// Increment inserts the first attempt for key or adds to the existing
// counters. The SET expressions read the row's current values, so concurrent
// increments on the same key serialize in the database instead of losing
// updates.
func (t TopicStatPostgreSQL) Increment(ctx context.Context, tx *gorm.DB, key models.StatKey, correct bool, at time.Time) error {
	delta := 0
	if correct {
		delta = 1
	}

	stat := models.TopicStat{
		UserID:          key.UserID,
		Subject:         key.Subject,
		Topic:           key.Topic,
		TotalAttempts:   1,
		CorrectAttempts: delta,
		AccuracyRate:    models.CalculateAccuracy(delta, 1),
		LastAttemptAt:   at,
	}

	err := t.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: statKeyColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_attempts":   gorm.Expr("topic_stats.total_attempts + 1"),
				"correct_attempts": gorm.Expr("topic_stats.correct_attempts + ?", delta),
				"accuracy_rate":    gorm.Expr("100.0 * (topic_stats.correct_attempts + ?) / (topic_stats.total_attempts + 1)", delta),
				"last_attempt_at":  gorm.Expr("excluded.last_attempt_at"),
				"updated_at":       gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&stat).Error
	if err != nil {
		return fmt.Errorf("failed to increment topic stat: %w", err)
	}
	return nil
}

func (t TopicStatPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, stat *models.TopicStat) error {
	stat.AccuracyRate = models.CalculateAccuracy(stat.CorrectAttempts, stat.TotalAttempts)
	err := t.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: statKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{
				"total_attempts", "correct_attempts", "accuracy_rate", "last_attempt_at", "updated_at",
			}),
		}).
		Create(stat).Error
	if err != nil {
		return fmt.Errorf("failed to upsert topic stat: %w", err)
	}
	return nil
}

func (t TopicStatPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.TopicStat, error) {
	var stats []*models.TopicStat
	err := t.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("subject ASC").
		Order("topic ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list topic stats: %w", err)
	}
	return stats, nil
}
