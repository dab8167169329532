package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return pick(a.db, tx)
}

func (a AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuestionAttempt) error {
	err := a.getDB(tx).WithContext(ctx).
		Omit("Session").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_index"}},
			DoNothing: true,
		}).
		Create(attempt).Error
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a AttemptPostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.QuestionAttempt, error) {
	var attempts []*models.QuestionAttempt
	err := a.getDB(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_index ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts for session: %w", err)
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) CountBySession(ctx context.Context, tx *gorm.DB, sessionID string) (int64, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.QuestionAttempt{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

func (a AttemptPostgreSQL) MarkAggregated(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error) {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.QuestionAttempt{}).
		Where("id = ? AND aggregated_at IS NULL", id).
		Update("aggregated_at", at)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark attempt aggregated: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
