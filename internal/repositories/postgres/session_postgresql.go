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

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return pick(s.db, tx)
}

// Create is safe to retry with the same id.
func (s SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.StudySession) error {
	err := s.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StudySession, error) {
	var session models.StudySession
	if err := s.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s SessionPostgreSQL) Complete(ctx context.Context, tx *gorm.DB, id string, correctAnswers int, completedAt time.Time) (bool, error) {
	result := s.getDB(tx).WithContext(ctx).
		Model(&models.StudySession{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"correct_answers": correctAnswers,
			"completed_at":    completedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete session: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// Nothing updated: either unknown or already completed.
	if _, err := s.GetByID(ctx, tx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s SessionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SessionFilters) ([]*models.StudySession, int64, error) {
	var sessions []*models.StudySession
	var total int64

	query := s.getDB(tx).WithContext(ctx).Model(&models.StudySession{}).Where("user_id = ?", userID)
	if filters.Kind != nil {
		query = query.Where("session_type = ?", *filters.Kind)
	}
	if filters.CompletedOnly {
		query = query.Where("completed_at IS NOT NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	if filters.CompletedOnly {
		query = query.Order("completed_at DESC")
	} else {
		query = query.Order("started_at DESC")
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func (s SessionPostgreSQL) CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.StudySession{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	return count, nil
}
