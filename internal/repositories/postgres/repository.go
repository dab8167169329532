package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db        *gorm.DB
	session   repositories.SessionRepository
	attempt   repositories.AttemptRepository
	topicStat repositories.TopicStatRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		session:   NewSessionPostgreSQL(db),
		attempt:   NewAttemptPostgreSQL(db),
		topicStat: NewTopicStatPostgreSQL(db),
	}
}

func (r *Repository) Session() repositories.SessionRepository     { return r.session }
func (r *Repository) Attempt() repositories.AttemptRepository     { return r.attempt }
func (r *Repository) TopicStat() repositories.TopicStatRepository { return r.topicStat }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func pick(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
