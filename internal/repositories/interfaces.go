package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	Kind          *models.SessionKind `json:"kind"`
	CompletedOnly bool                `json:"completed_only"`
	Limit         int                 `json:"limit"`
	Offset        int                 `json:"offset"`
}

// Repository groups the persistence gateway. Every method takes an optional
// tx; nil means the repository's own connection.
type Repository interface {
	Session() SessionRepository
	Attempt() AttemptRepository
	TopicStat() TopicStatRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
