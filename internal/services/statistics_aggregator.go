package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

// StatisticsAggregator folds the attempts of a completed session into the
// per topic counters.
type StatisticsAggregator interface {
	Aggregate(ctx context.Context, attempts []models.QuestionAttempt) (*AggregationResult, error)
}

type AggregationResult struct {
	Applied     int              `json:"applied"`
	Skipped     int              `json:"skipped"`
	KeysTouched []models.StatKey `json:"keys_touched"`
}

type AggregatorConfig struct {
	// SubjectRollup also increments the subject-level row for attempts that
	// carry a topic.
	SubjectRollup bool
}

type statisticsAggregator struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *ServiceLogger
	config    AggregatorConfig
	now       func() time.Time
}

func NewStatisticsAggregator(repo repositories.Repository, cacheService cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, config AggregatorConfig) StatisticsAggregator {
	return &statisticsAggregator{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "practice", Component: "statistics_aggregator"}),
		config:    config,
		now:       time.Now,
	}
}

// Aggregate applies attempts one at a time, in order. Each attempt is
// stamped aggregated and its counters incremented in the same transaction,
// so a replay after a partial failure only applies what is still missing.
// Already applied attempts are not rolled back when a later one fails.
func (a *statisticsAggregator) Aggregate(ctx context.Context, attempts []models.QuestionAttempt) (*AggregationResult, error) {
	result := &AggregationResult{}
	if len(attempts) == 0 {
		return result, nil
	}

	sessionID := attempts[0].SessionID
	userID := attempts[0].UserID
	op := a.logger.WithOperation(ctx, "aggregate_statistics", userID)

	touched := make(map[models.StatKey]struct{})
	for i := range attempts {
		attempt := &attempts[i]
		keys := a.keysFor(attempt)

		applied := false
		err := a.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
			marked, err := a.repo.Attempt().MarkAggregated(ctx, tx, attempt.ID, a.now().UTC())
			if err != nil {
				return err
			}
			if !marked {
				return nil
			}
			for _, key := range keys {
				if err := a.repo.TopicStat().Increment(ctx, tx, key, attempt.IsCorrect, attempt.AnsweredAt); err != nil {
					return err
				}
			}
			applied = true
			return nil
		})
		if err != nil {
			err = fmt.Errorf("%w: aggregate attempt %d of session %s: %w", ErrPersistenceFailure, attempt.QuestionIndex, sessionID, err)
			op.LogResult(sessionID, "session", err)
			a.afterAggregate(ctx, userID, sessionID, result, touched)
			return result, err
		}

		if !applied {
			result.Skipped++
			continue
		}
		result.Applied++
		for _, key := range keys {
			touched[key] = struct{}{}
		}
	}

	a.afterAggregate(ctx, userID, sessionID, result, touched)
	op.LogResult(sessionID, "session", nil)
	return result, nil
}

func (a *statisticsAggregator) keysFor(attempt *models.QuestionAttempt) []models.StatKey {
	key := attempt.StatKey()
	if a.config.SubjectRollup && !key.IsSubjectLevel() {
		return []models.StatKey{key, key.SubjectKey()}
	}
	return []models.StatKey{key}
}

func (a *statisticsAggregator) afterAggregate(ctx context.Context, userID, sessionID string, result *AggregationResult, touched map[models.StatKey]struct{}) {
	for key := range touched {
		result.KeysTouched = append(result.KeysTouched, key)
	}
	if result.Applied == 0 {
		return
	}

	if a.cache != nil {
		if err := a.cache.DeletePattern(ctx, performanceCachePattern(userID)); err != nil {
			a.logger.Logger().WarnContext(ctx, "Failed to invalidate performance cache",
				"user_id", userID,
				"error", err)
		}
	}

	if a.publisher != nil {
		event := events.NewStatsUpdatedEvent(events.StatsUpdatedEvent{
			UserID:      userID,
			SessionID:   sessionID,
			KeysUpdated: len(touched),
			Skipped:     result.Skipped,
		})
		if err := a.publisher.PublishQuizEvent(ctx, event); err != nil {
			a.logger.Logger().WarnContext(ctx, "Failed to publish stats updated event",
				"session_id", sessionID,
				"error", err)
		}
	}
}
