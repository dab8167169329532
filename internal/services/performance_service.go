package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/quiz"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

const recentSessionLimit = 10

func performanceCacheKey(userID string) string {
	return fmt.Sprintf("performance:%s:overview", userID)
}

func performanceCachePattern(userID string) string {
	return fmt.Sprintf("performance:%s:*", userID)
}

// PerformanceService serves the statistics view.
type PerformanceService interface {
	GetOverview(ctx context.Context, userID string) (*PerformanceOverview, error)
	ListStats(ctx context.Context, userID string) ([]*models.TopicStat, error)
	ListSessions(ctx context.Context, userID string, limit, offset int) (*SessionListResponse, error)
}

type PerformanceConfig struct {
	SubjectRollup bool
	CacheTTL      time.Duration
}

type performanceService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *ServiceLogger
	config PerformanceConfig
	now    func() time.Time
}

func NewPerformanceService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, config PerformanceConfig) PerformanceService {
	return &performanceService{
		repo:   repo,
		cache:  cacheService,
		logger: NewServiceLogger(logger, LogConfig{Service: "practice", Component: "performance"}),
		config: config,
		now:    time.Now,
	}
}

func (s *performanceService) GetOverview(ctx context.Context, userID string) (*PerformanceOverview, error) {
	key := performanceCacheKey(userID)
	if s.cache != nil {
		var cached PerformanceOverview
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Logger().WarnContext(ctx, "Performance cache read failed", "user_id", userID, "error", err)
		}
	}

	op := s.logger.WithOperation(ctx, "get_performance_overview", userID)
	overview, err := s.buildOverview(ctx, userID)
	op.LogResult(userID, "performance", err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.config.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, overview, s.config.CacheTTL); err != nil {
			s.logger.Logger().WarnContext(ctx, "Performance cache write failed", "user_id", userID, "error", err)
		}
	}
	return overview, nil
}

func (s *performanceService) buildOverview(ctx context.Context, userID string) (*PerformanceOverview, error) {
	stats, err := s.repo.TopicStat().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	completed, err := s.repo.Session().CountCompletedByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	recent, _, err := s.repo.Session().ListByUser(ctx, nil, userID, repositories.SessionFilters{
		CompletedOnly: true,
		Limit:         recentSessionLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	overview := SummarizeStats(userID, stats, s.config.SubjectRollup)
	overview.CompletedSessions = completed
	overview.RecentSessions = make([]RecentSession, 0, len(recent))
	for _, session := range recent {
		if session.CompletedAt == nil {
			continue
		}
		overview.RecentSessions = append(overview.RecentSessions, RecentSession{
			ID:             session.ID,
			Kind:           session.Kind,
			Subject:        session.Subject,
			TotalQuestions: session.TotalQuestions,
			CorrectAnswers: session.CorrectAnswers,
			Percentage:     quiz.Summarize(session.TotalQuestions, session.CorrectAnswers).Percentage,
			CompletedAt:    *session.CompletedAt,
		})
	}
	overview.GeneratedAt = s.now().UTC()
	return overview, nil
}

// SummarizeStats derives totals and per subject figures from the raw rows.
// With the subject rollup enabled every attempt is present in a
// subject-level row, so totals come from those rows only; otherwise each
// attempt lives in exactly one row and all rows are summed.
func SummarizeStats(userID string, stats []*models.TopicStat, subjectRollup bool) *PerformanceOverview {
	overview := &PerformanceOverview{
		UserID:   userID,
		Subjects: []SubjectPerformance{},
		Topics:   []TopicPerformance{},
	}

	bySubject := make(map[string]*SubjectPerformance)
	var order []string
	for _, stat := range stats {
		if !stat.IsSubjectLevel() {
			overview.Topics = append(overview.Topics, TopicPerformance{
				Subject:         stat.Subject,
				Topic:           stat.Topic,
				TotalAttempts:   stat.TotalAttempts,
				CorrectAttempts: stat.CorrectAttempts,
				AccuracyRate:    stat.AccuracyRate,
				Band:            quiz.PerformanceBand(stat.AccuracyRate),
				LastAttemptAt:   stat.LastAttemptAt,
			})
		}

		counts := !subjectRollup || stat.IsSubjectLevel()
		if !counts {
			continue
		}

		overview.TotalAttempts += stat.TotalAttempts
		overview.TotalCorrect += stat.CorrectAttempts

		subject, ok := bySubject[stat.Subject]
		if !ok {
			subject = &SubjectPerformance{Subject: stat.Subject}
			bySubject[stat.Subject] = subject
			order = append(order, stat.Subject)
		}
		subject.TotalAttempts += stat.TotalAttempts
		subject.CorrectAttempts += stat.CorrectAttempts
		if stat.LastAttemptAt.After(subject.LastAttemptAt) {
			subject.LastAttemptAt = stat.LastAttemptAt
		}
	}

	for _, name := range order {
		subject := bySubject[name]
		subject.AccuracyRate = models.CalculateAccuracy(subject.CorrectAttempts, subject.TotalAttempts)
		subject.Band = quiz.PerformanceBand(subject.AccuracyRate)
		overview.Subjects = append(overview.Subjects, *subject)
	}

	sort.SliceStable(overview.Subjects, func(i, j int) bool {
		return overview.Subjects[i].AccuracyRate > overview.Subjects[j].AccuracyRate
	})
	sort.SliceStable(overview.Topics, func(i, j int) bool {
		return overview.Topics[i].AccuracyRate > overview.Topics[j].AccuracyRate
	})

	overview.OverallAccuracy = models.CalculateAccuracy(overview.TotalCorrect, overview.TotalAttempts)
	return overview
}

func (s *performanceService) ListStats(ctx context.Context, userID string) ([]*models.TopicStat, error) {
	stats, err := s.repo.TopicStat().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return stats, nil
}

func (s *performanceService) ListSessions(ctx context.Context, userID string, limit, offset int) (*SessionListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	sessions, total, err := s.repo.Session().ListByUser(ctx, nil, userID, repositories.SessionFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	return &SessionListResponse{
		Sessions: sessions,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}
