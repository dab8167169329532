package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
)

const catalogCacheTTL = 10 * time.Minute

// CatalogSource is the browsing side of the question bank.
type CatalogSource interface {
	Subjects(ctx context.Context) ([]string, error)
	Topics(ctx context.Context) ([]string, error)
	CountBySubject(ctx context.Context, subject string) (int, error)
	CountByTopic(ctx context.Context, topic string) (int, error)
	RandomQuestion(ctx context.Context) (*models.Question, error)
}

type CatalogService interface {
	Subjects(ctx context.Context) ([]string, error)
	Topics(ctx context.Context) ([]string, error)
	CountBySubject(ctx context.Context, subject string) (*CountResponse, error)
	CountByTopic(ctx context.Context, topic string) (*CountResponse, error)
	RandomQuestion(ctx context.Context) (*QuestionView, error)
}

type catalogService struct {
	source CatalogSource
	cache  cache.CacheService
	logger *slog.Logger
}

func NewCatalogService(source CatalogSource, cacheService cache.CacheService, logger *slog.Logger) CatalogService {
	return &catalogService{
		source: source,
		cache:  cacheService,
		logger: logger.With("component", "catalog"),
	}
}

func (s *catalogService) Subjects(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, "catalog:subjects", s.source.Subjects)
}

func (s *catalogService) Topics(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, "catalog:topics", s.source.Topics)
}

func (s *catalogService) CountBySubject(ctx context.Context, subject string) (*CountResponse, error) {
	total, err := s.source.CountBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Name: subject, Total: total}, nil
}

func (s *catalogService) CountByTopic(ctx context.Context, topic string) (*CountResponse, error) {
	total, err := s.source.CountByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Name: topic, Total: total}, nil
}

// RandomQuestion backs the single question practice card; the answer key is
// not exposed.
func (s *catalogService) RandomQuestion(ctx context.Context) (*QuestionView, error) {
	q, err := s.source.RandomQuestion(ctx)
	if err != nil {
		return nil, err
	}
	return newQuestionView(*q), nil
}

func (s *catalogService) cachedList(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if s.cache != nil {
		var cached []string
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "Catalog cache read failed", "key", key, "error", err)
		}
	}

	list, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, list, catalogCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "Catalog cache write failed", "key", key, "error", err)
		}
	}
	return list, nil
}
