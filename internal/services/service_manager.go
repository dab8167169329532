package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/quiz"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

// QuestionBank is everything the services need from the question source.
type QuestionBank interface {
	quiz.QuestionSource
	CatalogSource
}

type ServiceManager interface {
	Quiz() QuizService
	Aggregator() StatisticsAggregator
	Performance() PerformanceService
	Export() ExportService
	Catalog() CatalogService
}

type ManagerConfig struct {
	Quiz          QuizConfig
	SubjectRollup bool
	StatsCacheTTL time.Duration
}

type serviceManager struct {
	quiz        QuizService
	aggregator  StatisticsAggregator
	performance PerformanceService
	export      ExportService
	catalog     CatalogService
}

// NewServiceManager wires the services over shared infrastructure. A nil
// cache disables caching.
func NewServiceManager(
	repo repositories.Repository,
	bank QuestionBank,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
	config ManagerConfig,
) ServiceManager {
	aggregator := NewStatisticsAggregator(repo, cacheService, publisher, logger, AggregatorConfig{
		SubjectRollup: config.SubjectRollup,
	})
	performance := NewPerformanceService(repo, cacheService, logger, PerformanceConfig{
		SubjectRollup: config.SubjectRollup,
		CacheTTL:      config.StatsCacheTTL,
	})

	return &serviceManager{
		quiz:        NewQuizService(repo, bank, aggregator, v, publisher, logger, config.Quiz),
		aggregator:  aggregator,
		performance: performance,
		export:      NewExportService(performance, logger),
		catalog:     NewCatalogService(bank, cacheService, logger),
	}
}

func (m *serviceManager) Quiz() QuizService                { return m.quiz }
func (m *serviceManager) Aggregator() StatisticsAggregator { return m.aggregator }
func (m *serviceManager) Performance() PerformanceService  { return m.performance }
func (m *serviceManager) Export() ExportService            { return m.export }
func (m *serviceManager) Catalog() CatalogService          { return m.catalog }
