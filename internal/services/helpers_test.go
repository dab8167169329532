package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/repositories/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errDatabaseDown = errors.New("database down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRepo(t *testing.T) *postgres.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StudySession{}, &models.QuestionAttempt{}, &models.TopicStat{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return postgres.NewRepository(db)
}

func makeQuestions(startID uint, n int, subject, topic string) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:            startID + uint(i),
			Subject:       subject,
			Topic:         topic,
			Prompt:        fmt.Sprintf("question %d", startID+uint(i)),
			OptionA:       "yes",
			OptionB:       "no",
			CorrectOption: models.OptionA,
			Explanation:   "because",
		}
	}
	return questions
}

// ===== MOCKS =====

type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) QuestionsBySubject(ctx context.Context, subject string, count int) ([]models.Question, error) {
	args := m.Called(ctx, subject, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockQuestionSource) QuestionsByTopic(ctx context.Context, topic string, count int) ([]models.Question, error) {
	args := m.Called(ctx, topic, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

// ===== FAULT INJECTION =====

// faultyRepository wraps a real repository and fails selected calls a set
// number of times before delegating.
type faultyRepository struct {
	repositories.Repository
	attempts *faultyAttempts
	sessions *faultySessions
}

func newFaultyRepository(inner repositories.Repository) *faultyRepository {
	return &faultyRepository{
		Repository: inner,
		attempts:   &faultyAttempts{AttemptRepository: inner.Attempt()},
		sessions:   &faultySessions{SessionRepository: inner.Session()},
	}
}

func (r *faultyRepository) Attempt() repositories.AttemptRepository { return r.attempts }
func (r *faultyRepository) Session() repositories.SessionRepository { return r.sessions }

type faultyAttempts struct {
	repositories.AttemptRepository
	mu          sync.Mutex
	createFails int
	createCalls int
}

func (f *faultyAttempts) failCreates(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createFails = n
}

func (f *faultyAttempts) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuestionAttempt) error {
	f.mu.Lock()
	f.createCalls++
	if f.createFails > 0 {
		f.createFails--
		f.mu.Unlock()
		return errDatabaseDown
	}
	f.mu.Unlock()
	return f.AttemptRepository.Create(ctx, tx, attempt)
}

type faultySessions struct {
	repositories.SessionRepository
	mu            sync.Mutex
	createFails   int
	completeFails int
}

func (f *faultySessions) Create(ctx context.Context, tx *gorm.DB, session *models.StudySession) error {
	f.mu.Lock()
	if f.createFails > 0 {
		f.createFails--
		f.mu.Unlock()
		return errDatabaseDown
	}
	f.mu.Unlock()
	return f.SessionRepository.Create(ctx, tx, session)
}

func (f *faultySessions) Complete(ctx context.Context, tx *gorm.DB, id string, correctAnswers int, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	if f.completeFails > 0 {
		f.completeFails--
		f.mu.Unlock()
		return false, errDatabaseDown
	}
	f.mu.Unlock()
	return f.SessionRepository.Complete(ctx, tx, id, correctAnswers, completedAt)
}
