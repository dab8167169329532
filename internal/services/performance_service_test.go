package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func stat(subject, topic string, total, correct int) *models.TopicStat {
	return &models.TopicStat{
		UserID:          "u1",
		Subject:         subject,
		Topic:           topic,
		TotalAttempts:   total,
		CorrectAttempts: correct,
		AccuracyRate:    models.CalculateAccuracy(correct, total),
		LastAttemptAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSummarizeStats(t *testing.T) {
	tests := []struct {
		name          string
		stats         []*models.TopicStat
		rollup        bool
		wantTotal     int
		wantCorrect   int
		wantSubjects  []string
		wantBands     []string
		wantTopicRows int
	}{
		{
			name:         "no stats",
			wantSubjects: []string{},
			wantBands:    []string{},
		},
		{
			name: "topic rows summed per subject",
			stats: []*models.TopicStat{
				stat("Torts", "Negligence", 4, 1),
				stat("Contracts", "Offer", 5, 4),
				stat("Torts", "Battery", 6, 3),
			},
			wantTotal:     15,
			wantCorrect:   8,
			wantSubjects:  []string{"Contracts", "Torts"},
			wantBands:     []string{"good", "poor"},
			wantTopicRows: 3,
		},
		{
			name: "rollup totals come from subject rows",
			stats: []*models.TopicStat{
				stat("Torts", "", 10, 6),
				stat("Torts", "Negligence", 4, 1),
				stat("Torts", "Battery", 6, 5),
			},
			rollup:        true,
			wantTotal:     10,
			wantCorrect:   6,
			wantSubjects:  []string{"Torts"},
			wantBands:     []string{"fair"},
			wantTopicRows: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overview := SummarizeStats("u1", tt.stats, tt.rollup)

			assert.Equal(t, tt.wantTotal, overview.TotalAttempts)
			assert.Equal(t, tt.wantCorrect, overview.TotalCorrect)
			assert.Len(t, overview.Topics, tt.wantTopicRows)

			subjects := make([]string, 0, len(overview.Subjects))
			bands := make([]string, 0, len(overview.Subjects))
			for _, s := range overview.Subjects {
				subjects = append(subjects, s.Subject)
				bands = append(bands, s.Band)
			}
			assert.Equal(t, tt.wantSubjects, subjects)
			assert.Equal(t, tt.wantBands, bands)
		})
	}
}

func TestSummarizeStats_TopicsSortedByAccuracy(t *testing.T) {
	overview := SummarizeStats("u1", []*models.TopicStat{
		stat("Torts", "Negligence", 4, 1),
		stat("Torts", "Battery", 4, 4),
		stat("Torts", "Nuisance", 4, 2),
	}, false)

	require.Len(t, overview.Topics, 3)
	assert.Equal(t, "Battery", overview.Topics[0].Topic)
	assert.Equal(t, "Nuisance", overview.Topics[1].Topic)
	assert.Equal(t, "Negligence", overview.Topics[2].Topic)
	assert.InDelta(t, 58.33, overview.OverallAccuracy, 0.01)
}

func seedCompletedSession(t *testing.T, ctx context.Context, repo *faultyRepository, userID string, total, correct int, completedAt time.Time) *models.StudySession {
	t.Helper()
	session := &models.StudySession{
		ID:             uuid.NewString(),
		UserID:         userID,
		Kind:           models.SessionKindPractice,
		Subject:        "Torts",
		RequestedCount: total,
		TotalQuestions: total,
		StartedAt:      completedAt.Add(-10 * time.Minute),
	}
	require.NoError(t, repo.Session().Create(ctx, nil, session))
	_, err := repo.Session().Complete(ctx, nil, session.ID, correct, completedAt)
	require.NoError(t, err)
	return session
}

func TestPerformanceService_GetOverview(t *testing.T) {
	ctx := context.Background()
	repo := newFaultyRepository(setupTestRepo(t))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		seedCompletedSession(t, ctx, repo, "u1", 4, i%5, base.Add(time.Duration(i)*time.Hour))
	}
	// Unfinished sessions are not listed
	require.NoError(t, repo.Session().Create(ctx, nil, &models.StudySession{
		ID: uuid.NewString(), UserID: "u1", Kind: models.SessionKindPractice, Subject: "Torts", TotalQuestions: 4, StartedAt: base,
	}))
	require.NoError(t, repo.TopicStat().Increment(ctx, nil, models.StatKey{UserID: "u1", Subject: "Torts", Topic: "Negligence"}, true, base))
	require.NoError(t, repo.TopicStat().Increment(ctx, nil, models.StatKey{UserID: "u1", Subject: "Torts", Topic: "Negligence"}, false, base))

	cacheService := new(MockCacheService)
	cacheService.On("Get", mock.Anything, "performance:u1:overview", mock.Anything).Return(cache.ErrCacheMiss).Once()
	cacheService.On("Set", mock.Anything, "performance:u1:overview", mock.Anything, 5*time.Minute).Return(nil).Once()

	service := NewPerformanceService(repo, cacheService, testLogger(), PerformanceConfig{CacheTTL: 5 * time.Minute})
	overview, err := service.GetOverview(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalAttempts)
	assert.Equal(t, 1, overview.TotalCorrect)
	assert.Equal(t, 50.0, overview.OverallAccuracy)
	assert.Equal(t, int64(12), overview.CompletedSessions)
	require.Len(t, overview.RecentSessions, 10)
	assert.Equal(t, base.Add(11*time.Hour), overview.RecentSessions[0].CompletedAt.UTC(), "newest first")
	assert.Equal(t, 25, overview.RecentSessions[0].Percentage)
	cacheService.AssertExpectations(t)
}

func TestPerformanceService_GetOverview_CacheHit(t *testing.T) {
	repo := newFaultyRepository(setupTestRepo(t))
	cacheService := new(MockCacheService)
	cacheService.On("Get", mock.Anything, "performance:u1:overview", mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*PerformanceOverview)
			dest.TotalAttempts = 42
		}).
		Return(nil)

	service := NewPerformanceService(repo, cacheService, testLogger(), PerformanceConfig{CacheTTL: time.Minute})
	overview, err := service.GetOverview(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 42, overview.TotalAttempts)
	cacheService.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPerformanceService_ListSessions_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := newFaultyRepository(setupTestRepo(t))
	seedCompletedSession(t, ctx, repo, "u1", 2, 1, time.Now().UTC())

	service := NewPerformanceService(repo, nil, testLogger(), PerformanceConfig{})
	list, err := service.ListSessions(ctx, "u1", 500, -3)

	require.NoError(t, err)
	assert.Equal(t, 20, list.Limit)
	assert.Equal(t, 0, list.Offset)
	assert.Equal(t, int64(1), list.Total)
	assert.Len(t, list.Sessions, 1)
}

func TestExportService_ExportPerformance(t *testing.T) {
	ctx := context.Background()
	repo := newFaultyRepository(setupTestRepo(t))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seedCompletedSession(t, ctx, repo, "u1", 4, 3, base)
	require.NoError(t, repo.TopicStat().Increment(ctx, nil, models.StatKey{UserID: "u1", Subject: "Torts", Topic: "Negligence"}, true, base))

	performance := NewPerformanceService(repo, nil, testLogger(), PerformanceConfig{})
	data, err := NewExportService(performance, testLogger()).ExportPerformance(ctx, "u1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "Subjects", "Topics", "Recent Sessions"}, f.GetSheetList())

	value, err := f.GetCellValue("Overview", "B2")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	topic, err := f.GetCellValue("Topics", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Negligence", topic)

	score, err := f.GetCellValue("Recent Sessions", "F2")
	require.NoError(t, err)
	assert.Equal(t, "75", score)
}
