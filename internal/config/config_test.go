package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.Quiz.DefaultQuestionCount)
	assert.Equal(t, 100, cfg.Quiz.MaxQuestionCount)
	assert.Equal(t, 3, cfg.Quiz.PersistenceRetries)
	assert.Equal(t, 5*time.Second, cfg.Quiz.PersistenceTimeout)
	assert.Equal(t, 10*time.Second, cfg.QuestionSource.Timeout)
	assert.False(t, cfg.Stats.SubjectRollup)
	assert.Equal(t, 5*time.Minute, cfg.Stats.CacheTTL)
	assert.Equal(t, 2*time.Hour, cfg.Quiz.SessionIdleTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("STATS_SUBJECT_ROLLUP", "true")
	t.Setenv("QUESTION_SOURCE_TIMEOUT", "3s")
	t.Setenv("DEFAULT_QUESTION_COUNT", "20")
	t.Setenv("MAX_QUESTION_COUNT", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Stats.SubjectRollup)
	assert.Equal(t, 3*time.Second, cfg.QuestionSource.Timeout)
	assert.Equal(t, 20, cfg.Quiz.DefaultQuestionCount)
	assert.Equal(t, 100, cfg.Quiz.MaxQuestionCount)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"auth without certificate", map[string]string{"AUTH_ENABLED": "true", "CASDOOR_CERTIFICATE": ""}},
		{"max below default", map[string]string{"AUTH_ENABLED": "false", "DEFAULT_QUESTION_COUNT": "50", "MAX_QUESTION_COUNT": "10"}},
		{"no retries", map[string]string{"AUTH_ENABLED": "false", "PERSISTENCE_RETRIES": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestEventConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := EventConfig{Enabled: true, Publisher: "mock", KafkaBrokers: "a:9092, b:9092,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetKafkaBrokers())

	publisher, err := cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)

	cfg = EventConfig{Enabled: false, Publisher: "kafka"}
	publisher, err = cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)
}
