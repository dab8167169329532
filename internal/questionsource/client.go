package questionsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/quiz"
	"github.com/SAP-F-2025/practice-service/pkg/monitoring"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond <= 0 disables client side rate limiting.
	RequestsPerSecond float64
	Burst             int
}

// StatusError is returned for non-2xx responses. It unwraps to
// quiz.ErrSourceUnavailable.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("question source %s: status %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return quiz.ErrSourceUnavailable
}

// Client talks to the question bank HTTP API. Every failure, network or
// status, is reported as quiz.ErrSourceUnavailable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger.With("component", "question_source"),
	}
}

func (c *Client) Subjects(ctx context.Context) ([]string, error) {
	var subjects []string
	if err := c.get(ctx, "subjects", "/subjects", &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) Topics(ctx context.Context) ([]string, error) {
	var topics []string
	if err := c.get(ctx, "topics", "/topics", &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) QuestionsBySubject(ctx context.Context, subject string, count int) ([]models.Question, error) {
	var questions []models.Question
	path := "/subjects/" + url.PathEscape(subject) + "/" + strconv.Itoa(count)
	if err := c.get(ctx, "questions_by_subject", path, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) QuestionsByTopic(ctx context.Context, topic string, count int) ([]models.Question, error) {
	var questions []models.Question
	path := "/topics/" + url.PathEscape(topic) + "/" + strconv.Itoa(count)
	if err := c.get(ctx, "questions_by_topic", path, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) QuestionByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	path := "/questions/" + strconv.FormatUint(uint64(id), 10)
	if err := c.get(ctx, "question_by_id", path, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (c *Client) RandomQuestion(ctx context.Context) (*models.Question, error) {
	var question models.Question
	if err := c.get(ctx, "random_question", "/questions/random", &question); err != nil {
		return nil, err
	}
	return &question, nil
}

type countResponse struct {
	Total int `json:"total"`
}

func (c *Client) CountBySubject(ctx context.Context, subject string) (int, error) {
	var resp countResponse
	if err := c.get(ctx, "count_by_subject", "/subjects/"+url.PathEscape(subject)+"/count", &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (c *Client) CountByTopic(ctx context.Context, topic string) (int, error) {
	var resp countResponse
	if err := c.get(ctx, "count_by_topic", "/topics/"+url.PathEscape(topic)+"/count", &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) error {
	err := c.do(ctx, endpoint, path, out)
	if err != nil {
		monitoring.QuestionSourceErrors.WithLabelValues(endpoint).Inc()
		c.logger.WarnContext(ctx, "Question source request failed",
			"endpoint", endpoint,
			"path", path,
			"error", err,
		)
	}
	return err
}

func (c *Client) do(ctx context.Context, endpoint, path string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit wait: %w", quiz.ErrSourceUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", quiz.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", quiz.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", quiz.ErrSourceUnavailable, endpoint, err)
	}
	return nil
}
