package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/practice-service/internal/errors"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) StartSession(ctx context.Context, userID string, req *services.StartSessionRequest) (*services.SessionView, error) {
	args := m.Called(ctx, userID, req)
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

func (m *MockQuizService) GetSession(ctx context.Context, userID, sessionID string) (*services.SessionView, error) {
	args := m.Called(ctx, userID, sessionID)
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

func (m *MockQuizService) SubmitAnswer(ctx context.Context, userID, sessionID string, req *services.SubmitAnswerRequest) (*services.SessionView, error) {
	args := m.Called(ctx, userID, sessionID, req)
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

func (m *MockQuizService) Advance(ctx context.Context, userID, sessionID string) (*services.SessionView, error) {
	args := m.Called(ctx, userID, sessionID)
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

func (m *MockQuizService) ActiveSessions() int {
	return m.Called().Int(0)
}

func (m *MockQuizService) EvictIdle(cutoff time.Time) int {
	return m.Called(cutoff).Int(0)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupSessionRouter(quiz services.QuizService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSessionHandler(quiz, testLogger())

	sessions := router.Group("/api/v1/sessions", DevAuthMiddleware())
	sessions.POST("", handler.StartSession)
	sessions.GET("/:id", handler.GetSession)
	sessions.POST("/:id/answers", handler.SubmitAnswer)
	sessions.POST("/:id/advance", handler.Advance)
	return router
}

func doRequest(router *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(DevUserHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionHandler_StartSession(t *testing.T) {
	quiz := new(MockQuizService)
	router := setupSessionRouter(quiz)

	quiz.On("StartSession", mock.Anything, "u1", mock.MatchedBy(func(req *services.StartSessionRequest) bool {
		return req.Subject == "Torts" && req.Count == 5 && len(req.Topics) == 1
	})).Return(&services.SessionView{ID: "s1", Total: 5, State: "awaiting_answer"}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/sessions", "u1", map[string]interface{}{
		"subject": "Torts",
		"topics":  []string{"Negligence"},
		"count":   "5",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var view services.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "s1", view.ID)
	assert.Equal(t, 5, view.Total)
	quiz.AssertExpectations(t)
}

func TestSessionHandler_RequiresUser(t *testing.T) {
	quiz := new(MockQuizService)
	router := setupSessionRouter(quiz)

	w := doRequest(router, http.MethodGet, "/api/v1/sessions/s1", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	quiz.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_InvalidPayload(t *testing.T) {
	router := setupSessionRouter(new(MockQuizService))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("{not json"))
	req.Header.Set(DevUserHeader, "u1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: services.ErrSessionNotFound, wantStatus: http.StatusNotFound},
		{name: "expired", err: services.ErrSessionExpired, wantStatus: http.StatusGone},
		{name: "other owner", err: services.NewPermissionError("u1", "s1", "session", "access", "not the session owner"), wantStatus: http.StatusForbidden},
		{name: "already answered", err: services.ErrAnswerAlreadyRecorded, wantStatus: http.StatusConflict},
		{name: "completed", err: services.ErrSessionCompleted, wantStatus: http.StatusConflict},
		{name: "invalid option", err: fmt.Errorf("%w: %q", services.ErrInvalidOption, "D"), wantStatus: http.StatusBadRequest},
		{name: "validation", err: apperrors.ValidationErrors{{Field: "option", Message: "option is invalid"}}, wantStatus: http.StatusBadRequest},
		{name: "storage down", err: fmt.Errorf("%w: append_attempt: %w", services.ErrPersistenceFailure, errors.New("timeout")), wantStatus: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := new(MockQuizService)
			router := setupSessionRouter(quiz)
			quiz.On("SubmitAnswer", mock.Anything, "u1", "s1", mock.Anything).Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/api/v1/sessions/s1/answers", "u1", map[string]string{"option": "A"})

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestSessionHandler_PendingWriteIsAccepted(t *testing.T) {
	quiz := new(MockQuizService)
	router := setupSessionRouter(quiz)
	view := &services.SessionView{ID: "s1", State: "showing_result", PendingWrites: 1}
	quiz.On("SubmitAnswer", mock.Anything, "u1", "s1", &services.SubmitAnswerRequest{Option: "B"}).
		Return(view, fmt.Errorf("%w: append_attempt: %w", services.ErrPersistenceFailure, errors.New("timeout")))

	w := doRequest(router, http.MethodPost, "/api/v1/sessions/s1/answers", "u1", map[string]string{"option": "B"})

	require.Equal(t, http.StatusAccepted, w.Code)
	var got services.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.PendingWrites)
}

func TestSessionHandler_Advance(t *testing.T) {
	quiz := new(MockQuizService)
	router := setupSessionRouter(quiz)
	quiz.On("Advance", mock.Anything, "u1", "s1").Return(&services.SessionView{ID: "s1", State: "completed", Finalized: true}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/sessions/s1/advance", "u1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got services.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Finalized)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parse := func(token string) (string, error) {
		if token == "good" {
			return "u42", nil
		}
		return "", errors.New("bad signature")
	}

	router := gin.New()
	router.GET("/whoami", AuthMiddleware(parse, testLogger()), func(c *gin.Context) {
		userID, _ := currentUserID(c)
		c.String(http.StatusOK, userID)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "u42"},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
