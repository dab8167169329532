package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/quiz"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/SAP-F-2025/practice-service/pkg/monitoring"
)

// QuizService runs quiz sessions: build, answer, advance, finalize.
type QuizService interface {
	StartSession(ctx context.Context, userID string, req *StartSessionRequest) (*SessionView, error)
	GetSession(ctx context.Context, userID, sessionID string) (*SessionView, error)
	// SubmitAnswer and Advance may return a view together with
	// ErrPersistenceFailure: the event was applied in memory but not yet
	// stored.
	SubmitAnswer(ctx context.Context, userID, sessionID string, req *SubmitAnswerRequest) (*SessionView, error)
	Advance(ctx context.Context, userID, sessionID string) (*SessionView, error)

	ActiveSessions() int
	EvictIdle(cutoff time.Time) int
}

type QuizConfig struct {
	DefaultQuestionCount int
	MaxQuestionCount     int
	DedupeQuestions      bool
	PersistenceTimeout   time.Duration
	PersistenceRetries   int
	RetryBackoff         time.Duration
}

// activeSession is the in-memory side of one open session. mu serializes
// every event for the session.
type activeSession struct {
	mu      sync.Mutex
	machine *quiz.Machine
	record  models.StudySession
	// pending holds attempts the database has not accepted yet, in order.
	pending            []models.QuestionAttempt
	completedPersisted bool
	aggregated         bool
	closed             bool
	lastActivity       time.Time
}

type quizService struct {
	repo       repositories.Repository
	builder    *quiz.Builder
	aggregator StatisticsAggregator
	validator  *validator.Validator
	publisher  events.EventPublisher
	logger     *ServiceLogger
	config     QuizConfig
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*activeSession
}

func NewQuizService(
	repo repositories.Repository,
	source quiz.QuestionSource,
	aggregator StatisticsAggregator,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	config QuizConfig,
) QuizService {
	if config.PersistenceRetries < 1 {
		config.PersistenceRetries = 1
	}
	if config.PersistenceTimeout <= 0 {
		config.PersistenceTimeout = 5 * time.Second
	}

	s := &quizService{
		repo:       repo,
		aggregator: aggregator,
		validator:  v,
		publisher:  publisher,
		logger:     NewServiceLogger(logger, LogConfig{Service: "practice", Component: "quiz"}),
		config:     config,
		now:        time.Now,
		sessions:   make(map[string]*activeSession),
	}
	s.builder = quiz.NewBuilder(source,
		quiz.WithDefaultCount(config.DefaultQuestionCount),
		quiz.WithMaxCount(config.MaxQuestionCount),
		quiz.WithQuestionFilter(s.dropMalformed),
	)
	return s
}

// dropMalformed runs before the builder truncates, so valid questions further
// down a group take the place of rejected ones.
func (s *quizService) dropMalformed(ctx context.Context, questions []models.Question) []models.Question {
	valid, problems := s.validator.Question().FilterValid(questions)
	for _, problem := range problems {
		s.logger.Logger().WarnContext(ctx, "Dropping malformed question", "error", problem)
	}
	return valid
}

// ===== LIFECYCLE =====

func (s *quizService) StartSession(ctx context.Context, userID string, req *StartSessionRequest) (*SessionView, error) {
	op := s.logger.WithOperation(ctx, "start_session", userID)

	if err := s.validator.ValidateStruct(req); err != nil {
		op.LogResult("", "session", err)
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = models.SessionKindPractice
	}
	dedupe := s.config.DedupeQuestions
	if req.Dedupe != nil {
		dedupe = *req.Dedupe
	}
	topics := quiz.NormalizeTopics(req.Topics)
	count := s.builder.EffectiveCount(int(req.Count))

	questions, err := s.builder.Build(ctx, quiz.Request{
		Subject: req.Subject,
		Topics:  topics,
		Count:   count,
		Dedupe:  dedupe,
	})
	if err != nil {
		op.LogResult("", "session", err)
		return nil, err
	}

	sessionID := uuid.NewString()
	machine, err := quiz.NewMachine(sessionID, userID, questions, quiz.WithClock(s.now))
	if err != nil {
		op.LogResult("", "session", err)
		return nil, err
	}

	record := models.StudySession{
		ID:             sessionID,
		UserID:         userID,
		Kind:           kind,
		Subject:        req.Subject,
		RequestedCount: count,
		TotalQuestions: machine.Total(),
		StartedAt:      s.now().UTC(),
	}
	if err := record.SetTopics(topics); err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, fmt.Errorf("failed to encode topics: %w", err)
	}

	err = s.withRetry(ctx, "create_session", func(ctx context.Context) error {
		return s.repo.Session().Create(ctx, nil, &record)
	})
	if err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}

	active := &activeSession{
		machine:      machine,
		record:       record,
		lastActivity: s.now(),
	}
	s.mu.Lock()
	s.sessions[sessionID] = active
	s.mu.Unlock()

	monitoring.SessionsStarted.WithLabelValues(string(kind)).Inc()
	s.publish(ctx, events.NewSessionStartedEvent(events.SessionStartedEvent{
		SessionID:      sessionID,
		UserID:         userID,
		Kind:           string(kind),
		Subject:        req.Subject,
		Topics:         topics,
		RequestedCount: count,
		TotalQuestions: machine.Total(),
		StartedAt:      record.StartedAt,
	}))

	op.LogResult(sessionID, "session", nil)

	active.mu.Lock()
	defer active.mu.Unlock()
	return s.viewOf(active), nil
}

func (s *quizService) GetSession(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	active, record, err := s.lookup(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		recovered, err := s.recoverStored(ctx, record)
		if err != nil {
			return nil, err
		}
		if !recovered {
			return nil, ErrSessionExpired
		}
		return completedView(record), nil
	}

	active.mu.Lock()
	defer active.mu.Unlock()
	return s.viewOf(active), nil
}

func (s *quizService) SubmitAnswer(ctx context.Context, userID, sessionID string, req *SubmitAnswerRequest) (*SessionView, error) {
	op := s.logger.WithOperation(ctx, "submit_answer", userID)

	if err := s.validator.ValidateStruct(req); err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}

	active, recovered, err := s.activeFor(ctx, userID, sessionID)
	if err == nil && recovered != nil {
		err = ErrSessionCompleted
	}
	if err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}

	active.mu.Lock()
	defer active.mu.Unlock()
	if active.closed {
		err := closedError(active)
		op.LogResult(sessionID, "session", err)
		return nil, err
	}
	active.lastActivity = s.now()

	attempt, err := active.machine.Submit(req.Option)
	if err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}
	monitoring.RecordAnswer(attempt.IsCorrect)

	active.pending = append(active.pending, attempt)
	err = s.flushPending(ctx, active)
	op.LogResult(sessionID, "session", err)
	return s.viewOf(active), err
}

func (s *quizService) Advance(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	op := s.logger.WithOperation(ctx, "advance", userID)

	active, recovered, err := s.activeFor(ctx, userID, sessionID)
	if err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}
	if recovered != nil {
		op.LogResult(sessionID, "session", nil)
		return completedView(recovered), nil
	}

	active.mu.Lock()
	defer active.mu.Unlock()
	if active.closed {
		err := closedError(active)
		op.LogResult(sessionID, "session", err)
		return nil, err
	}
	active.lastActivity = s.now()

	// A completed machine here means an earlier finalization failed.
	if active.machine.State() != quiz.StateCompleted {
		state, err := active.machine.Advance()
		if err != nil {
			op.LogResult(sessionID, "session", err)
			return nil, err
		}
		if state != quiz.StateCompleted {
			op.LogResult(sessionID, "session", nil)
			return s.viewOf(active), nil
		}
	}

	if err := s.finalize(ctx, active); err != nil {
		op.LogResult(sessionID, "session", err)
		return s.viewOf(active), err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	op.LogResult(sessionID, "session", nil)
	return s.viewOf(active), nil
}

// finalize runs once per session: flush queued attempts, store the score,
// then aggregate. Each step remembers its success so a retry resumes where
// the previous call stopped.
func (s *quizService) finalize(ctx context.Context, active *activeSession) error {
	if err := s.flushPending(ctx, active); err != nil {
		return err
	}

	if !active.completedPersisted {
		correct := active.machine.CorrectCount()
		completedAt := s.now().UTC()
		err := s.withRetry(ctx, "complete_session", func(ctx context.Context) error {
			_, err := s.repo.Session().Complete(ctx, nil, active.record.ID, correct, completedAt)
			return err
		})
		if err != nil {
			return err
		}
		active.completedPersisted = true
		active.record.CorrectAnswers = correct
		active.record.CompletedAt = &completedAt

		monitoring.SessionsCompleted.WithLabelValues(string(active.record.Kind)).Inc()
		s.publish(ctx, events.NewSessionCompletedEvent(events.SessionCompletedEvent{
			SessionID:   active.record.ID,
			UserID:      active.record.UserID,
			Kind:        string(active.record.Kind),
			Total:       active.machine.Total(),
			Correct:     correct,
			CompletedAt: completedAt,
		}))
	}

	if !active.aggregated {
		result, err := s.aggregator.Aggregate(ctx, active.machine.Attempts())
		if err != nil {
			return err
		}
		active.aggregated = true
		s.logger.Logger().InfoContext(ctx, "Session statistics aggregated",
			"session_id", active.record.ID,
			"applied", result.Applied,
			"skipped", result.Skipped)
	}

	active.closed = true
	return nil
}

// ===== REGISTRY =====

func (s *quizService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle drops sessions with no activity since cutoff. Sessions holding
// unsaved answers or an unfinished finalization stay registered until a
// later Advance stores them.
func (s *quizService) EvictIdle(cutoff time.Time) int {
	s.mu.RLock()
	candidates := make([]*activeSession, 0, len(s.sessions))
	for _, active := range s.sessions {
		candidates = append(candidates, active)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, active := range candidates {
		active.mu.Lock()
		if active.lastActivity.Before(cutoff) && !active.closed {
			if len(active.pending) > 0 || active.machine.State() == quiz.StateCompleted {
				s.logger.Logger().Warn("Keeping idle session with unsaved state",
					"session_id", active.record.ID,
					"pending", len(active.pending),
					"state", active.machine.State().String())
				active.mu.Unlock()
				continue
			}
			active.closed = true
			s.mu.Lock()
			delete(s.sessions, active.record.ID)
			s.mu.Unlock()
			evicted++
		}
		active.mu.Unlock()
	}
	return evicted
}

// lookup returns the live session, or the stored record when the session is
// not held in memory.
func (s *quizService) lookup(ctx context.Context, userID, sessionID string) (*activeSession, *models.StudySession, error) {
	s.mu.RLock()
	active, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if ok {
		if active.record.UserID != userID {
			return nil, nil, NewPermissionError(userID, sessionID, "session", "access", "not the session owner")
		}
		return active, nil, nil
	}

	var record *models.StudySession
	err := s.withRetry(ctx, "get_session", func(ctx context.Context) error {
		var err error
		record, err = s.repo.Session().GetByID(ctx, nil, sessionID)
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	if record.UserID != userID {
		return nil, nil, NewPermissionError(userID, sessionID, "session", "access", "not the session owner")
	}
	return nil, record, nil
}

// activeFor returns the live session. When the session is no longer held in
// memory but every answer reached the database, it is finalized from the
// stored attempts and the completed record is returned instead.
func (s *quizService) activeFor(ctx context.Context, userID, sessionID string) (*activeSession, *models.StudySession, error) {
	active, record, err := s.lookup(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		return active, nil, nil
	}
	if record.IsCompleted() {
		return nil, nil, ErrSessionCompleted
	}
	recovered, err := s.recoverStored(ctx, record)
	if err != nil {
		return nil, nil, err
	}
	if !recovered {
		return nil, nil, ErrSessionExpired
	}
	return nil, record, nil
}

// recoverStored completes and aggregates an unfinished stored session whose
// attempts are all in the database, updating record in place. It reports
// false when answers are missing. Both writes are conditional, so a
// concurrent recovery of the same session is harmless.
func (s *quizService) recoverStored(ctx context.Context, record *models.StudySession) (bool, error) {
	if record.IsCompleted() {
		return true, nil
	}
	if record.TotalQuestions == 0 {
		return false, nil
	}

	var stored int64
	err := s.withRetry(ctx, "count_attempts", func(ctx context.Context) error {
		var err error
		stored, err = s.repo.Attempt().CountBySession(ctx, nil, record.ID)
		return err
	})
	if err != nil {
		return false, err
	}
	if stored < int64(record.TotalQuestions) {
		return false, nil
	}

	var rows []*models.QuestionAttempt
	err = s.withRetry(ctx, "load_attempts", func(ctx context.Context) error {
		var err error
		rows, err = s.repo.Attempt().GetBySession(ctx, nil, record.ID)
		return err
	})
	if err != nil {
		return false, err
	}
	attempts := make([]models.QuestionAttempt, 0, len(rows))
	correct := 0
	for _, row := range rows {
		attempts = append(attempts, *row)
		if row.IsCorrect {
			correct++
		}
	}

	completedAt := s.now().UTC()
	var updated bool
	err = s.withRetry(ctx, "complete_session", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Session().Complete(ctx, nil, record.ID, correct, completedAt)
		return err
	})
	if err != nil {
		return false, err
	}
	if updated {
		record.CorrectAnswers = correct
		record.CompletedAt = &completedAt
		monitoring.SessionsCompleted.WithLabelValues(string(record.Kind)).Inc()
		s.publish(ctx, events.NewSessionCompletedEvent(events.SessionCompletedEvent{
			SessionID:   record.ID,
			UserID:      record.UserID,
			Kind:        string(record.Kind),
			Total:       record.TotalQuestions,
			Correct:     correct,
			CompletedAt: completedAt,
		}))
	} else {
		err = s.withRetry(ctx, "get_session", func(ctx context.Context) error {
			current, err := s.repo.Session().GetByID(ctx, nil, record.ID)
			if err == nil {
				*record = *current
			}
			return err
		})
		if err != nil {
			return false, err
		}
	}

	result, err := s.aggregator.Aggregate(ctx, attempts)
	if err != nil {
		return false, err
	}
	s.logger.Logger().InfoContext(ctx, "Recovered session from stored attempts",
		"session_id", record.ID,
		"correct", correct,
		"applied", result.Applied,
		"skipped", result.Skipped)
	return true, nil
}

// closedError tells a finished session apart from one evicted while the
// caller held it.
func closedError(active *activeSession) error {
	if active.aggregated {
		return ErrSessionCompleted
	}
	return ErrSessionExpired
}

// ===== PERSISTENCE =====

// flushPending writes queued attempts in answer order and stops at the first
// failure, leaving it and everything after it queued.
func (s *quizService) flushPending(ctx context.Context, active *activeSession) error {
	for len(active.pending) > 0 {
		attempt := active.pending[0]
		err := s.withRetry(ctx, "append_attempt", func(ctx context.Context) error {
			return s.repo.Attempt().Create(ctx, nil, &attempt)
		})
		if err != nil {
			s.logger.Logger().ErrorContext(ctx, "Attempt kept in memory after persistence failure",
				"session_id", active.record.ID,
				"question_index", attempt.QuestionIndex,
				"pending", len(active.pending),
				"error", err)
			return err
		}
		active.pending = active.pending[1:]
	}
	return nil
}

// withRetry runs fn with a per call timeout, retrying with linear backoff.
// Not found errors are returned as is; exhausted retries are wrapped in
// ErrPersistenceFailure.
func (s *quizService) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.config.PersistenceRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.config.PersistenceTimeout)
		err = fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if repositories.IsNotFoundError(err) {
			return err
		}
		if attempt == s.config.PersistenceRetries || ctx.Err() != nil {
			break
		}

		s.logger.Logger().WarnContext(ctx, "Retrying persistence call",
			"operation", operation,
			"attempt", attempt,
			"error", err)

		select {
		case <-time.After(s.config.RetryBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrPersistenceFailure, operation, ctx.Err())
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistenceFailure, operation, err)
}

func (s *quizService) publish(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to publish quiz event",
			"event_type", event.Type,
			"error", err)
	}
}

// ===== VIEWS =====

func (s *quizService) viewOf(active *activeSession) *SessionView {
	m := active.machine
	view := &SessionView{
		ID:            active.record.ID,
		Kind:          active.record.Kind,
		Subject:       active.record.Subject,
		Topics:        active.record.TopicList(),
		State:         m.State().String(),
		Index:         m.Index(),
		Total:         m.Total(),
		Answered:      len(m.Attempts()),
		Correct:       m.CorrectCount(),
		Finalized:     active.closed,
		PendingWrites: len(active.pending),
		StartedAt:     active.record.StartedAt,
		CompletedAt:   active.record.CompletedAt,
	}

	if q, ok := m.Current(); ok {
		view.Question = newQuestionView(q)
	}

	if m.State() != quiz.StateAwaitingAnswer {
		if last, ok := m.LastAttempt(); ok {
			result := &AnswerResultView{
				QuestionID:    last.QuestionID,
				ChosenOption:  last.ChosenOption,
				CorrectOption: last.CorrectOption,
				IsCorrect:     last.IsCorrect,
			}
			if q, ok := m.QuestionAt(last.QuestionIndex); ok {
				result.Explanation = q.Explanation
			}
			view.LastResult = result
		}
	}

	if m.State() == quiz.StateCompleted {
		summary := m.Summary()
		view.Summary = &summary
	}
	return view
}

func completedView(record *models.StudySession) *SessionView {
	summary := quiz.Summarize(record.TotalQuestions, record.CorrectAnswers)
	index := record.TotalQuestions - 1
	if index < 0 {
		index = 0
	}
	return &SessionView{
		ID:          record.ID,
		Kind:        record.Kind,
		Subject:     record.Subject,
		Topics:      record.TopicList(),
		State:       quiz.StateCompleted.String(),
		Index:       index,
		Total:       record.TotalQuestions,
		Answered:    record.TotalQuestions,
		Correct:     record.CorrectAnswers,
		Summary:     &summary,
		Finalized:   true,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
	}
}
