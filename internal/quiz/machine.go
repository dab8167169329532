package quiz

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

type State int

const (
	StateAwaitingAnswer State = iota
	StateShowingResult
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateShowingResult:
		return "showing_result"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Machine drives one session through its questions. It is not safe for
// concurrent use; callers serialize events per session.
type Machine struct {
	sessionID string
	userID    string
	questions []models.Question
	index     int
	state     State
	attempts  []models.QuestionAttempt
	now       func() time.Time
}

type MachineOption func(*Machine)

// WithClock overrides the time source used for answeredAt.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine starts in AwaitingAnswer(0). An empty question list fails with
// ErrNoQuestionsAvailable.
func NewMachine(sessionID, userID string, questions []models.Question, opts ...MachineOption) (*Machine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	m := &Machine{
		sessionID: sessionID,
		userID:    userID,
		questions: append([]models.Question(nil), questions...),
		state:     StateAwaitingAnswer,
		attempts:  make([]models.QuestionAttempt, 0, len(questions)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Machine) SessionID() string { return m.sessionID }
func (m *Machine) UserID() string    { return m.userID }
func (m *Machine) State() State      { return m.state }
func (m *Machine) Index() int        { return m.index }
func (m *Machine) Total() int        { return len(m.questions) }

// Current returns the question at the current index, or false once completed.
func (m *Machine) Current() (models.Question, bool) {
	if m.state == StateCompleted {
		return models.Question{}, false
	}
	return m.questions[m.index], true
}

func (m *Machine) QuestionAt(i int) (models.Question, bool) {
	if i < 0 || i >= len(m.questions) {
		return models.Question{}, false
	}
	return m.questions[i], true
}

// Submit records the answer for the current question and moves to
// ShowingResult. The returned attempt carries its final id and still has to
// be persisted by the caller.
func (m *Machine) Submit(option string) (models.QuestionAttempt, error) {
	switch m.state {
	case StateShowingResult:
		return models.QuestionAttempt{}, ErrAnswerAlreadyRecorded
	case StateCompleted:
		return models.QuestionAttempt{}, ErrSessionCompleted
	}

	q := m.questions[m.index]
	if !q.HasOption(option) {
		return models.QuestionAttempt{}, fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}

	attempt := models.QuestionAttempt{
		ID:            uuid.NewString(),
		SessionID:     m.sessionID,
		QuestionIndex: m.index,
		UserID:        m.userID,
		QuestionID:    q.ID,
		Subject:       q.Subject,
		Topic:         q.Topic,
		ChosenOption:  option,
		CorrectOption: q.CorrectOption,
		IsCorrect:     q.IsCorrect(option),
		AnsweredAt:    m.now().UTC(),
	}
	m.attempts = append(m.attempts, attempt)
	m.state = StateShowingResult
	return attempt, nil
}

// Advance moves ShowingResult(i) to AwaitingAnswer(i+1), or to Completed
// after the last question. The caller finalizes the session when the
// returned state is StateCompleted.
func (m *Machine) Advance() (State, error) {
	switch m.state {
	case StateAwaitingAnswer:
		return m.state, ErrNotAwaitingAdvance
	case StateCompleted:
		return m.state, ErrSessionCompleted
	}

	if m.index+1 < len(m.questions) {
		m.index++
		m.state = StateAwaitingAnswer
	} else {
		m.state = StateCompleted
	}
	return m.state, nil
}

// LastAttempt is the attempt shown while in ShowingResult.
func (m *Machine) LastAttempt() (models.QuestionAttempt, bool) {
	if len(m.attempts) == 0 {
		return models.QuestionAttempt{}, false
	}
	return m.attempts[len(m.attempts)-1], true
}

// Attempts returns a copy of the recorded attempts in answer order.
func (m *Machine) Attempts() []models.QuestionAttempt {
	return append([]models.QuestionAttempt(nil), m.attempts...)
}

func (m *Machine) CorrectCount() int {
	correct := 0
	for _, a := range m.attempts {
		if a.IsCorrect {
			correct++
		}
	}
	return correct
}

func (m *Machine) Summary() ResultSummary {
	return Summarize(len(m.attempts), m.CorrectCount())
}
