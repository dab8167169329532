package quiz

import (
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func twoQuestions() []models.Question {
	return []models.Question{
		{ID: 1, Subject: "Con Law", Topic: "Due Process", OptionA: "a", OptionB: "b", CorrectOption: "A"},
		{ID: 2, Subject: "Con Law", Topic: "Federalism", OptionA: "a", OptionB: "b", CorrectOption: "B"},
	}
}

func TestNewMachine_EmptyQuestionList(t *testing.T) {
	m, err := NewMachine("s1", "u1", nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrNoQuestionsAvailable)
}

func TestMachine_FullRun(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions(), WithClock(fixedClock))
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingAnswer, m.State())
	assert.Equal(t, 0, m.Index())

	attempt, err := m.Submit("A")
	require.NoError(t, err)
	assert.True(t, attempt.IsCorrect)
	assert.Equal(t, 0, attempt.QuestionIndex)
	assert.Equal(t, "Due Process", attempt.Topic)
	assert.Equal(t, fixedClock(), attempt.AnsweredAt)
	assert.Equal(t, StateShowingResult, m.State())

	state, err := m.Advance()
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingAnswer, state)
	assert.Equal(t, 1, m.Index())

	attempt, err = m.Submit("A")
	require.NoError(t, err)
	assert.False(t, attempt.IsCorrect)
	assert.Equal(t, "B", attempt.CorrectOption)

	state, err = m.Advance()
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)

	assert.Equal(t, 1, m.CorrectCount())
	assert.Len(t, m.Attempts(), 2)
	_, ok := m.Current()
	assert.False(t, ok)

	summary := m.Summary()
	assert.Equal(t, ResultSummary{Total: 2, Correct: 1, Wrong: 1, Percentage: 50, Message: MessageGoodJob}, summary)
}

func TestMachine_SubmitWhileShowingResult(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions())
	require.NoError(t, err)

	_, err = m.Submit("B")
	require.NoError(t, err)

	_, err = m.Submit("A")
	assert.ErrorIs(t, err, ErrAnswerAlreadyRecorded)
	assert.Len(t, m.Attempts(), 1)
	last, ok := m.LastAttempt()
	require.True(t, ok)
	assert.Equal(t, "B", last.ChosenOption)
}

func TestMachine_AdvanceWithoutAnswer(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions())
	require.NoError(t, err)

	state, err := m.Advance()
	assert.ErrorIs(t, err, ErrNotAwaitingAdvance)
	assert.Equal(t, StateAwaitingAnswer, state)
	assert.Equal(t, 0, m.Index())
}

func TestMachine_InvalidOption(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions())
	require.NoError(t, err)

	for _, option := range []string{"C", "D", "a", ""} {
		_, err = m.Submit(option)
		assert.ErrorIs(t, err, ErrInvalidOption, option)
	}
	assert.Equal(t, StateAwaitingAnswer, m.State())
	assert.Empty(t, m.Attempts())
}

func TestMachine_CompletedIsTerminal(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions()[:1])
	require.NoError(t, err)

	_, err = m.Submit("A")
	require.NoError(t, err)
	state, err := m.Advance()
	require.NoError(t, err)
	require.Equal(t, StateCompleted, state)

	_, err = m.Submit("A")
	assert.ErrorIs(t, err, ErrSessionCompleted)
	_, err = m.Advance()
	assert.ErrorIs(t, err, ErrSessionCompleted)
	assert.Len(t, m.Attempts(), 1)
}

func TestMachine_AttemptsIsACopy(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions())
	require.NoError(t, err)
	_, err = m.Submit("A")
	require.NoError(t, err)

	attempts := m.Attempts()
	attempts[0].IsCorrect = false
	assert.Equal(t, 1, m.CorrectCount())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting_answer", StateAwaitingAnswer.String())
	assert.Equal(t, "showing_result", StateShowingResult.String())
	assert.Equal(t, "completed", StateCompleted.String())
}

func TestMachine_AttemptIDsAreAssigned(t *testing.T) {
	m, err := NewMachine("s1", "u1", twoQuestions())
	require.NoError(t, err)

	first, err := m.Submit("A")
	require.NoError(t, err)
	_, err = m.Advance()
	require.NoError(t, err)
	second, err := m.Submit("B")
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.ID, m.Attempts()[0].ID)
}
