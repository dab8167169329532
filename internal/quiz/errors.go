package quiz

import "errors"

var (
	// ErrSourceUnavailable means the question bank could not be reached or
	// answered with a non-2xx status. Callers may retry the build step.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrNoQuestionsAvailable means the build succeeded with zero questions.
	ErrNoQuestionsAvailable = errors.New("no questions available")

	ErrAnswerAlreadyRecorded = errors.New("answer already recorded for current question")
	ErrNotAwaitingAdvance    = errors.New("current question has not been answered")
	ErrSessionCompleted      = errors.New("session already completed")
	ErrInvalidOption         = errors.New("option is not available for current question")
)
