package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/practice-service/internal/errors"
	"github.com/SAP-F-2025/practice-service/internal/quiz"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Quiz engine errors, shared with the quiz package
	ErrSourceUnavailable     = quiz.ErrSourceUnavailable
	ErrNoQuestionsAvailable  = quiz.ErrNoQuestionsAvailable
	ErrAnswerAlreadyRecorded = quiz.ErrAnswerAlreadyRecorded
	ErrNotAwaitingAdvance    = quiz.ErrNotAwaitingAdvance
	ErrSessionCompleted      = quiz.ErrSessionCompleted
	ErrInvalidOption         = quiz.ErrInvalidOption

	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAccessDenied = errors.New("access denied to session")
	ErrSessionExpired      = errors.New("session is no longer active")

	// ErrPersistenceFailure wraps any persistence gateway failure that
	// survived the retry policy.
	ErrPersistenceFailure = errors.New("persistence gateway failure")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrSessionAccessDenied
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrSessionAccessDenied)
}

func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidOption) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict reports events that do not fit the session's current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAnswerAlreadyRecorded) ||
		errors.Is(err, ErrNotAwaitingAdvance) ||
		errors.Is(err, ErrSessionCompleted)
}

// IsUnavailable reports failures of an external dependency.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrPersistenceFailure)
}
