package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/gin-gonic/gin"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parsePagination reads limit and offset query values; bad values fall back
// to zero and the service applies its defaults.
func parsePagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return limit, offset
}

// handleServiceError maps service errors to HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", err, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidOption):
		h.RespondWithError(c, http.StatusBadRequest, "Option is not offered by this question", err)
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Session not found", err)
	case errors.Is(err, services.ErrSessionExpired):
		h.RespondWithError(c, http.StatusGone, "Session is no longer active", err)
	case errors.Is(err, services.ErrNoQuestionsAvailable):
		h.RespondWithError(c, http.StatusUnprocessableEntity, "No questions available for this selection", err)
	case errors.Is(err, services.ErrAnswerAlreadyRecorded):
		h.RespondWithError(c, http.StatusConflict, "Answer already recorded for this question", err)
	case errors.Is(err, services.ErrNotAwaitingAdvance):
		h.RespondWithError(c, http.StatusConflict, "Answer the current question first", err)
	case errors.Is(err, services.ErrSessionCompleted):
		h.RespondWithError(c, http.StatusConflict, "Session already completed", err)
	case errors.Is(err, services.ErrSourceUnavailable):
		h.RespondWithError(c, http.StatusBadGateway, "Question bank unavailable", err)
	case errors.Is(err, services.ErrPersistenceFailure):
		h.RespondWithError(c, http.StatusServiceUnavailable, "Storage temporarily unavailable", err)
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, "Access denied", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
