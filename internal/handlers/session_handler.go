package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewSessionHandler(quizService services.QuizService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// StartSession builds a quiz and opens it on the first question
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.StartSessionRequest true "Quiz selection"
// @Success 201 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Starting session", "subject", req.Subject, "topics", len(req.Topics))

	view, err := h.quizService.StartSession(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession returns the session's current state
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	view, err := h.quizService.GetSession(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAnswer records the answer for the current question
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param answer body services.SubmitAnswerRequest true "Chosen option"
// @Success 200 {object} services.SessionView
// @Success 202 {object} services.SessionView "answer kept, storage pending"
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	view, err := h.quizService.SubmitAnswer(c.Request.Context(), userID, id, &req)
	h.respondWithView(c, view, err)
}

// Advance moves to the next question, or completes the session
// @Summary Advance session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Success 202 {object} services.SessionView "completed, finalization pending"
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/advance [post]
func (h *SessionHandler) Advance(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	view, err := h.quizService.Advance(c.Request.Context(), userID, id)
	h.respondWithView(c, view, err)
}

// respondWithView answers 202 when the event was applied but its write is
// still pending.
func (h *SessionHandler) respondWithView(c *gin.Context, view *services.SessionView, err error) {
	if err != nil {
		if view != nil && errors.Is(err, services.ErrPersistenceFailure) {
			h.LogWarn(c, "Session event applied with pending writes",
				"session_id", view.ID,
				"pending_writes", view.PendingWrites,
				"error", err.Error())
			c.JSON(http.StatusAccepted, view)
			return
		}
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
