package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
	}
}

// @Router /catalog/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalogService.Subjects(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

// @Router /catalog/topics [get]
func (h *CatalogHandler) ListTopics(c *gin.Context) {
	topics, err := h.catalogService.Topics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// @Router /catalog/subjects/{subject}/count [get]
func (h *CatalogHandler) CountBySubject(c *gin.Context) {
	subject := ParseStringIDParam(c, "subject")
	if subject == "" {
		return
	}

	count, err := h.catalogService.CountBySubject(c.Request.Context(), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

// @Router /catalog/topics/{topic}/count [get]
func (h *CatalogHandler) CountByTopic(c *gin.Context) {
	topic := ParseStringIDParam(c, "topic")
	if topic == "" {
		return
	}

	count, err := h.catalogService.CountByTopic(c.Request.Context(), topic)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

// RandomQuestion returns one question without its answer key
// @Router /catalog/questions/random [get]
func (h *CatalogHandler) RandomQuestion(c *gin.Context) {
	question, err := h.catalogService.RandomQuestion(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}
