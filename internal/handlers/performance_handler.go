package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PerformanceHandler struct {
	BaseHandler
	performanceService services.PerformanceService
	exportService      services.ExportService
}

func NewPerformanceHandler(performanceService services.PerformanceService, exportService services.ExportService, logger utils.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		BaseHandler:        NewBaseHandler(logger),
		performanceService: performanceService,
		exportService:      exportService,
	}
}

// GetOverview returns totals, per subject accuracy and recent sessions
// @Summary Performance overview
// @Tags performance
// @Produce json
// @Success 200 {object} services.PerformanceOverview
// @Router /me/performance [get]
func (h *PerformanceHandler) GetOverview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	overview, err := h.performanceService.GetOverview(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// ListStats returns the raw topic statistics rows
// @Router /me/stats [get]
func (h *PerformanceHandler) ListStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	stats, err := h.performanceService.ListStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListSessions returns the caller's sessions, newest first
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Router /me/sessions [get]
func (h *PerformanceHandler) ListSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	limit, offset := parsePagination(c)
	list, err := h.performanceService.ListSessions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// ExportPerformance streams the statistics as an xlsx workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /me/performance/export [get]
func (h *PerformanceHandler) ExportPerformance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Exporting performance")

	data, err := h.exportService.ExportPerformance(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("performance_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
