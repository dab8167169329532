package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/SAP-F-2025/practice-service/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

type HandlerManager struct {
	sessionHandler     *SessionHandler
	performanceHandler *PerformanceHandler
	catalogHandler     *CatalogHandler
	quizService        services.QuizService
	health             map[string]HealthChecker
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	health map[string]HealthChecker,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:     NewSessionHandler(serviceManager.Quiz(), logger),
		performanceHandler: NewPerformanceHandler(serviceManager.Performance(), serviceManager.Export(), logger),
		catalogHandler:     NewCatalogHandler(serviceManager.Catalog(), logger),
		quizService:        serviceManager.Quiz(),
		health:             health,
	}
}

// SetupRoutes sets up all API routes. auth guards every /api/v1 route.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", hm.HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/subjects", hm.catalogHandler.ListSubjects)
			catalog.GET("/subjects/:subject/count", hm.catalogHandler.CountBySubject)
			catalog.GET("/topics", hm.catalogHandler.ListTopics)
			catalog.GET("/topics/:topic/count", hm.catalogHandler.CountByTopic)
			catalog.GET("/questions/random", hm.catalogHandler.RandomQuestion)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/advance", hm.sessionHandler.Advance)
		}

		me := v1.Group("/me")
		{
			me.GET("/performance", hm.performanceHandler.GetOverview)
			me.GET("/performance/export", hm.performanceHandler.ExportPerformance)
			me.GET("/stats", hm.performanceHandler.ListStats)
			me.GET("/sessions", hm.performanceHandler.ListSessions)
		}
	}
}

// HealthCheck pings each dependency and reports 503 if any fails
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(hm.health))
	for name, check := range hm.health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":          overall,
		"service":         "practice-service",
		"checks":          checks,
		"active_sessions": hm.quizService.ActiveSessions(),
	})
}
