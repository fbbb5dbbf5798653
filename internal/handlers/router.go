package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/services"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/utils"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	authMiddleware *CasdoorAuthMiddleware
	health         func(ctx context.Context) error
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager.Session(), serviceManager.Answers(), serviceManager.Export(), logger),
		authMiddleware: authMiddleware,
		health:         serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)

			sessions.GET("/:id/review", teacherOnly, hm.sessionHandler.ReviewSession)
			sessions.DELETE("/:id", teacherOnly, hm.sessionHandler.DeleteSession)
		}

		tests := v1.Group("/tests", teacherOnly)
		{
			tests.POST("/:id/rescore", hm.sessionHandler.RescoreTest)
			tests.GET("/:id/results/export", ExposeHeaders("Content-Disposition"), hm.sessionHandler.ExportResults)
		}

		v1.DELETE("/questions/:id/answers", teacherOnly, hm.sessionHandler.ResetQuestionAnswers)

		v1.GET("/profile", hm.sessionHandler.GetProfile)
	}
}

// HealthCheck reports database connectivity
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
