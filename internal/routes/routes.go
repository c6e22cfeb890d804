package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	handler "warehouse-scan-backend/internal/handlers"
	"warehouse-scan-backend/internal/repository"
	"warehouse-scan-backend/internal/services/activity"
	"warehouse-scan-backend/internal/services/scanning"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	sessionRepo := repository.NewSessionRepository(db)
	itemRepo := repository.NewItemRepository(db)
	logRepo := repository.NewActivityLogRepository(db)

	recorder := activity.NewRecorder(logRepo)
	scanService := scanning.NewService(sessionRepo, itemRepo, recorder)

	sessionHandler := handler.NewSessionHandler(scanService, logRepo)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Session routes
	sessions := api.Group("/sessions")
	{
		sessions.GET("", sessionHandler.ListSessions)
		sessions.POST("", sessionHandler.CreateSession)
		sessions.GET("/:id", sessionHandler.GetSession)
		sessions.DELETE("/:id", sessionHandler.DeleteSession)
		sessions.POST("/:id/scan", sessionHandler.Scan)
		sessions.POST("/:id/toggle", sessionHandler.ToggleActive)
		sessions.GET("/:id/report", sessionHandler.GetReport)
	}

	// Activity log routes
	api.GET("/logs", sessionHandler.ListLogs)
}
