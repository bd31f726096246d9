package ingestion

import (
	"payslip-system/internal/middleware"

	"github.com/gin-gonic/gin"

	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	ingestions := r.Group("/ingestions")
	ingestions.Use(middleware.AuthMiddleware())
	{
		ingestions.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.Idempotency(rdb),
			handler.Submit,
		)
		ingestions.GET("/stale", handler.ListStale)
		ingestions.GET("/:id", handler.GetJob)
		ingestions.GET("/:id/logs", handler.GetLogs)
	}
}
