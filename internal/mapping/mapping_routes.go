package mapping

import (
	"payslip-system/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	mappings := r.Group("/mappings")
	mappings.Use(middleware.AuthMiddleware())
	{
		mappings.GET("/:kind", handler.Get)
		mappings.POST("", middleware.RateLimitByUser(3, 10), handler.Save)
		mappings.POST("/preview", middleware.RateLimitByUser(3, 10), handler.Preview)
		mappings.POST("/import", middleware.RateLimitByUser(3, 10), handler.Import)
		mappings.DELETE("/:kind", middleware.RateLimitByUser(0.5, 2), handler.Delete)
	}
}
