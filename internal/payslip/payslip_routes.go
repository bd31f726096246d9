package payslip

import (
	"payslip-system/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	payslips := r.Group("/payslips")
	payslips.Use(middleware.AuthMiddleware())
	{
		payslips.GET("", handler.GetAll)
		payslips.GET("/:id", handler.GetById)
		payslips.POST("/backfill-users", middleware.RateLimitByUser(0.5, 2), handler.BackfillUsers)
	}
}
