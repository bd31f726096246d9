package app

import (
	"database/sql"

	"payslip-system/internal/employee"
	"payslip-system/internal/ingestion"
	"payslip-system/internal/mapping"
	"payslip-system/internal/messaging/kafka"
	"payslip-system/internal/middleware"
	"payslip-system/internal/payslip"
	"payslip-system/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	ingestionRepo := ingestion.NewRepository(gormDB, db)
	mappingRepo := mapping.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	payslipRepo := payslip.NewRepository(gormDB)

	// --- Services ---
	mappingService := mapping.NewService(mappingRepo)
	payslipService := payslip.NewService(payslipRepo, employeeRepo, zap.L())
	ingestionService := ingestion.NewService(
		db,
		ingestionRepo,
		outboxRepo,
		mappingService,
		payslipRepo,
		employeeRepo,
		counterRepo,
		ingestion.NewHTTPFileFetcher(),
		zap.L(),
	)

	// --- Handlers ---
	ingestionHandler := ingestion.NewHandler(ingestionService, rdb)
	mappingHandler := mapping.NewHandler(mappingService)
	payslipHandler := payslip.NewHandler(payslipService)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(50, 100))

	api := router.Group("/api/v1")
	{
		ingestion.RegisterRoutes(api, ingestionHandler, rdb)
		mapping.RegisterRoutes(api, mappingHandler)
		payslip.RegisterRoutes(api, payslipHandler)
	}

	return nil
}
