package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"payslip-system/internal/employee"
	"payslip-system/internal/events"
	"payslip-system/internal/ingestion"
	"payslip-system/internal/mapping"
	"payslip-system/internal/messaging/kafka"
	"payslip-system/internal/messaging/kafka/consumer"
	"payslip-system/internal/payslip"
	"payslip-system/internal/shared/connection"
	"payslip-system/internal/shared/counter"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	ingestionRepo := ingestion.NewRepository(gormDB, sqlDB)
	mappingRepo := mapping.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	payslipRepo := payslip.NewRepository(gormDB)

	mappingService := mapping.NewService(mappingRepo)
	ingestionService := ingestion.NewService(
		sqlDB,
		ingestionRepo,
		outboxRepo,
		mappingService,
		payslipRepo,
		employeeRepo,
		counterRepo,
		ingestion.NewHTTPFileFetcher(),
		zap.L(),
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.PayslipIngestRequestedTopic,
		GroupID:        "payslip-system-ingest",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumePayslipIngestRequested(ctx, reader, ingestionService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
