package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"payslip-system/internal/events"
	"payslip-system/internal/ingestion"
	ingestionerrors "payslip-system/internal/ingestion/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumePayslipIngestRequested drives the async ingestion path: each
// event names a job already committed by the API, and the consumer runs
// the pipeline for it. Jobs that completed before a redelivery commit
// without reprocessing.
func ConsumePayslipIngestRequested(
	ctx context.Context,
	reader *kafkago.Reader,
	ingestionService ingestion.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.payslip_ingest")
	log.Info("payslip ingest consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("payslip ingest consumer stopped")
				return
			}
			log.Error("fetch payslip ingest message failed", zap.Error(err))
			continue
		}

		var event events.PayslipIngestRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode payslip ingest event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		resp, err := ingestionService.Run(ctx, event.CompanyID, event.JobID)
		if err != nil {
			if isPermanentIngestFailure(err) {
				// The job already carries status error with the
				// reason; retrying the event cannot fix the file.
				log.Warn("payslip ingest failed permanently",
					zap.String("job_id", event.JobID),
					zap.String("company_id", event.CompanyID),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			if errors.Is(err, ingestion.ErrJobFaulted) {
				// The pipeline already finished the job with status
				// error; a redelivery would only short-circuit on it.
				log.Warn("payslip ingest failed, job marked error",
					zap.String("job_id", event.JobID),
					zap.String("company_id", event.CompanyID),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			// The pipeline never took ownership of the job (lookup or
			// state-transition trouble); leave the message for
			// redelivery.
			log.Error("payslip ingest interrupted, leaving for redelivery",
				zap.String("job_id", event.JobID),
				zap.String("company_id", event.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit payslip ingest message failed", zap.Error(err))
			continue
		}

		log.Info("payslip ingest completed",
			zap.String("job_id", event.JobID),
			zap.String("company_id", event.CompanyID),
			zap.Int("processed", resp.ProcessedCount),
			zap.Int("skipped", resp.SkippedCount),
			zap.Int("errors", resp.ErrorCount),
		)
	}
}

// isPermanentIngestFailure distinguishes bad input from transient
// infrastructure trouble. Bad input is committed away; everything else
// is left on the topic for redelivery.
func isPermanentIngestFailure(err error) bool {
	permanent := []error{
		ingestionerrors.ErrMissingMapping,
		ingestionerrors.ErrNoEmployeeCodeColumn,
		ingestionerrors.ErrNoResolvableColumns,
		ingestionerrors.ErrEmptyFile,
		ingestionerrors.ErrUnsupportedFile,
		ingestionerrors.ErrJobNotFound,
	}
	for _, p := range permanent {
		if errors.Is(err, p) {
			return true
		}
	}
	return false
}
