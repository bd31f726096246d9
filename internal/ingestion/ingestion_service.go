package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payslip-system/internal/employee"
	employeeerrors "payslip-system/internal/employee/errors"
	"payslip-system/internal/events"
	ingestionerrors "payslip-system/internal/ingestion/errors"
	"payslip-system/internal/mapping"
	mappingerrors "payslip-system/internal/mapping/errors"
	"payslip-system/internal/messaging/kafka"
	"payslip-system/internal/payslip"
	"payslip-system/internal/shared/contextutil"
	"payslip-system/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const uploadCounterType = "payslip_upload"

//go:generate mockgen -source=ingestion_service.go -destination=mock/ingestion_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID, userID string, req IngestRequest) (IngestResponse, error)
	Run(ctx context.Context, companyID, jobID string) (IngestResponse, error)
	GetJob(ctx context.Context, companyID, id string) (JobResponse, error)
	GetLogs(ctx context.Context, companyID, jobID string) ([]LogEntryResponse, error)
	ListStale(ctx context.Context, olderThan time.Duration) ([]JobResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	outbox    kafka.OutboxRepository
	mappings  mapping.Service
	payslips  payslip.Repository
	directory employee.Repository
	counters  counter.Repository
	fetcher   FileFetcher
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	outbox kafka.OutboxRepository,
	mappings mapping.Service,
	payslips payslip.Repository,
	directory employee.Repository,
	counters counter.Repository,
	fetcher FileFetcher,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		db:        db,
		repo:      repo,
		outbox:    outbox,
		mappings:  mappings,
		payslips:  payslips,
		directory: directory,
		counters:  counters,
		fetcher:   fetcher,
		logger:    logger.Named("ingestion.service"),
	}
}

// Submit validates the request, records the job, and either runs it in
// place or hands it to the consumer through the outbox.
func (s *service) Submit(
	ctx context.Context,
	companyID, userID string,
	req IngestRequest,
) (IngestResponse, error) {
	companyUUID, paymentDate, err := validateIngestRequest(companyID, req)
	if err != nil {
		return IngestResponse{}, err
	}

	kind := req.PayslipKind
	if kind == "" {
		kind = mapping.KindRegular
	}

	batchNo, err := s.counters.GetNextValue(ctx, companyID, uploadCounterType)
	if err != nil {
		return IngestResponse{}, err
	}

	job := &Job{
		ID:                   uuid.New(),
		CompanyID:            companyUUID,
		UploadID:             req.UploadID,
		BatchNo:              batchNo,
		FileURL:              req.FileURL,
		PaymentDate:          paymentDate,
		PayslipKind:          kind,
		RegisterNewEmployees: req.RegisterNewEmployees,
		Status:               StatusPending,
		RequestedBy:          userID,
	}

	if err := s.createJob(ctx, job, req.Async); err != nil {
		return IngestResponse{}, err
	}

	if req.Async {
		return IngestResponse{
			Success: true,
			JobID:   job.ID.String(),
			Status:  StatusPending,
			Message: "ingestion queued",
		}, nil
	}

	return s.Run(ctx, companyID, job.ID.String())
}

// createJob commits the job row and, for async submissions, the
// ingest-requested outbox event in the same transaction.
func (s *service) createJob(ctx context.Context, job *Job, async bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.CreateJob(ctx, job); err != nil {
		return err
	}

	if async {
		event := events.PayslipIngestRequestedEvent{
			EventType:            "payslip.ingest.requested",
			JobID:                job.ID.String(),
			UploadID:             job.UploadID,
			CompanyID:            job.CompanyID.String(),
			FileURL:              job.FileURL,
			PaymentDate:          job.PaymentDate.Format("2006-01-02"),
			PayslipKind:          job.PayslipKind,
			RegisterNewEmployees: job.RegisterNewEmployees,
			RequestedBy:          job.RequestedBy,
			OccurredAt:           time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		outboxEvent := kafka.OutboxEvent{
			ID:            uuid.New().String(),
			RequestID:     contextutil.GetRequestID(ctx),
			AggregateType: "ingestion_job",
			AggregateID:   job.ID.String(),
			EventType:     event.EventType,
			Topic:         events.PayslipIngestRequestedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}
		if err := s.outbox.WithTx(tx).Create(ctx, outboxEvent); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Run executes the pipeline for one job: fetch, parse, per-row
// transform, batched writes. Row-level problems are counted and logged;
// file-level problems abort the job with status error.
func (s *service) Run(ctx context.Context, companyID, jobID string) (IngestResponse, error) {
	job, err := s.repo.FindJobByIDAndCompany(ctx, companyID, jobID)
	if err != nil {
		return IngestResponse{}, err
	}

	// Redelivered events must not reprocess a finished job.
	if job.Status == StatusCompleted || job.Status == StatusError {
		return jobToIngestResponse(job), nil
	}

	// A job found already in processing was interrupted mid-run; rows
	// from its committed batches are removed so the rerun does not
	// duplicate them.
	if job.Status == StatusProcessing {
		removed, err := s.payslips.DeleteByUpload(ctx, companyID, job.UploadID)
		if err != nil {
			return IngestResponse{}, err
		}
		if removed > 0 {
			s.logInfo(ctx, job.ID, fmt.Sprintf("removed %d payslips left by an interrupted run", removed), nil, nil)
		}
	}

	if err := s.repo.MarkProcessing(ctx, job.ID.String()); err != nil {
		return IngestResponse{}, err
	}
	s.logInfo(ctx, job.ID, "ingestion started", nil, nil)

	model, err := s.mappings.LoadModel(ctx, companyID, job.PayslipKind)
	if err != nil {
		if errors.Is(err, mappingerrors.ErrMappingNotFound) {
			return s.failJob(ctx, job, ingestionerrors.ErrMissingMapping)
		}
		return s.failJob(ctx, job, err)
	}
	if model.MainFields.EmployeeCode == nil || model.MainFields.EmployeeCode.HeaderName == "" {
		return s.failJob(ctx, job, ingestionerrors.ErrNoEmployeeCodeColumn)
	}

	data, err := s.fetcher.Fetch(ctx, job.FileURL)
	if err != nil {
		return s.failJob(ctx, job, err)
	}

	rows, err := parseRows(data)
	if err != nil {
		return s.failJob(ctx, job, err)
	}
	if len(rows) < 2 {
		return s.failJob(ctx, job, ingestionerrors.ErrEmptyFile)
	}

	colIdx := headerIndex(rows[0])

	empPos, ok := colIdx[model.MainFields.EmployeeCode.HeaderName]
	if !ok {
		return s.failJob(ctx, job, ingestionerrors.ErrNoEmployeeCodeColumn)
	}

	// Flattened once; the row loop below reuses it.
	cols := model.Columns()

	resolvable := 0
	for _, col := range cols {
		if _, present := colIdx[col.HeaderName]; present {
			resolvable++
		}
	}
	if resolvable == 0 {
		return s.failJob(ctx, job, ingestionerrors.ErrNoResolvableColumns)
	}
	s.logInfo(ctx, job.ID, fmt.Sprintf("header resolved: %d of %d mapped columns present", resolvable, len(cols)), nil, nil)

	deptPos := -1
	if model.MainFields.DepartmentCode != nil {
		if pos, present := colIdx[model.MainFields.DepartmentCode.HeaderName]; present {
			deptPos = pos
		}
	}

	var batch []payslip.Payslip
	dirCache := map[string]*employee.Employee{}

	// Rows are processed in file order so log entries line up with the
	// source file.
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, counting the header row

		empCode := cellAt(row, empPos)
		if empCode == "" {
			job.SkippedCount++
			s.logInfo(ctx, job.ID, "row skipped: employee code cell is empty", &rowNum, nil)
			continue
		}

		record, rowErr := s.buildRecord(ctx, job, cols, colIdx, row, empCode, deptPos, rowNum, dirCache)
		if rowErr != nil {
			job.ErrorCount++
			s.logError(ctx, job.ID, rowErr.Error(), &rowNum, nil)
			continue
		}

		batch = append(batch, *record)
		job.ProcessedCount++

		if len(batch) == payslip.MaxWriteBatchSize {
			if err := s.commitBatch(ctx, job, batch); err != nil {
				return s.failJob(ctx, job, err)
			}
			batch = nil
		}
	}

	if err := s.commitBatch(ctx, job, batch); err != nil {
		return s.failJob(ctx, job, err)
	}

	if job.ProcessedCount == 0 {
		return s.failJob(ctx, job, ingestionerrors.ErrEmptyFile)
	}

	if err := s.repo.MarkCompleted(ctx, job); err != nil {
		return IngestResponse{}, err
	}
	summary := fmt.Sprintf("ingestion completed: %d processed, %d skipped, %d errors",
		job.ProcessedCount, job.SkippedCount, job.ErrorCount)
	s.logInfo(ctx, job.ID, summary, nil, nil)
	s.logger.Info("ingestion completed",
		zap.String("job_id", job.ID.String()),
		zap.String("company_id", companyID),
		zap.Int("processed", job.ProcessedCount),
		zap.Int("skipped", job.SkippedCount),
		zap.Int("errors", job.ErrorCount),
	)

	job.Status = StatusCompleted
	resp := jobToIngestResponse(job)
	resp.Message = summary
	return resp, nil
}

// buildRecord turns one data row into a payslip using header-name keyed
// lookups only; the column positions stored in the mapping are never
// consulted here.
func (s *service) buildRecord(
	ctx context.Context,
	job *Job,
	cols []mapping.MappedColumn,
	colIdx map[string]int,
	row []string,
	empCode string,
	deptPos int,
	rowNum int,
	dirCache map[string]*employee.Employee,
) (*payslip.Payslip, error) {
	items := payslip.ItemMap{}
	var totalIncome, totalDeduction float64

	for _, col := range cols {
		pos, present := colIdx[col.HeaderName]
		if !present {
			continue
		}

		raw := cellAt(row, pos)
		value := classifyValue(col.HeaderName, col.ItemName, raw)

		items[col.HeaderName] = payslip.Item{
			Name:      col.ItemName,
			Category:  col.Category,
			Value:     value,
			IsVisible: col.IsVisible,
		}

		// Only positive numbers contribute to totals; negative and
		// non-numeric values are stored but excluded.
		if num, isNum := value.(float64); isNum && num > 0 {
			switch col.Category {
			case mapping.CategoryIncome:
				totalIncome += num
			case mapping.CategoryDeduction:
				totalDeduction += num
			}
		}
	}

	var departmentCode *string
	if deptPos >= 0 {
		if dept := cellAt(row, deptPos); dept != "" {
			departmentCode = &dept
		}
	}

	userID, err := s.resolveUser(ctx, job, empCode, departmentCode, rowNum, dirCache)
	if err != nil {
		return nil, err
	}

	return &payslip.Payslip{
		ID:             uuid.New(),
		CompanyID:      job.CompanyID,
		EmployeeID:     empCode,
		UserID:         userID,
		DepartmentCode: departmentCode,
		UploadID:       job.UploadID,
		PaymentDate:    job.PaymentDate,
		PayslipKind:    job.PayslipKind,
		Items:          items,
		TotalIncome:    totalIncome,
		TotalDeduction: totalDeduction,
		NetAmount:      totalIncome - totalDeduction,
	}, nil
}

// resolveUser looks the employee up in the directory. A missing
// directory entry is reported, not fatal: the payslip can exist before
// the account does and is repaired later by the backfill.
func (s *service) resolveUser(
	ctx context.Context,
	job *Job,
	empCode string,
	departmentCode *string,
	rowNum int,
	dirCache map[string]*employee.Employee,
) (*string, error) {
	emp, cached := dirCache[empCode]
	if !cached {
		found, err := s.directory.FindByCompanyAndCode(ctx, job.CompanyID.String(), empCode)
		switch {
		case err == nil:
			emp = found
		case errors.Is(err, employeeerrors.ErrEmployeeNotFound):
			emp = nil
		default:
			return nil, fmt.Errorf("employee directory lookup failed for %q: %w", empCode, err)
		}
		dirCache[empCode] = emp
	}

	if emp == nil && job.RegisterNewEmployees {
		stub := &employee.Employee{
			ID:             uuid.New(),
			CompanyID:      job.CompanyID,
			EmployeeCode:   empCode,
			DepartmentCode: departmentCode,
		}
		err := s.directory.Create(ctx, stub)
		switch {
		case err == nil:
			emp = stub
			field := "employee_code"
			s.logInfo(ctx, job.ID, fmt.Sprintf("registered new employee %q", empCode), &rowNum, &field)
		case errors.Is(err, employee.ErrDuplicateCode):
			// Raced with another row or job; read it back.
			if found, ferr := s.directory.FindByCompanyAndCode(ctx, job.CompanyID.String(), empCode); ferr == nil {
				emp = found
			}
		default:
			return nil, fmt.Errorf("employee registration failed for %q: %w", empCode, err)
		}
		dirCache[empCode] = emp
	}

	if emp == nil || emp.UserID == nil || *emp.UserID == "" {
		field := "employee_code"
		s.logInfo(ctx, job.ID, fmt.Sprintf("no user account for employee %q, payslip created unowned", empCode), &rowNum, &field)
		return nil, nil
	}
	return emp.UserID, nil
}

func (s *service) commitBatch(ctx context.Context, job *Job, batch []payslip.Payslip) error {
	if len(batch) == 0 {
		return nil
	}
	if err := s.payslips.InsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("payslip batch write failed: %w", err)
	}
	s.logInfo(ctx, job.ID, fmt.Sprintf("committed batch of %d payslips", len(batch)), nil, nil)
	return nil
}

// ErrJobFaulted marks errors for which the job has already been moved
// to status error. Consumers use it to tell a finished failure from a
// transient one that never reached the pipeline.
var ErrJobFaulted = errors.New("ingestion job marked error")

// failJob records the fatal error on the job and in the log, then hands
// the original error back to the caller. Batches committed before the
// failure stay committed.
func (s *service) failJob(ctx context.Context, job *Job, cause error) (IngestResponse, error) {
	message := cause.Error()
	s.logError(ctx, job.ID, message, nil, nil)
	if err := s.repo.MarkError(ctx, job.ID.String(), message); err != nil {
		s.logger.Error("mark job error failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
	s.logger.Warn("ingestion failed",
		zap.String("job_id", job.ID.String()),
		zap.String("company_id", job.CompanyID.String()),
		zap.String("reason", message),
	)
	return IngestResponse{}, errors.Join(cause, ErrJobFaulted)
}

func (s *service) GetJob(ctx context.Context, companyID, id string) (JobResponse, error) {
	job, err := s.repo.FindJobByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return JobResponse{}, err
	}
	return jobToResponse(job), nil
}

func (s *service) GetLogs(ctx context.Context, companyID, jobID string) ([]LogEntryResponse, error) {
	// Ownership check before exposing the log.
	if _, err := s.repo.FindJobByIDAndCompany(ctx, companyID, jobID); err != nil {
		return nil, err
	}

	entries, err := s.repo.FindLogsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := make([]LogEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = LogEntryResponse{
			Level:     e.Level,
			Message:   e.Message,
			RowNumber: e.RowNumber,
			Field:     e.Field,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *service) ListStale(ctx context.Context, olderThan time.Duration) ([]JobResponse, error) {
	jobs, err := s.repo.ListStaleProcessing(ctx, olderThan)
	if err != nil {
		return nil, err
	}

	resp := make([]JobResponse, len(jobs))
	for i := range jobs {
		resp[i] = jobToResponse(&jobs[i])
	}
	return resp, nil
}

func (s *service) logInfo(ctx context.Context, jobID uuid.UUID, message string, rowNumber *int, field *string) {
	s.appendLog(ctx, jobID, LogLevelInfo, message, rowNumber, field)
}

func (s *service) logError(ctx context.Context, jobID uuid.UUID, message string, rowNumber *int, field *string) {
	s.appendLog(ctx, jobID, LogLevelError, message, rowNumber, field)
}

// appendLog never fails the pipeline; a lost log line is better than a
// lost payslip batch.
func (s *service) appendLog(ctx context.Context, jobID uuid.UUID, level, message string, rowNumber *int, field *string) {
	entry := &LogEntry{
		ID:        uuid.New(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		RowNumber: rowNumber,
		Field:     field,
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		s.logger.Error("append ingestion log failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
	}
}

func validateIngestRequest(companyID string, req IngestRequest) (uuid.UUID, time.Time, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return uuid.Nil, time.Time{}, ingestionerrors.ErrInvalidCompanyID
	}
	if req.UploadID == "" {
		return uuid.Nil, time.Time{}, ingestionerrors.ErrUploadIDRequired
	}
	if req.FileURL == "" {
		return uuid.Nil, time.Time{}, ingestionerrors.ErrFileURLRequired
	}

	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		return uuid.Nil, time.Time{}, ingestionerrors.ErrInvalidPaymentDate
	}

	return companyUUID, paymentDate, nil
}

func jobToIngestResponse(job *Job) IngestResponse {
	message := ""
	if job.Message != nil {
		message = *job.Message
	}
	return IngestResponse{
		Success:        job.Status == StatusCompleted,
		JobID:          job.ID.String(),
		Status:         job.Status,
		ProcessedCount: job.ProcessedCount,
		SkippedCount:   job.SkippedCount,
		ErrorCount:     job.ErrorCount,
		Message:        message,
	}
}

func jobToResponse(job *Job) JobResponse {
	resp := JobResponse{
		ID:                   job.ID.String(),
		CompanyID:            job.CompanyID.String(),
		UploadID:             job.UploadID,
		BatchNo:              job.BatchNo,
		FileURL:              job.FileURL,
		PaymentDate:          job.PaymentDate.Format("2006-01-02"),
		PayslipKind:          job.PayslipKind,
		RegisterNewEmployees: job.RegisterNewEmployees,
		Status:               job.Status,
		ProcessedCount:       job.ProcessedCount,
		SkippedCount:         job.SkippedCount,
		ErrorCount:           job.ErrorCount,
		CreatedAt:            job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            job.UpdatedAt.Format(time.RFC3339),
	}
	if job.Message != nil {
		resp.Message = *job.Message
	}
	return resp
}
