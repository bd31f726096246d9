package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ingestionerrors "payslip-system/internal/ingestion/errors"
	"payslip-system/internal/tenant"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

//go:generate mockgen -source=ingestion_repo.go -destination=mock/ingestion_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreateJob(ctx context.Context, job *Job) error
	FindJobByIDAndCompany(ctx context.Context, companyID, id string) (*Job, error)
	MarkProcessing(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, job *Job) error
	MarkError(ctx context.Context, jobID string, message string) error
	ListStaleProcessing(ctx context.Context, olderThan time.Duration) ([]Job, error)
	AppendLog(ctx context.Context, entry *LogEntry) error
	FindLogsByJob(ctx context.Context, jobID string) ([]LogEntry, error)
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

// CreateJob uses raw SQL through the execer so the async submit path can
// commit the job row and its outbox event in one transaction.
func (r *repository) CreateJob(ctx context.Context, job *Job) error {
	query := `
        INSERT INTO ingestion_jobs (
            id, company_id, upload_id, batch_no, file_url, payment_date, payslip_kind,
            register_new_employees, status, requested_by, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
    `

	_, err := r.execer().ExecContext(
		ctx, query,
		job.ID, job.CompanyID, job.UploadID, job.BatchNo, job.FileURL,
		job.PaymentDate, job.PayslipKind, job.RegisterNewEmployees,
		job.Status, job.RequestedBy,
	)
	if isDuplicateUpload(err) {
		return ingestionerrors.ErrDuplicateUpload
	}
	return err
}

func (r *repository) FindJobByIDAndCompany(ctx context.Context, companyID, id string) (*Job, error) {
	var job Job
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ingestionerrors.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) MarkProcessing(ctx context.Context, jobID string) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", jobID).
		Update("status", StatusProcessing).Error
}

func (r *repository) MarkCompleted(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":          StatusCompleted,
			"processed_count": job.ProcessedCount,
			"skipped_count":   job.SkippedCount,
			"error_count":     job.ErrorCount,
		}).Error
}

func (r *repository) MarkError(ctx context.Context, jobID string, message string) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":  StatusError,
			"message": message,
		}).Error
}

// ListStaleProcessing finds jobs abandoned by an invocation timeout.
// There is no automatic reaper; an operator resubmits them.
func (r *repository) ListStaleProcessing(ctx context.Context, olderThan time.Duration) ([]Job, error) {
	var jobs []Job
	cutoff := time.Now().Add(-olderThan)
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusProcessing).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Find(&jobs).Error
	return jobs, err
}

func (r *repository) AppendLog(ctx context.Context, entry *LogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindLogsByJob(ctx context.Context, jobID string) ([]LogEntry, error) {
	var entries []LogEntry
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func isDuplicateUpload(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_job_company_upload"
	}
	return false
}
