package ingestion

import (
	"time"

	"github.com/google/uuid"
)

// Job states. There is no retry state: a failed job is resubmitted as a
// new job referencing the same source file.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Job tracks one CSV file's ingestion run.
type Job struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_job_company_upload"`
	UploadID             string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_job_company_upload"`
	BatchNo              int64     `gorm:"type:bigint;not null;default:0"`
	FileURL              string    `gorm:"type:text;not null"`
	PaymentDate          time.Time `gorm:"type:date;not null"`
	PayslipKind          string    `gorm:"type:varchar(20);not null;default:'regular'"`
	RegisterNewEmployees bool      `gorm:"not null;default:false"`
	Status               string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	ProcessedCount       int       `gorm:"not null;default:0"`
	SkippedCount         int       `gorm:"not null;default:0"`
	ErrorCount           int       `gorm:"not null;default:0"`
	Message              *string   `gorm:"type:text"`
	RequestedBy          string    `gorm:"type:varchar(64)"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Job) TableName() string {
	return "ingestion_jobs"
}

const (
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

// LogEntry is one line of the queryable ingestion log. Mapping bugs are
// the dominant failure mode in this domain; per-row and per-field
// traceability is what lets an operator find them after the fact.
type LogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Level     string    `gorm:"type:varchar(10);not null"`
	Message   string    `gorm:"type:text;not null"`
	RowNumber *int
	Field     *string `gorm:"type:varchar(120)"`
	CreatedAt time.Time
}

func (LogEntry) TableName() string {
	return "ingestion_logs"
}
