package ingestion

type IngestRequest struct {
	UploadID             string `json:"upload_id" binding:"required"`
	FileURL              string `json:"file_url" binding:"required"`
	PaymentDate          string `json:"payment_date" binding:"required"`
	PayslipKind          string `json:"payslip_kind" binding:"omitempty,oneof=regular bonus"`
	RegisterNewEmployees bool   `json:"register_new_employees"`
	// Async enqueues the job for the consumer instead of running it in
	// the request.
	Async bool `json:"async"`
}

type IngestResponse struct {
	Success        bool   `json:"success"`
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	ProcessedCount int    `json:"processed_count"`
	SkippedCount   int    `json:"skipped_count"`
	ErrorCount     int    `json:"error_count"`
	Message        string `json:"message"`
}

type JobResponse struct {
	ID                   string `json:"id"`
	CompanyID            string `json:"company_id"`
	UploadID             string `json:"upload_id"`
	BatchNo              int64  `json:"batch_no"`
	FileURL              string `json:"file_url"`
	PaymentDate          string `json:"payment_date"`
	PayslipKind          string `json:"payslip_kind"`
	RegisterNewEmployees bool   `json:"register_new_employees"`
	Status               string `json:"status"`
	ProcessedCount       int    `json:"processed_count"`
	SkippedCount         int    `json:"skipped_count"`
	ErrorCount           int    `json:"error_count"`
	Message              string `json:"message,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

type LogEntryResponse struct {
	Level     string  `json:"level"`
	Message   string  `json:"message"`
	RowNumber *int    `json:"row_number,omitempty"`
	Field     *string `json:"field,omitempty"`
	CreatedAt string  `json:"created_at"`
}
