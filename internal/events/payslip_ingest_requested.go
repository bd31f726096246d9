package events

import "time"

const PayslipIngestRequestedTopic = "payroll.payslip.ingest.requested.v1"

type PayslipIngestRequestedEvent struct {
	EventType            string    `json:"event_type"`
	JobID                string    `json:"job_id"`
	UploadID             string    `json:"upload_id"`
	CompanyID            string    `json:"company_id"`
	FileURL              string    `json:"file_url"`
	PaymentDate          string    `json:"payment_date"`
	PayslipKind          string    `json:"payslip_kind"`
	RegisterNewEmployees bool      `json:"register_new_employees"`
	RequestedBy          string    `json:"requested_by"`
	OccurredAt           time.Time `json:"occurred_at"`
}
