package payslip

type ItemResponse struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Value     any    `json:"value"`
	IsVisible bool   `json:"is_visible,omitempty"`
}

type PayslipResponse struct {
	ID             string                  `json:"id"`
	CompanyID      string                  `json:"company_id"`
	EmployeeID     string                  `json:"employee_id"`
	UserID         *string                 `json:"user_id,omitempty"`
	DepartmentCode *string                 `json:"department_code,omitempty"`
	UploadID       string                  `json:"upload_id"`
	PaymentDate    string                  `json:"payment_date"`
	PayslipKind    string                  `json:"payslip_kind"`
	Items          map[string]ItemResponse `json:"items"`
	TotalIncome    float64                 `json:"total_income"`
	TotalDeduction float64                 `json:"total_deduction"`
	NetAmount      float64                 `json:"net_amount"`
	CreatedAt      string                  `json:"created_at"`
}

type BackfillUsersRequest struct {
	// Intentionally empty: company scope comes from the caller identity.
}

type BackfillUsersResponse struct {
	Scanned int `json:"scanned"`
	Fixed   int `json:"fixed"`
}
