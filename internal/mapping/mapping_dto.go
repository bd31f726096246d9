package mapping

type MainFieldPayload struct {
	HeaderName  string `json:"header_name" binding:"required"`
	ItemName    string `json:"item_name"`
	ColumnIndex int    `json:"column_index"`
}

type MainFieldsPayload struct {
	EmployeeCode       *MainFieldPayload `json:"employee_code"`
	DepartmentCode     *MainFieldPayload `json:"department_code"`
	IdentificationCode *MainFieldPayload `json:"identification_code"`
}

type ColumnPayload struct {
	ID          string `json:"id"`
	HeaderName  string `json:"header_name" binding:"required"`
	ItemName    string `json:"item_name"`
	ColumnIndex int    `json:"column_index"`
	Category    string `json:"category" binding:"required,oneof=attendance income deduction total other"`
	IsVisible   *bool  `json:"is_visible"`
}

type SaveMappingRequest struct {
	Kind       string            `json:"kind" binding:"required,oneof=regular bonus"`
	MainFields MainFieldsPayload `json:"main_fields"`
	Columns    []ColumnPayload   `json:"columns" binding:"dive"`
}

type PreviewMappingRequest struct {
	// Raw two-row paste: header-code line plus semantic-label line.
	Text string `json:"text" binding:"required"`
}

type ImportMappingRequest struct {
	Kind string `json:"kind" binding:"required,oneof=regular bonus"`
	Text string `json:"text" binding:"required"`
}

type MainFieldResponse struct {
	HeaderName  string `json:"header_name"`
	ItemName    string `json:"item_name"`
	ColumnIndex int    `json:"column_index"`
}

type MainFieldsResponse struct {
	EmployeeCode       *MainFieldResponse `json:"employee_code,omitempty"`
	DepartmentCode     *MainFieldResponse `json:"department_code,omitempty"`
	IdentificationCode *MainFieldResponse `json:"identification_code,omitempty"`
}

type ColumnResponse struct {
	ID          string `json:"id"`
	HeaderName  string `json:"header_name"`
	ItemName    string `json:"item_name"`
	ColumnIndex int    `json:"column_index"`
	Category    string `json:"category"`
	IsVisible   bool   `json:"is_visible"`
}

type MappingResponse struct {
	Kind              string                      `json:"kind,omitempty"`
	MainFields        MainFieldsResponse          `json:"main_fields"`
	ColumnsByCategory map[string][]ColumnResponse `json:"columns_by_category"`
	EmptyColumns      []int                       `json:"empty_columns,omitempty"`
	UpdatedAt         string                      `json:"updated_at,omitempty"`
	UpdatedBy         string                      `json:"updated_by,omitempty"`
	Issues            []ValidationIssue           `json:"issues,omitempty"`
}
