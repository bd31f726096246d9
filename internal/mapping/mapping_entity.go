package mapping

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	CategoryAttendance = "attendance"
	CategoryIncome     = "income"
	CategoryDeduction  = "deduction"
	CategoryTotal      = "total"
	CategoryOther      = "other"
)

// Categories in display order. loadMapping guarantees every key is
// present in ColumnsByCategory so callers never null-check per category.
var Categories = []string{
	CategoryAttendance,
	CategoryIncome,
	CategoryDeduction,
	CategoryTotal,
	CategoryOther,
}

const (
	KindRegular = "regular"
	KindBonus   = "bonus"
)

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func ValidKind(k string) bool {
	return k == KindRegular || k == KindBonus
}

// MappedColumn binds one raw CSV column code to a semantic payroll item.
type MappedColumn struct {
	ID          string `json:"id"`
	HeaderName  string `json:"headerName"`
	ItemName    string `json:"itemName"`
	ColumnIndex int    `json:"columnIndex"` // provenance only, never used for row lookup
	Category    string `json:"category"`
	IsVisible   bool   `json:"isVisible"`
}

// MainField is one of the distinguished columns that drive row-to-employee
// resolution instead of appearing as a payslip line item.
type MainField struct {
	HeaderName  string `json:"headerName"`
	ItemName    string `json:"itemName"`
	ColumnIndex int    `json:"columnIndex"`
}

type MainFields struct {
	EmployeeCode       *MainField `json:"employeeCode,omitempty"`
	DepartmentCode     *MainField `json:"departmentCode,omitempty"`
	IdentificationCode *MainField `json:"identificationCode,omitempty"`
}

// Model is the full per-tenant header mapping configuration.
type Model struct {
	MainFields        MainFields                `json:"mainFields"`
	ColumnsByCategory map[string][]MappedColumn `json:"columnsByCategory"`
	EmptyColumns      []int                     `json:"emptyColumns,omitempty"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
	UpdatedBy         string                    `json:"updatedBy"`

	// headerName -> column, built once after load so ingestion does row
	// lookups in O(1) instead of rescanning category lists.
	index map[string]*MappedColumn
}

func NewModel() *Model {
	m := &Model{ColumnsByCategory: map[string][]MappedColumn{}}
	m.Normalize()
	return m
}

// Normalize makes sure every category key exists, possibly as an empty
// list, and clears the lookup index so it gets rebuilt.
func (m *Model) Normalize() {
	if m.ColumnsByCategory == nil {
		m.ColumnsByCategory = map[string][]MappedColumn{}
	}
	for _, c := range Categories {
		if m.ColumnsByCategory[c] == nil {
			m.ColumnsByCategory[c] = []MappedColumn{}
		}
	}
	m.index = nil
}

// BuildIndex builds the headerName lookup table. Must be called after
// load or mutation, before any Lookup.
func (m *Model) BuildIndex() {
	idx := make(map[string]*MappedColumn)
	for _, cat := range Categories {
		cols := m.ColumnsByCategory[cat]
		for i := range cols {
			idx[cols[i].HeaderName] = &cols[i]
		}
	}
	m.index = idx
}

// Lookup resolves a column binding by its raw header code.
func (m *Model) Lookup(headerName string) (*MappedColumn, bool) {
	if m.index == nil {
		m.BuildIndex()
	}
	col, ok := m.index[headerName]
	return col, ok
}

// Columns flattens all category lists in category order.
func (m *Model) Columns() []MappedColumn {
	var out []MappedColumn
	for _, cat := range Categories {
		out = append(out, m.ColumnsByCategory[cat]...)
	}
	return out
}

// machineCodePattern matches the raw column identifiers HR exports use
// (e.g. "KY22_6", "A01"). Human labels never look like this.
var machineCodePattern = regexp.MustCompile(`^[A-Za-z]{1,5}[0-9]{1,4}(_[0-9]{1,3})?$`)

func IsMachineCode(s string) bool {
	return machineCodePattern.MatchString(s)
}

type ValidationIssue struct {
	Kind       string `json:"kind"` // duplicate_header | swapped_orientation
	HeaderName string `json:"headerName"`
	ItemName   string `json:"itemName"`
	Category   string `json:"category"`
}

// Validate reports structural problems in the mapping: a header code
// bound twice across categories, or a column whose headerName/itemName
// orientation looks swapped (an earlier builder wrote some tenants'
// documents reversed, so this is checked instead of guessed).
func (m *Model) Validate() []ValidationIssue {
	var issues []ValidationIssue
	seen := map[string]bool{}

	for _, cat := range Categories {
		for _, col := range m.ColumnsByCategory[cat] {
			if col.HeaderName == "" {
				continue
			}
			if seen[col.HeaderName] {
				issues = append(issues, ValidationIssue{
					Kind:       "duplicate_header",
					HeaderName: col.HeaderName,
					ItemName:   col.ItemName,
					Category:   cat,
				})
			}
			seen[col.HeaderName] = true

			if !IsMachineCode(col.HeaderName) && IsMachineCode(col.ItemName) {
				issues = append(issues, ValidationIssue{
					Kind:       "swapped_orientation",
					HeaderName: col.HeaderName,
					ItemName:   col.ItemName,
					Category:   cat,
				})
			}
		}
	}

	return issues
}

// ColumnID derives the stable synthetic identifier used as a map key
// independent of array order.
func ColumnID(category string, index int) string {
	return fmt.Sprintf("%s_%d", category, index)
}

// HeaderMapping is the persisted row: one document per company per
// payslip kind (regular and bonus payroll are independent models).
type HeaderMapping struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_header_mapping_company_kind"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_header_mapping_company_kind"`
	Document  []byte    `gorm:"type:jsonb;not null"`
	UpdatedBy string    `gorm:"type:varchar(64)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (HeaderMapping) TableName() string {
	return "header_mappings"
}
