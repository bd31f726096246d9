package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	mappingerrors "payslip-system/internal/mapping/errors"
	"payslip-system/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=mapping_repo.go -destination=mock/mapping_repo_mock.go -package=mock
type Repository interface {
	Save(ctx context.Context, companyID, kind, updatedBy string, model *Model) error
	Load(ctx context.Context, companyID, kind string) (*Model, error)
	Delete(ctx context.Context, companyID, kind string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Save upserts the whole document in a single statement so readers never
// observe a partially written mapping.
func (r *repository) Save(ctx context.Context, companyID, kind, updatedBy string, model *Model) error {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return mappingerrors.ErrInvalidCompanyID
	}

	doc, err := json.Marshal(model)
	if err != nil {
		return err
	}

	row := HeaderMapping{
		ID:        uuid.New(),
		CompanyID: companyUUID,
		Kind:      kind,
		Document:  doc,
		UpdatedBy: updatedBy,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_by", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *repository) Load(ctx context.Context, companyID, kind string) (*Model, error) {
	var row HeaderMapping
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&row, "kind = ?", kind).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mappingerrors.ErrMappingNotFound
	}
	if err != nil {
		return nil, err
	}

	model, err := NormalizeDocument(row.Document)
	if err != nil {
		return nil, err
	}
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = row.UpdatedAt
	}
	if model.UpdatedBy == "" {
		model.UpdatedBy = row.UpdatedBy
	}
	return model, nil
}

// Delete is an explicit administrative operation; the service layer
// requires confirmation because ingestion fails closed without a mapping.
func (r *repository) Delete(ctx context.Context, companyID, kind string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&HeaderMapping{}, "kind = ?", kind)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mappingerrors.ErrMappingNotFound
	}
	return nil
}

// legacyDocument is the superset of every historical on-disk shape:
// the current mainFields + columnsByCategory document, the flat
// per-category arrays that preceded it, and the oldest employeeMapping
// object that only named the employee id column.
type legacyDocument struct {
	MainFields        *MainFields               `json:"mainFields"`
	ColumnsByCategory map[string][]legacyColumn `json:"columnsByCategory"`

	IncomeItems     []legacyColumn `json:"incomeItems"`
	DeductionItems  []legacyColumn `json:"deductionItems"`
	AttendanceItems []legacyColumn `json:"attendanceItems"`
	TotalItems      []legacyColumn `json:"totalItems"`

	EmployeeMapping *struct {
		EmployeeIDColumn   string `json:"employeeIdColumn"`
		DepartmentIDColumn string `json:"departmentIdColumn"`
	} `json:"employeeMapping"`

	EmptyColumns []int     `json:"emptyColumns"`
	UpdatedAt    time.Time `json:"updatedAt"`
	UpdatedBy    string    `json:"updatedBy"`
}

// NormalizeDocument reconciles a stored document into the current Model.
// Adapters run in fixed priority order and the first structural match
// wins outright; partial results from two shapes are never merged.
func NormalizeDocument(raw []byte) (*Model, error) {
	var doc legacyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, mappingerrors.ErrUnrecognizedDocument
	}

	model := NewModel()
	model.EmptyColumns = doc.EmptyColumns
	model.UpdatedAt = doc.UpdatedAt
	model.UpdatedBy = doc.UpdatedBy

	switch {
	case doc.ColumnsByCategory != nil:
		for cat, cols := range doc.ColumnsByCategory {
			if !ValidCategory(cat) {
				return nil, mappingerrors.ErrUnrecognizedDocument
			}
			model.ColumnsByCategory[cat] = normalizeColumns(cat, cols)
		}
	case doc.IncomeItems != nil || doc.DeductionItems != nil ||
		doc.AttendanceItems != nil || doc.TotalItems != nil:
		model.ColumnsByCategory[CategoryIncome] = normalizeColumns(CategoryIncome, doc.IncomeItems)
		model.ColumnsByCategory[CategoryDeduction] = normalizeColumns(CategoryDeduction, doc.DeductionItems)
		model.ColumnsByCategory[CategoryAttendance] = normalizeColumns(CategoryAttendance, doc.AttendanceItems)
		model.ColumnsByCategory[CategoryTotal] = normalizeColumns(CategoryTotal, doc.TotalItems)
	}

	if doc.MainFields != nil {
		model.MainFields = *doc.MainFields
	} else if doc.EmployeeMapping != nil && doc.EmployeeMapping.EmployeeIDColumn != "" {
		// Oldest shape: only the employee id column was ever recorded.
		model.MainFields.EmployeeCode = &MainField{
			HeaderName: doc.EmployeeMapping.EmployeeIDColumn,
		}
		if doc.EmployeeMapping.DepartmentIDColumn != "" {
			model.MainFields.DepartmentCode = &MainField{
				HeaderName: doc.EmployeeMapping.DepartmentIDColumn,
			}
		}
	}

	model.Normalize()
	model.BuildIndex()
	return model, nil
}

// legacyColumn tolerates fields old writers did not record. IsVisible is
// a pointer because documents written before the visibility flag existed
// must default to visible, not hidden.
type legacyColumn struct {
	ID          string `json:"id"`
	HeaderName  string `json:"headerName"`
	ItemName    string `json:"itemName"`
	ColumnIndex int    `json:"columnIndex"`
	Category    string `json:"category"`
	IsVisible   *bool  `json:"isVisible"`
}

// normalizeColumns repairs per-column gaps old writers left behind:
// missing category tags, missing synthetic ids, missing visibility.
func normalizeColumns(category string, cols []legacyColumn) []MappedColumn {
	if cols == nil {
		return []MappedColumn{}
	}
	out := make([]MappedColumn, 0, len(cols))
	for _, col := range cols {
		mapped := MappedColumn{
			ID:          col.ID,
			HeaderName:  col.HeaderName,
			ItemName:    col.ItemName,
			ColumnIndex: col.ColumnIndex,
			Category:    col.Category,
			IsVisible:   col.IsVisible == nil || *col.IsVisible,
		}
		if mapped.Category == "" {
			mapped.Category = category
		}
		if mapped.ID == "" {
			mapped.ID = ColumnID(mapped.Category, mapped.ColumnIndex)
		}
		out = append(out, mapped)
	}
	return out
}
