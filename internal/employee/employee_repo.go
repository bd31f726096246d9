package employee

import (
	"context"
	"errors"

	employeeerrors "payslip-system/internal/employee/errors"
	"payslip-system/internal/tenant"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, emp *Employee) error
	FindByCompanyAndCode(ctx context.Context, companyID, code string) (*Employee, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error)
	SetUserID(ctx context.Context, companyID, code, userID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts a directory record. A concurrent insert of the same
// (company, code) pair is reported as ErrDuplicateCode so ingestion can
// treat it as already-registered.
func (r *repository) Create(ctx context.Context, emp *Employee) error {
	err := r.db.WithContext(ctx).Create(emp).Error
	if isUniqueCodeViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *repository) FindByCompanyAndCode(ctx context.Context, companyID, code string) (*Employee, error) {
	var emp Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&emp, "employee_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, employeeerrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var emps []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("employee_code ASC").
		Find(&emps).Error
	return emps, err
}

func (r *repository) SetUserID(ctx context.Context, companyID, code, userID string) error {
	return r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_code = ?", code).
		Update("user_id", userID).Error
}

var ErrDuplicateCode = errors.New("employee code already registered")

func isUniqueCodeViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_employee_company_code"
	}
	return false
}
