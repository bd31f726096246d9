package payslip

import (
	"context"
	"errors"

	paysliperrors "payslip-system/internal/payslip/errors"
	"payslip-system/internal/tenant"

	"gorm.io/gorm"
)

// MaxWriteBatchSize bounds one atomic write group. The store commits
// each full batch before the pipeline continues; there is no single
// transaction spanning a whole upload.
const MaxWriteBatchSize = 450

// UserIDFix is one pending backfill assignment.
type UserIDFix struct {
	PayslipID string
	UserID    string
}

//go:generate mockgen -source=payslip_repo.go -destination=mock/payslip_repo_mock.go -package=mock
type Repository interface {
	InsertBatch(ctx context.Context, records []Payslip) error
	FindAllByCompany(ctx context.Context, companyID string, uploadID string) ([]Payslip, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Payslip, error)
	FindUnresolvedByCompany(ctx context.Context, companyID string) ([]Payslip, error)
	ApplyUserIDFixes(ctx context.Context, companyID string, fixes []UserIDFix) error
	DeleteByUpload(ctx context.Context, companyID, uploadID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// InsertBatch writes one batch; callers chunk to MaxWriteBatchSize.
func (r *repository) InsertBatch(ctx context.Context, records []Payslip) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, uploadID string) ([]Payslip, error) {
	q := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("payment_date DESC, employee_id ASC")
	if uploadID != "" {
		q = q.Where("upload_id = ?", uploadID)
	}

	var records []Payslip
	err := q.Find(&records).Error
	return records, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Payslip, error) {
	var record Payslip
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, paysliperrors.ErrPayslipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindUnresolvedByCompany(ctx context.Context, companyID string) ([]Payslip, error) {
	var records []Payslip
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("user_id IS NULL").
		Where("employee_id IS NOT NULL AND employee_id <> ''").
		Find(&records).Error
	return records, err
}

// ApplyUserIDFixes sets user_id and nothing else, one transaction per
// batch of at most MaxWriteBatchSize updates.
func (r *repository) ApplyUserIDFixes(ctx context.Context, companyID string, fixes []UserIDFix) error {
	for start := 0; start < len(fixes); start += MaxWriteBatchSize {
		end := start + MaxWriteBatchSize
		if end > len(fixes) {
			end = len(fixes)
		}

		batch := fixes[start:end]
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, fix := range batch {
				res := tx.Model(&Payslip{}).
					Scopes(tenant.Scope(companyID)).
					Where("id = ?", fix.PayslipID).
					Where("user_id IS NULL").
					Update("user_id", fix.UserID)
				if res.Error != nil {
					return res.Error
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteByUpload(ctx context.Context, companyID, uploadID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Payslip{}, "upload_id = ?", uploadID)
	return res.RowsAffected, res.Error
}
