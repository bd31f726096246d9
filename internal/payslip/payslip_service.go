package payslip

import (
	"context"
	"errors"
	"time"

	"payslip-system/internal/employee"
	employeeerrors "payslip-system/internal/employee/errors"

	"go.uber.org/zap"
)

//go:generate mockgen -source=payslip_service.go -destination=mock/payslip_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context, companyID string, uploadID string, includeHidden bool) ([]PayslipResponse, error)
	GetByID(ctx context.Context, companyID, id string, includeHidden bool) (PayslipResponse, error)
	BackfillUsers(ctx context.Context, companyID string) (BackfillUsersResponse, error)
}

type service struct {
	repo      Repository
	directory employee.Repository
	logger    *zap.Logger
}

func NewService(repo Repository, directory employee.Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, directory: directory, logger: logger.Named("payslip.service")}
}

func (s *service) GetAll(ctx context.Context, companyID string, uploadID string, includeHidden bool) ([]PayslipResponse, error) {
	records, err := s.repo.FindAllByCompany(ctx, companyID, uploadID)
	if err != nil {
		return nil, err
	}

	resp := make([]PayslipResponse, len(records))
	for i, record := range records {
		resp[i] = mapToResponse(record, includeHidden)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string, includeHidden bool) (PayslipResponse, error) {
	record, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return PayslipResponse{}, err
	}
	return mapToResponse(*record, includeHidden), nil
}

// BackfillUsers re-resolves user ids for payslips created before the
// owning account existed. It touches user_id and nothing else, and a
// second run finds nothing left to fix.
func (s *service) BackfillUsers(ctx context.Context, companyID string) (BackfillUsersResponse, error) {
	unresolved, err := s.repo.FindUnresolvedByCompany(ctx, companyID)
	if err != nil {
		return BackfillUsersResponse{}, err
	}

	var fixes []UserIDFix
	// Directory lookups are cached per employee code: a company-wide
	// backfill revisits the same employees across many pay periods.
	cache := map[string]*employee.Employee{}

	for _, record := range unresolved {
		emp, cached := cache[record.EmployeeID]
		if !cached {
			emp, err = s.directory.FindByCompanyAndCode(ctx, companyID, record.EmployeeID)
			if err != nil {
				if errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
					cache[record.EmployeeID] = nil
					continue
				}
				return BackfillUsersResponse{}, err
			}
			cache[record.EmployeeID] = emp
		}
		if emp == nil || emp.UserID == nil || *emp.UserID == "" {
			continue
		}
		fixes = append(fixes, UserIDFix{PayslipID: record.ID.String(), UserID: *emp.UserID})
	}

	if err := s.repo.ApplyUserIDFixes(ctx, companyID, fixes); err != nil {
		return BackfillUsersResponse{}, err
	}

	s.logger.Info("user backfill finished",
		zap.String("company_id", companyID),
		zap.Int("scanned", len(unresolved)),
		zap.Int("fixed", len(fixes)),
	)

	return BackfillUsersResponse{Scanned: len(unresolved), Fixed: len(fixes)}, nil
}

func mapToResponse(record Payslip, includeHidden bool) PayslipResponse {
	items := make(map[string]ItemResponse, len(record.Items))
	for headerName, item := range record.Items {
		if !includeHidden && !item.IsVisible {
			continue
		}
		items[headerName] = ItemResponse{
			Name:      item.Name,
			Category:  item.Category,
			Value:     item.Value,
			IsVisible: item.IsVisible,
		}
	}

	return PayslipResponse{
		ID:             record.ID.String(),
		CompanyID:      record.CompanyID.String(),
		EmployeeID:     record.EmployeeID,
		UserID:         record.UserID,
		DepartmentCode: record.DepartmentCode,
		UploadID:       record.UploadID,
		PaymentDate:    record.PaymentDate.Format("2006-01-02"),
		PayslipKind:    record.PayslipKind,
		Items:          items,
		TotalIncome:    record.TotalIncome,
		TotalDeduction: record.TotalDeduction,
		NetAmount:      record.NetAmount,
		CreatedAt:      record.CreatedAt.Format(time.RFC3339),
	}
}
