package payslip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"payslip-system/internal/payslip"
	paysliperrors "payslip-system/internal/payslip/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	getAllFn   func(ctx context.Context, companyID, uploadID string, includeHidden bool) ([]payslip.PayslipResponse, error)
	getByIDFn  func(ctx context.Context, companyID, id string, includeHidden bool) (payslip.PayslipResponse, error)
	backfillFn func(ctx context.Context, companyID string) (payslip.BackfillUsersResponse, error)
}

func (f *fakeService) GetAll(ctx context.Context, companyID, uploadID string, includeHidden bool) ([]payslip.PayslipResponse, error) {
	return f.getAllFn(ctx, companyID, uploadID, includeHidden)
}
func (f *fakeService) GetByID(ctx context.Context, companyID, id string, includeHidden bool) (payslip.PayslipResponse, error) {
	return f.getByIDFn(ctx, companyID, id, includeHidden)
}
func (f *fakeService) BackfillUsers(ctx context.Context, companyID string) (payslip.BackfillUsersResponse, error) {
	return f.backfillFn(ctx, companyID)
}

func TestHandler_GetById_RoleControlsHiddenItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotIncludeHidden bool
	svc := &fakeService{
		getByIDFn: func(ctx context.Context, cid, id string, includeHidden bool) (payslip.PayslipResponse, error) {
			gotIncludeHidden = includeHidden
			return payslip.PayslipResponse{ID: id}, nil
		},
	}
	h := payslip.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("role", "employee")
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/payslips/x", nil)
	h.GetById(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotIncludeHidden)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Set("company_id", uuid.New().String())
	c2.Set("role", "admin")
	c2.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c2.Request = httptest.NewRequest(http.MethodGet, "/payslips/x", nil)
	h.GetById(c2)
	assert.True(t, gotIncludeHidden)
}

func TestHandler_GetAll_RoleControlsHiddenItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotIncludeHidden bool
	svc := &fakeService{
		getAllFn: func(ctx context.Context, cid, uploadID string, includeHidden bool) ([]payslip.PayslipResponse, error) {
			gotIncludeHidden = includeHidden
			return nil, nil
		},
	}
	h := payslip.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("role", "employee")
	c.Request = httptest.NewRequest(http.MethodGet, "/payslips", nil)
	h.GetAll(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotIncludeHidden)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Set("company_id", uuid.New().String())
	c2.Set("role", "admin")
	c2.Request = httptest.NewRequest(http.MethodGet, "/payslips", nil)
	h.GetAll(c2)
	assert.True(t, gotIncludeHidden)
}

func TestHandler_GetById_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		getByIDFn: func(ctx context.Context, cid, id string, includeHidden bool) (payslip.PayslipResponse, error) {
			return payslip.PayslipResponse{}, paysliperrors.ErrPayslipNotFound
		},
	}
	h := payslip.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/payslips/x", nil)
	h.GetById(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_BackfillUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	svc := &fakeService{
		backfillFn: func(ctx context.Context, cid string) (payslip.BackfillUsersResponse, error) {
			assert.Equal(t, companyID, cid)
			return payslip.BackfillUsersResponse{Scanned: 10, Fixed: 4}, nil
		},
	}
	h := payslip.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Request = httptest.NewRequest(http.MethodPost, "/payslips/backfill-users", nil)
	h.BackfillUsers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fixed":4`)
}
