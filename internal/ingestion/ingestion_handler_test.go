package ingestion_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"payslip-system/internal/ingestion"
	ingestionerrors "payslip-system/internal/ingestion/errors"
	"payslip-system/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	submitFn    func(ctx context.Context, companyID, userID string, req ingestion.IngestRequest) (ingestion.IngestResponse, error)
	runFn       func(ctx context.Context, companyID, jobID string) (ingestion.IngestResponse, error)
	getJobFn    func(ctx context.Context, companyID, id string) (ingestion.JobResponse, error)
	getLogsFn   func(ctx context.Context, companyID, jobID string) ([]ingestion.LogEntryResponse, error)
	listStaleFn func(ctx context.Context, olderThan time.Duration) ([]ingestion.JobResponse, error)
}

func (f *fakeService) Submit(ctx context.Context, companyID, userID string, req ingestion.IngestRequest) (ingestion.IngestResponse, error) {
	return f.submitFn(ctx, companyID, userID, req)
}
func (f *fakeService) Run(ctx context.Context, companyID, jobID string) (ingestion.IngestResponse, error) {
	return f.runFn(ctx, companyID, jobID)
}
func (f *fakeService) GetJob(ctx context.Context, companyID, id string) (ingestion.JobResponse, error) {
	return f.getJobFn(ctx, companyID, id)
}
func (f *fakeService) GetLogs(ctx context.Context, companyID, jobID string) ([]ingestion.LogEntryResponse, error) {
	return f.getLogsFn(ctx, companyID, jobID)
}
func (f *fakeService) ListStale(ctx context.Context, olderThan time.Duration) ([]ingestion.JobResponse, error) {
	return f.listStaleFn(ctx, olderThan)
}

func TestHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	jobID := uuid.New().String()

	svc := &fakeService{
		submitFn: func(ctx context.Context, cid, uid string, req ingestion.IngestRequest) (ingestion.IngestResponse, error) {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, "user-1", uid)
			assert.Equal(t, "upload-001", req.UploadID)
			return ingestion.IngestResponse{
				Success:        true,
				JobID:          jobID,
				Status:         ingestion.StatusCompleted,
				ProcessedCount: 3,
			}, nil
		},
	}
	h := ingestion.NewHandler(svc, nil)

	body := `{"upload_id":"upload-001","file_url":"https://files.example.com/u.csv","payment_date":"2024-03-25"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Set("user_id", "user-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Submit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), jobID)
	assert.Contains(t, w.Body.String(), `"processed_count":3`)
}

func TestHandler_Submit_AsyncReturnsAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		submitFn: func(ctx context.Context, cid, uid string, req ingestion.IngestRequest) (ingestion.IngestResponse, error) {
			assert.True(t, req.Async)
			return ingestion.IngestResponse{Success: true, JobID: uuid.New().String(), Status: ingestion.StatusPending}, nil
		},
	}
	h := ingestion.NewHandler(svc, nil)

	body := `{"upload_id":"upload-001","file_url":"https://files.example.com/u.csv","payment_date":"2024-03-25","async":true}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Submit(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHandler_Submit_DuplicateUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		submitFn: func(ctx context.Context, cid, uid string, req ingestion.IngestRequest) (ingestion.IngestResponse, error) {
			return ingestion.IngestResponse{}, ingestionerrors.ErrDuplicateUpload
		},
	}
	h := ingestion.NewHandler(svc, nil)

	body := `{"upload_id":"upload-001","file_url":"https://files.example.com/u.csv","payment_date":"2024-03-25"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Submit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestHandler_GetJob_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		getJobFn: func(ctx context.Context, cid, id string) (ingestion.JobResponse, error) {
			return ingestion.JobResponse{}, ingestionerrors.ErrJobNotFound
		},
	}
	h := ingestion.NewHandler(svc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/ingestions/x", nil)
	h.GetJob(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	row := 4
	svc := &fakeService{
		getLogsFn: func(ctx context.Context, cid, jobID string) ([]ingestion.LogEntryResponse, error) {
			return []ingestion.LogEntryResponse{
				{Level: "info", Message: "ingestion started"},
				{Level: "error", Message: "row skipped", RowNumber: &row},
			}, nil
		},
	}
	h := ingestion.NewHandler(svc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/ingestions/x/logs", nil)
	h.GetLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"row_number":4`)
}

func TestHandler_ListStale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var got time.Duration
	svc := &fakeService{
		listStaleFn: func(ctx context.Context, olderThan time.Duration) ([]ingestion.JobResponse, error) {
			got = olderThan
			return nil, nil
		},
	}
	h := ingestion.NewHandler(svc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ingestions/stale?older_than=45m", nil)
	h.ListStale(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 45*time.Minute, got)
}

func TestHandler_Submit_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	apperror.Init()
	h := ingestion.NewHandler(&fakeService{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(`{"file_url":"https://files.example/u1.csv"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ARGUMENT")
	assert.Contains(t, w.Body.String(), "Upload Id is required")
}

func TestHandler_ListStale_BadDuration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := ingestion.NewHandler(&fakeService{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ingestions/stale?older_than=yesterday", nil)
	h.ListStale(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
