package mapping

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mappingerrors "payslip-system/internal/mapping/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeRepo struct {
	saveFn   func(ctx context.Context, companyID, kind, updatedBy string, model *Model) error
	loadFn   func(ctx context.Context, companyID, kind string) (*Model, error)
	deleteFn func(ctx context.Context, companyID, kind string) error
}

func (f *fakeRepo) Save(ctx context.Context, companyID, kind, updatedBy string, model *Model) error {
	return f.saveFn(ctx, companyID, kind, updatedBy, model)
}
func (f *fakeRepo) Load(ctx context.Context, companyID, kind string) (*Model, error) {
	return f.loadFn(ctx, companyID, kind)
}
func (f *fakeRepo) Delete(ctx context.Context, companyID, kind string) error {
	return f.deleteFn(ctx, companyID, kind)
}

func visible(b bool) *bool { return &b }

func TestService_Save(t *testing.T) {
	companyID := uuid.New().String()
	ctx := context.Background()

	var saved *Model
	repo := &fakeRepo{
		saveFn: func(ctx context.Context, cid, kind, updatedBy string, model *Model) error {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, KindRegular, kind)
			saved = model
			return nil
		},
	}

	svc := NewService(repo)
	resp, err := svc.Save(ctx, companyID, "admin", SaveMappingRequest{
		Kind: KindRegular,
		MainFields: MainFieldsPayload{
			EmployeeCode: &MainFieldPayload{HeaderName: "KY03", ItemName: "社員番号", ColumnIndex: 2},
		},
		Columns: []ColumnPayload{
			{HeaderName: "KY22_7", ItemName: "残業手当", ColumnIndex: 4, Category: CategoryIncome},
			{HeaderName: "KY22_6", ItemName: "基本給", ColumnIndex: 3, Category: CategoryIncome},
			{HeaderName: "KY23_1", ItemName: "健康保険", ColumnIndex: 8, Category: CategoryDeduction, IsVisible: visible(false)},
		},
	})
	assert.NoError(t, err)
	assert.NotNil(t, saved)

	// Categories come back ordered by column index regardless of request order.
	income := resp.ColumnsByCategory[CategoryIncome]
	assert.Equal(t, "KY22_6", income[0].HeaderName)
	assert.Equal(t, "KY22_7", income[1].HeaderName)
	assert.Equal(t, "income_3", income[0].ID)

	assert.False(t, resp.ColumnsByCategory[CategoryDeduction][0].IsVisible)
	assert.Equal(t, "KY03", resp.MainFields.EmployeeCode.HeaderName)
}

func TestService_Save_RejectsDuplicateHeader(t *testing.T) {
	repo := &fakeRepo{
		saveFn: func(ctx context.Context, cid, kind, updatedBy string, model *Model) error {
			t.Fatal("save must not be called")
			return nil
		},
	}

	svc := NewService(repo)
	_, err := svc.Save(context.Background(), uuid.New().String(), "admin", SaveMappingRequest{
		Kind: KindRegular,
		Columns: []ColumnPayload{
			{HeaderName: "KY22_6", ItemName: "基本給", ColumnIndex: 3, Category: CategoryIncome},
			{HeaderName: "KY22_6", ItemName: "健康保険", ColumnIndex: 8, Category: CategoryDeduction},
		},
	})
	assert.ErrorIs(t, err, mappingerrors.ErrDuplicateHeaderName)
}

func TestService_Save_RejectsSwappedOrientation(t *testing.T) {
	repo := &fakeRepo{
		saveFn: func(ctx context.Context, cid, kind, updatedBy string, model *Model) error {
			t.Fatal("save must not be called")
			return nil
		},
	}

	svc := NewService(repo)
	_, err := svc.Save(context.Background(), uuid.New().String(), "admin", SaveMappingRequest{
		Kind: KindRegular,
		Columns: []ColumnPayload{
			{HeaderName: "基本給", ItemName: "KY22_6", ColumnIndex: 3, Category: CategoryIncome},
		},
	})
	assert.ErrorIs(t, err, mappingerrors.ErrSwappedOrientation)
}

func TestService_Save_RejectsUnknownCategory(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.Save(context.Background(), uuid.New().String(), "admin", SaveMappingRequest{
		Kind: KindRegular,
		Columns: []ColumnPayload{
			{HeaderName: "KY22_6", ColumnIndex: 3, Category: "bonus_pool"},
		},
	})
	assert.ErrorIs(t, err, mappingerrors.ErrInvalidCategory)
}

func TestService_LoadModel_InvalidKind(t *testing.T) {
	svc := NewService(&fakeRepo{})
	_, err := svc.LoadModel(context.Background(), uuid.New().String(), "hourly")
	assert.ErrorIs(t, err, mappingerrors.ErrInvalidKind)
}

func TestService_LoadModel_SharesConcurrentReads(t *testing.T) {
	companyID := uuid.New().String()
	var calls int32
	release := make(chan struct{})

	repo := &fakeRepo{
		loadFn: func(ctx context.Context, cid, kind string) (*Model, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return NewModel(), nil
		},
	}
	svc := NewService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LoadModel(context.Background(), companyID, KindRegular)
			assert.NoError(t, err)
		}()
	}

	// Give the goroutines time to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestService_Preview_SurfacesIssuesWithoutSaving(t *testing.T) {
	repo := &fakeRepo{
		saveFn: func(ctx context.Context, cid, kind, updatedBy string, model *Model) error {
			t.Fatal("preview must not persist")
			return nil
		},
	}
	svc := NewService(repo)

	resp, err := svc.Preview(context.Background(), PreviewMappingRequest{
		Text: "KY03\tKY22_6\tKY22_6\n社員番号\t基本給\t基本給2\n",
	})
	assert.NoError(t, err)
	assert.Len(t, resp.Issues, 1)
	assert.Equal(t, "duplicate_header", resp.Issues[0].Kind)
}

func TestService_Import(t *testing.T) {
	companyID := uuid.New().String()
	var savedKind string
	repo := &fakeRepo{
		saveFn: func(ctx context.Context, cid, kind, updatedBy string, model *Model) error {
			savedKind = kind
			return nil
		},
	}
	svc := NewService(repo)

	resp, err := svc.Import(context.Background(), companyID, "admin", ImportMappingRequest{
		Kind: KindBonus,
		Text: "KY03\tKY22_6\n社員番号\t賞与\n",
	})
	assert.NoError(t, err)
	assert.Equal(t, KindBonus, savedKind)
	assert.Equal(t, "KY03", resp.MainFields.EmployeeCode.HeaderName)
}

func TestService_Import_RejectsSwappedRows(t *testing.T) {
	saves := 0
	repo := &fakeRepo{
		saveFn: func(ctx context.Context, cid, kind, updatedBy string, model *Model) error {
			saves++
			return nil
		},
	}
	svc := NewService(repo)

	// Label row pasted first, code row second.
	_, err := svc.Import(context.Background(), uuid.New().String(), "admin", ImportMappingRequest{
		Kind: KindRegular,
		Text: "所得税\t通勤手当\nKY22_6\tKY22_7\n",
	})
	assert.ErrorIs(t, err, mappingerrors.ErrSwappedOrientation)
	assert.Equal(t, 0, saves)
}

func TestService_Delete_RequiresConfirmation(t *testing.T) {
	deleted := false
	repo := &fakeRepo{
		deleteFn: func(ctx context.Context, cid, kind string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo)

	err := svc.Delete(context.Background(), uuid.New().String(), KindRegular, false)
	assert.ErrorIs(t, err, mappingerrors.ErrDeleteNotConfirmed)
	assert.False(t, deleted)

	err = svc.Delete(context.Background(), uuid.New().String(), KindRegular, true)
	assert.NoError(t, err)
	assert.True(t, deleted)
}
