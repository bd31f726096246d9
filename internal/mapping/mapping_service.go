package mapping

import (
	"context"
	"fmt"
	"sort"
	"time"

	mappingerrors "payslip-system/internal/mapping/errors"

	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=mapping_service.go -destination=mock/mapping_service_mock.go -package=mock
type Service interface {
	Save(ctx context.Context, companyID, userID string, req SaveMappingRequest) (MappingResponse, error)
	Load(ctx context.Context, companyID, kind string) (MappingResponse, error)
	LoadModel(ctx context.Context, companyID, kind string) (*Model, error)
	Preview(ctx context.Context, req PreviewMappingRequest) (MappingResponse, error)
	Import(ctx context.Context, companyID, userID string, req ImportMappingRequest) (MappingResponse, error)
	Delete(ctx context.Context, companyID, kind string, confirmed bool) error
}

type service struct {
	repo Repository
	sf   singleflight.Group
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Save(
	ctx context.Context,
	companyID, userID string,
	req SaveMappingRequest,
) (MappingResponse, error) {
	model, err := modelFromRequest(req, userID)
	if err != nil {
		return MappingResponse{}, err
	}

	// A broken mapping silently corrupts every payslip built from it, so
	// structural issues reject the save instead of being stored as-is.
	for _, issue := range model.Validate() {
		switch issue.Kind {
		case "duplicate_header":
			return MappingResponse{}, mappingerrors.ErrDuplicateHeaderName
		case "swapped_orientation":
			return MappingResponse{}, mappingerrors.ErrSwappedOrientation
		}
	}

	if err := s.repo.Save(ctx, companyID, req.Kind, userID, model); err != nil {
		return MappingResponse{}, err
	}

	return mapToResponse(req.Kind, model, nil), nil
}

func (s *service) Load(ctx context.Context, companyID, kind string) (MappingResponse, error) {
	model, err := s.LoadModel(ctx, companyID, kind)
	if err != nil {
		return MappingResponse{}, err
	}
	return mapToResponse(kind, model, nil), nil
}

// LoadModel is the read path ingestion uses. Concurrent jobs for the
// same tenant share one store read via singleflight.
func (s *service) LoadModel(ctx context.Context, companyID, kind string) (*Model, error) {
	if !ValidKind(kind) {
		return nil, mappingerrors.ErrInvalidKind
	}

	key := fmt.Sprintf("%s/%s", companyID, kind)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.repo.Load(ctx, companyID, kind)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Preview runs the two-row builder without persisting, returning the
// would-be model plus any validation issues for the settings UI.
func (s *service) Preview(ctx context.Context, req PreviewMappingRequest) (MappingResponse, error) {
	model, err := Build(req.Text, "")
	if err != nil {
		return MappingResponse{}, err
	}
	return mapToResponse("", model, model.Validate()), nil
}

func (s *service) Import(
	ctx context.Context,
	companyID, userID string,
	req ImportMappingRequest,
) (MappingResponse, error) {
	model, err := Build(req.Text, userID)
	if err != nil {
		return MappingResponse{}, err
	}

	// A pasted export with the rows reversed builds a structurally valid
	// model, so imports go through the same rejection as Save.
	for _, issue := range model.Validate() {
		switch issue.Kind {
		case "duplicate_header":
			return MappingResponse{}, mappingerrors.ErrDuplicateHeaderName
		case "swapped_orientation":
			return MappingResponse{}, mappingerrors.ErrSwappedOrientation
		}
	}

	if err := s.repo.Save(ctx, companyID, req.Kind, userID, model); err != nil {
		return MappingResponse{}, err
	}

	return mapToResponse(req.Kind, model, nil), nil
}

func (s *service) Delete(ctx context.Context, companyID, kind string, confirmed bool) error {
	if !ValidKind(kind) {
		return mappingerrors.ErrInvalidKind
	}
	if !confirmed {
		return mappingerrors.ErrDeleteNotConfirmed
	}
	return s.repo.Delete(ctx, companyID, kind)
}

func modelFromRequest(req SaveMappingRequest, userID string) (*Model, error) {
	model := NewModel()
	model.UpdatedAt = time.Now().UTC()
	model.UpdatedBy = userID

	model.MainFields = MainFields{
		EmployeeCode:       mainFieldFromPayload(req.MainFields.EmployeeCode),
		DepartmentCode:     mainFieldFromPayload(req.MainFields.DepartmentCode),
		IdentificationCode: mainFieldFromPayload(req.MainFields.IdentificationCode),
	}

	for _, col := range req.Columns {
		if !ValidCategory(col.Category) {
			return nil, mappingerrors.ErrInvalidCategory
		}
		id := col.ID
		if id == "" {
			id = ColumnID(col.Category, col.ColumnIndex)
		}
		model.ColumnsByCategory[col.Category] = append(model.ColumnsByCategory[col.Category], MappedColumn{
			ID:          id,
			HeaderName:  col.HeaderName,
			ItemName:    col.ItemName,
			ColumnIndex: col.ColumnIndex,
			Category:    col.Category,
			IsVisible:   col.IsVisible == nil || *col.IsVisible,
		})
	}

	// Keep each category in capture order regardless of request order.
	for _, cat := range Categories {
		cols := model.ColumnsByCategory[cat]
		sort.SliceStable(cols, func(i, j int) bool {
			return cols[i].ColumnIndex < cols[j].ColumnIndex
		})
	}

	model.BuildIndex()
	return model, nil
}

func mainFieldFromPayload(p *MainFieldPayload) *MainField {
	if p == nil {
		return nil
	}
	return &MainField{
		HeaderName:  p.HeaderName,
		ItemName:    p.ItemName,
		ColumnIndex: p.ColumnIndex,
	}
}

func mapToResponse(kind string, model *Model, issues []ValidationIssue) MappingResponse {
	resp := MappingResponse{
		Kind:              kind,
		ColumnsByCategory: map[string][]ColumnResponse{},
		EmptyColumns:      model.EmptyColumns,
		UpdatedBy:         model.UpdatedBy,
		Issues:            issues,
	}
	if !model.UpdatedAt.IsZero() {
		resp.UpdatedAt = model.UpdatedAt.Format(time.RFC3339)
	}

	resp.MainFields = MainFieldsResponse{
		EmployeeCode:       mainFieldToResponse(model.MainFields.EmployeeCode),
		DepartmentCode:     mainFieldToResponse(model.MainFields.DepartmentCode),
		IdentificationCode: mainFieldToResponse(model.MainFields.IdentificationCode),
	}

	for _, cat := range Categories {
		cols := model.ColumnsByCategory[cat]
		out := make([]ColumnResponse, len(cols))
		for i, col := range cols {
			out[i] = ColumnResponse{
				ID:          col.ID,
				HeaderName:  col.HeaderName,
				ItemName:    col.ItemName,
				ColumnIndex: col.ColumnIndex,
				Category:    col.Category,
				IsVisible:   col.IsVisible,
			}
		}
		resp.ColumnsByCategory[cat] = out
	}

	return resp
}

func mainFieldToResponse(f *MainField) *MainFieldResponse {
	if f == nil {
		return nil
	}
	return &MainFieldResponse{
		HeaderName:  f.HeaderName,
		ItemName:    f.ItemName,
		ColumnIndex: f.ColumnIndex,
	}
}
