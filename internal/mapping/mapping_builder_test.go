package mapping

import (
	"testing"

	mappingerrors "payslip-system/internal/mapping/errors"

	"github.com/stretchr/testify/assert"
)

func TestBuild_TabSeparatedExport(t *testing.T) {
	raw := "KY01\tKY02\tKY03\tKY22_6\tKY22_7\n識別コード\t部門コード\t社員番号\t基本給\t残業手当\n"

	model, err := Build(raw, "admin")
	assert.NoError(t, err)

	assert.NotNil(t, model.MainFields.IdentificationCode)
	assert.Equal(t, "KY01", model.MainFields.IdentificationCode.HeaderName)
	assert.NotNil(t, model.MainFields.DepartmentCode)
	assert.Equal(t, "KY02", model.MainFields.DepartmentCode.HeaderName)
	assert.NotNil(t, model.MainFields.EmployeeCode)
	assert.Equal(t, "KY03", model.MainFields.EmployeeCode.HeaderName)
	assert.Equal(t, 2, model.MainFields.EmployeeCode.ColumnIndex)

	others := model.ColumnsByCategory[CategoryOther]
	assert.Len(t, others, 2)
	assert.Equal(t, "KY22_6", others[0].HeaderName)
	assert.Equal(t, "基本給", others[0].ItemName)
	assert.Equal(t, 3, others[0].ColumnIndex)
	assert.Equal(t, "other_3", others[0].ID)
	assert.True(t, others[0].IsVisible)
	assert.Equal(t, "admin", model.UpdatedBy)
}

func TestBuild_RequiresTwoLines(t *testing.T) {
	_, err := Build("KY01\tKY03\n", "admin")
	assert.ErrorIs(t, err, mappingerrors.ErrMalformedInput)

	_, err = Build("", "admin")
	assert.ErrorIs(t, err, mappingerrors.ErrMalformedInput)

	// Blank lines between the two rows do not count.
	model, err := Build("\n\nKY03\tKY22_6\n\n社員番号\t基本給\n", "admin")
	assert.NoError(t, err)
	assert.NotNil(t, model.MainFields.EmployeeCode)
}

func TestBuildFromRows_CommaDelimiter(t *testing.T) {
	model, err := BuildFromRows("KY03,KY22_6,KY22_7", "社員番号,基本給,通勤手当", "admin")
	assert.NoError(t, err)

	assert.NotNil(t, model.MainFields.EmployeeCode)
	assert.Len(t, model.ColumnsByCategory[CategoryOther], 2)
}

func TestBuildFromRows_WhitespaceFallback(t *testing.T) {
	model, err := BuildFromRows("KY03 KY22_6", "employee_no base_pay", "admin")
	assert.NoError(t, err)
	assert.NotNil(t, model.MainFields.EmployeeCode)
	assert.Len(t, model.ColumnsByCategory[CategoryOther], 1)
}

func TestBuildFromRows_UnevenRowsArePadded(t *testing.T) {
	model, err := BuildFromRows("KY03\tKY22_6\tKY22_7", "社員番号\t基本給", "admin")
	assert.NoError(t, err)

	// KY22_7 has no label but still gets a binding.
	others := model.ColumnsByCategory[CategoryOther]
	assert.Len(t, others, 2)
	assert.Equal(t, "KY22_7", others[1].HeaderName)
	assert.Equal(t, "", others[1].ItemName)
}

func TestBuildFromRows_EmptyPairsRecorded(t *testing.T) {
	model, err := BuildFromRows("KY03\t\tKY22_6", "社員番号\t\t基本給", "admin")
	assert.NoError(t, err)

	assert.Equal(t, []int{1}, model.EmptyColumns)
	assert.Len(t, model.ColumnsByCategory[CategoryOther], 1)
}

func TestBuildFromRows_EmptyHeaderRow(t *testing.T) {
	_, err := BuildFromRows("\t\t", "a\tb\tc", "admin")
	assert.ErrorIs(t, err, mappingerrors.ErrEmptyHeaderRow)
}

func TestBuildFromRows_LabelMarksClaimMainFields(t *testing.T) {
	// No KY tokens; the label text alone binds the main fields.
	model, err := BuildFromRows("COL_A\tCOL_B\tCOL_C", "社員コード\t所属コード\t基本給", "admin")
	assert.NoError(t, err)

	assert.NotNil(t, model.MainFields.EmployeeCode)
	assert.Equal(t, "COL_A", model.MainFields.EmployeeCode.HeaderName)
	assert.NotNil(t, model.MainFields.DepartmentCode)
	assert.Equal(t, "COL_B", model.MainFields.DepartmentCode.HeaderName)
	assert.Len(t, model.ColumnsByCategory[CategoryOther], 1)
}

func TestBuildFromRows_FirstClaimWins(t *testing.T) {
	model, err := BuildFromRows("KY03\tEMP2", "社員番号\t社員番号(旧)", "admin")
	assert.NoError(t, err)

	assert.Equal(t, "KY03", model.MainFields.EmployeeCode.HeaderName)
	// The second candidate stays a plain column.
	assert.Len(t, model.ColumnsByCategory[CategoryOther], 1)
	assert.Equal(t, "EMP2", model.ColumnsByCategory[CategoryOther][0].HeaderName)
}

func TestIsMachineCode(t *testing.T) {
	assert.True(t, IsMachineCode("KY03"))
	assert.True(t, IsMachineCode("KY22_6"))
	assert.True(t, IsMachineCode("A01"))
	assert.False(t, IsMachineCode("基本給"))
	assert.False(t, IsMachineCode("base pay"))
	assert.False(t, IsMachineCode("KY22_6_9_1"))
}

func TestValidate_DuplicateHeader(t *testing.T) {
	model := NewModel()
	model.ColumnsByCategory[CategoryIncome] = []MappedColumn{
		{ID: "income_0", HeaderName: "KY22_6", ItemName: "基本給", ColumnIndex: 0, Category: CategoryIncome, IsVisible: true},
	}
	model.ColumnsByCategory[CategoryDeduction] = []MappedColumn{
		{ID: "deduction_1", HeaderName: "KY22_6", ItemName: "健康保険", ColumnIndex: 1, Category: CategoryDeduction, IsVisible: true},
	}

	issues := model.Validate()
	assert.Len(t, issues, 1)
	assert.Equal(t, "duplicate_header", issues[0].Kind)
	assert.Equal(t, "KY22_6", issues[0].HeaderName)
	assert.Equal(t, CategoryDeduction, issues[0].Category)
}

func TestValidate_SwappedOrientation(t *testing.T) {
	model := NewModel()
	model.ColumnsByCategory[CategoryIncome] = []MappedColumn{
		{ID: "income_0", HeaderName: "基本給", ItemName: "KY22_6", ColumnIndex: 0, Category: CategoryIncome, IsVisible: true},
	}

	issues := model.Validate()
	assert.Len(t, issues, 1)
	assert.Equal(t, "swapped_orientation", issues[0].Kind)
}

func TestModel_LookupUsesHeaderName(t *testing.T) {
	model := NewModel()
	model.ColumnsByCategory[CategoryIncome] = []MappedColumn{
		{ID: "income_0", HeaderName: "KY22_6", ItemName: "基本給", ColumnIndex: 5, Category: CategoryIncome, IsVisible: true},
	}
	model.BuildIndex()

	col, ok := model.Lookup("KY22_6")
	assert.True(t, ok)
	assert.Equal(t, "基本給", col.ItemName)

	_, ok = model.Lookup("基本給")
	assert.False(t, ok)
}
