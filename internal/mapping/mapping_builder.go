package mapping

import (
	"strings"
	"time"

	mappingerrors "payslip-system/internal/mapping/errors"
)

// Recognized bindings for the three main fields. Header-code tokens are
// matched exactly first; label markers are matched as substrings only
// when no token matched. The KY tokens are the fixed slot codes the HR
// export uses for identification, department and employee number.
var (
	employeeHeaderTokens = []string{"KY03", "EMPLOYEE_CODE"}
	employeeLabelMarks   = []string{"employee code", "employee no", "社員番号", "社員コード", "従業員番号"}

	departmentHeaderTokens = []string{"KY02", "DEPARTMENT_CODE"}
	departmentLabelMarks   = []string{"department code", "部門コード", "所属コード"}

	identificationHeaderTokens = []string{"KY01", "IDENTIFICATION_CODE"}
	identificationLabelMarks   = []string{"identification code", "識別コード"}
)

// Build derives a mapping model from pasted text: the first non-empty
// line is the header-code row, the second the semantic-label row.
func Build(raw string, updatedBy string) (*Model, error) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(strings.TrimSuffix(line, "\r")) != "" {
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
	}
	if len(lines) < 2 {
		return nil, mappingerrors.ErrMalformedInput
	}
	return BuildFromRows(lines[0], lines[1], updatedBy)
}

// BuildFromRows pairs the two aligned rows index by index. Unclaimed
// non-empty pairs all land in the "other" category: income/deduction/
// attendance classification is an explicit user action afterwards, never
// guessed from the label content.
func BuildFromRows(headerRow, labelRow, updatedBy string) (*Model, error) {
	delim := detectDelimiter(headerRow, labelRow)
	headers := splitRow(headerRow, delim)
	labels := splitRow(labelRow, delim)

	// Pad with empty cells so a trailing cell on the longer row is never
	// dropped.
	for len(labels) < len(headers) {
		labels = append(labels, "")
	}
	for len(headers) < len(labels) {
		headers = append(headers, "")
	}

	allEmpty := true
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return nil, mappingerrors.ErrEmptyHeaderRow
	}

	model := NewModel()
	model.UpdatedAt = time.Now().UTC()
	model.UpdatedBy = updatedBy

	for i := range headers {
		headerName := strings.TrimSpace(headers[i])
		itemName := strings.TrimSpace(labels[i])

		// A fully empty pair is a legitimate gap in the export; it is
		// recorded for index auditing but joins no category list.
		if headerName == "" && itemName == "" {
			model.EmptyColumns = append(model.EmptyColumns, i)
			continue
		}

		if claimMainField(model, headerName, itemName, i) {
			continue
		}

		model.ColumnsByCategory[CategoryOther] = append(model.ColumnsByCategory[CategoryOther], MappedColumn{
			ID:          ColumnID(CategoryOther, i),
			HeaderName:  headerName,
			ItemName:    itemName,
			ColumnIndex: i,
			Category:    CategoryOther,
			IsVisible:   true,
		})
	}

	model.BuildIndex()
	return model, nil
}

func claimMainField(model *Model, headerName, itemName string, index int) bool {
	field := &MainField{HeaderName: headerName, ItemName: itemName, ColumnIndex: index}

	if model.MainFields.EmployeeCode == nil &&
		matchesMainField(headerName, itemName, employeeHeaderTokens, employeeLabelMarks) {
		model.MainFields.EmployeeCode = field
		return true
	}
	if model.MainFields.DepartmentCode == nil &&
		matchesMainField(headerName, itemName, departmentHeaderTokens, departmentLabelMarks) {
		model.MainFields.DepartmentCode = field
		return true
	}
	if model.MainFields.IdentificationCode == nil &&
		matchesMainField(headerName, itemName, identificationHeaderTokens, identificationLabelMarks) {
		model.MainFields.IdentificationCode = field
		return true
	}
	return false
}

func matchesMainField(headerName, itemName string, tokens, marks []string) bool {
	for _, t := range tokens {
		if strings.EqualFold(headerName, t) {
			return true
		}
	}
	lowered := strings.ToLower(itemName)
	for _, m := range marks {
		if m != "" && strings.Contains(lowered, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

type delimiter int

const (
	delimTab delimiter = iota
	delimComma
	delimWhitespace
)

func detectDelimiter(rows ...string) delimiter {
	joined := strings.Join(rows, "")
	if strings.Contains(joined, "\t") {
		return delimTab
	}
	if strings.Contains(joined, ",") {
		return delimComma
	}
	return delimWhitespace
}

// splitRow preserves empty cells for tab and comma input. Whitespace-run
// splitting cannot represent an empty cell and is only a degraded
// fallback for space-separated pastes.
func splitRow(row string, d delimiter) []string {
	switch d {
	case delimTab:
		return strings.Split(row, "\t")
	case delimComma:
		return strings.Split(row, ",")
	default:
		return strings.Fields(row)
	}
}
