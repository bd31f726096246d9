package ingestion

import (
	"regexp"
	"strconv"
	"strings"
)

// textFieldPattern decides which mapped items stay string-typed. It
// matches identifier/name-like labels; everything else attempts numeric
// coercion. Matching is on words for ASCII so "bonus" never trips "no".
var textFieldPattern = regexp.MustCompile(`(?i)(^|[^a-z])(code|name|id|no|number|date)([^a-z]|$)`)

// textFieldMarkers are the Japanese label fragments for identifier and
// name fields in the HR export.
var textFieldMarkers = []string{
	"コード", "番号", "氏名", "名前", "カナ", "日付", "年月日",
}

func isTextField(headerName, itemName string) bool {
	for _, candidate := range []string{itemName, headerName} {
		if candidate == "" {
			continue
		}
		if textFieldPattern.MatchString(candidate) {
			return true
		}
		for _, marker := range textFieldMarkers {
			if strings.Contains(candidate, marker) {
				return true
			}
		}
	}
	return false
}

var currencyStripper = strings.NewReplacer(
	",", "",
	"，", "",
	"¥", "",
	"￥", "",
	"$", "",
	" ", "",
	"　", "",
)

// coerceNumeric parses a monetary/count cell after stripping separators
// and currency symbols. A value that still fails to parse is genuinely
// non-numeric and must be kept as text, never silently zeroed.
func coerceNumeric(raw string) (float64, bool) {
	cleaned := currencyStripper.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// classifyValue produces the stored item value: a string for
// identifier/name fields, a float64 where coercion succeeds, and the
// original trimmed string as fallback.
func classifyValue(headerName, itemName, raw string) any {
	trimmed := strings.TrimSpace(raw)
	if isTextField(headerName, itemName) {
		return trimmed
	}
	if v, ok := coerceNumeric(trimmed); ok {
		return v
	}
	return trimmed
}
