package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceNumeric(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"250000", 250000, true},
		{"1,200", 1200, true},
		{"¥1,200", 1200, true},
		{"￥250，000", 250000, true},
		{"$99.50", 99.5, true},
		{"-3000", -3000, true},
		{" 1 200 ", 1200, true},
		{"　１２００", 0, false}, // full-width digits are not numbers
		{"N/A", 0, false},
		{"", 0, false},
		{"12月", 0, false},
	}

	for _, tc := range cases {
		got, ok := coerceNumeric(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
		}
	}
}

func TestIsTextField(t *testing.T) {
	assert.True(t, isTextField("KY03", "社員番号"))
	assert.True(t, isTextField("", "employee code"))
	assert.True(t, isTextField("", "emp_no"))
	assert.True(t, isTextField("", "支給日付"))
	assert.True(t, isTextField("", "氏名カナ"))

	// "no" must match as a word, not inside another word.
	assert.False(t, isTextField("", "bonus"))
	assert.False(t, isTextField("KY22_6", "基本給"))
	assert.False(t, isTextField("", "残業手当"))
}

func TestClassifyValue(t *testing.T) {
	// Identifier fields stay strings even when the cell looks numeric.
	assert.Equal(t, "00123", classifyValue("KY03", "社員番号", "00123"))

	// Monetary cells coerce with separators and currency stripped.
	assert.Equal(t, float64(1200), classifyValue("KY22_7", "残業手当", "¥1,200"))
	assert.Equal(t, float64(-3000), classifyValue("KY23_2", "調整額", "-3000"))

	// A non-numeric cell in a numeric column keeps its original text.
	assert.Equal(t, "N/A", classifyValue("KY22_7", "残業手当", " N/A "))
	assert.Equal(t, "", classifyValue("KY22_7", "残業手当", ""))
}

func TestHeaderIndex(t *testing.T) {
	idx := headerIndex([]string{"KY03", " KY22_6 ", "", "KY22_7", "KY03"})

	assert.Equal(t, 0, idx["KY03"]) // first occurrence wins
	assert.Equal(t, 1, idx["KY22_6"])
	assert.Equal(t, 3, idx["KY22_7"])
	assert.Len(t, idx, 3)
}

func TestCellAt(t *testing.T) {
	row := []string{"E001", " 営業部 ", "250000"}

	assert.Equal(t, "E001", cellAt(row, 0))
	assert.Equal(t, "営業部", cellAt(row, 1))
	assert.Equal(t, "", cellAt(row, 5))
	assert.Equal(t, "", cellAt(row, -1))
}
