package ingestion

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	ingestionerrors "payslip-system/internal/ingestion/errors"

	"github.com/xuri/excelize/v2"
)

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// parseRows turns the fetched file into rows of cells. XLSX exports are
// detected by the zip signature and read from the first sheet; anything
// else is treated as delimited text. The first row is the header row
// whose cells are the headerNames the mapping references.
func parseRows(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, ingestionerrors.ErrEmptyFile
	}

	if bytes.HasPrefix(data, zipMagic) {
		return parseXLSXRows(data)
	}
	return parseCSVRows(data)
}

func parseCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectCSVComma(data)
	reader.LazyQuotes = true
	// Column counts vary between uploads; the mapping is header-name
	// keyed, so ragged rows are fine here.
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ingestionerrors.ErrUnsupportedFile
		}
		rows = append(rows, record)
	}

	return rows, nil
}

// detectCSVComma prefers tab when the first line carries one, matching
// the two common export variants.
func detectCSVComma(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.ContainsRune(firstLine, '\t') {
		return '\t'
	}
	return ','
}

func parseXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, ingestionerrors.ErrUnsupportedFile
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ingestionerrors.ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ingestionerrors.ErrUnsupportedFile
	}
	return rows, nil
}

// headerIndex maps each non-empty header cell to its position in this
// particular file. Lookups at ingestion time go through this map, never
// through the column indexes recorded in the mapping.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}
	return idx
}

// cellAt tolerates short rows: a column missing from this row reads as
// empty, not as an error.
func cellAt(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}
