package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseExcel parses the first sheet of an XLSX workbook.
// Spreadsheet row numbers are reported as line numbers.
func ParseExcel(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return parseRows(nil), nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	rows := make([]row, 0, len(records))
	for i, record := range records {
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, row{line: i + 1, cells: trimCells(record)})
	}

	return parseRows(rows), nil
}
