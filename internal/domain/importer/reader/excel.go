package reader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DecodeExcel reads the most data-rich sheet of an XLSX workbook into rows.
// Workbooks exported by quote tools often carry a cover or chart sheet before
// the data, so the sheet with the most non-empty rows wins rather than the
// first one.
func DecodeExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickDataSheet(f)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no readable sheet")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if rowEmpty(row) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func pickDataSheet(f *excelize.File) string {
	best := ""
	bestRows := 0
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		n := 0
		for _, row := range rows {
			if !rowEmpty(row) {
				n++
			}
		}
		if n > bestRows {
			best = name
			bestRows = n
		}
	}
	return best
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
