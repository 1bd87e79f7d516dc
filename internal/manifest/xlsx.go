package manifest

import (
	"fmt"

	"github.com/tsawler/tabula/xlsx"
)

// readXLSX returns the display values of the first worksheet.
func readXLSX(path string) ([][]string, error) {
	r, err := xlsx.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer r.Close()

	if r.SheetCount() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet, err := r.Sheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}

	rows := make([][]string, len(sheet.Rows))
	for i, cells := range sheet.Rows {
		row := make([]string, len(cells))
		for j := range cells {
			row[j] = cells[j].Value
		}
		rows[i] = row
	}
	return rows, nil
}
