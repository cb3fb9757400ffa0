package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

// xlsMaxRows caps how many spreadsheet rows are read. Statements are a few
// hundred rows at most; anything larger is not a bank export.
const xlsMaxRows = 5000

// extractXLS reads a legacy .xls workbook and feeds its cells through the
// same header-driven/positional logic as CSV. Empty rows are skipped.
func (p *Parser) extractXLS(data []byte) ([]RawRow, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls workbook: %w", err)
	}

	cells := workbook.ReadAllCells(xlsMaxRows)
	records := make([][]string, 0, len(cells))
	for _, row := range cells {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		records = append(records, row)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}
	return p.rowsFromRecords(records), nil
}
