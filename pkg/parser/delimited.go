package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// headerTokens are the column-name fragments that mark a first record as a
// header row. Matching is case-insensitive substring.
var headerTokens = []string{
	"date", "description", "amount", "transaction",
	"debit", "credit", "name", "memo",
}

// Positional layout assumed when a delimited file has no usable header.
// Observed in practice as the most common bank export shape:
// date, amount, two filler columns, description.
const (
	posDate        = 0
	posAmount      = 1
	posDescription = 4
)

func (p *Parser) extractDelimited(data []byte) ([]RawRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // column counts vary between banks, validate per row

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}
	return p.rowsFromRecords(records), nil
}

// rowsFromRecords applies the header-driven or positional sub-strategy to
// a decoded table. Shared by the CSV and XLS paths.
func (p *Parser) rowsFromRecords(records [][]string) []RawRow {
	start := 0
	var header map[string]int
	if isHeaderRecord(records[0]) {
		header = make(map[string]int, len(records[0]))
		for i, name := range records[0] {
			header[strings.ToLower(strings.TrimSpace(name))] = i
		}
		start = 1
		p.logger.Debug("header row recognized", "columns", records[0])
	} else {
		p.logger.Debug("no header row, using positional layout")
	}

	rows := make([]RawRow, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		rec := records[i]
		if header != nil {
			rows = append(rows, RawRow{
				Kind:   KindHeader,
				Fields: rec,
				Header: header,
				Line:   strings.Join(rec, ","),
			})
			continue
		}
		if len(rec) <= posAmount {
			p.logger.Debug("positional row too short, skipping", "row", i, "columns", len(rec))
			continue
		}
		rows = append(rows, RawRow{
			Kind:   KindPositional,
			Fields: rec,
			Line:   strings.Join(rec, ","),
		})
	}
	return rows
}

// isHeaderRecord reports whether any field of the first record looks like
// a recognized column name.
func isHeaderRecord(record []string) bool {
	for _, field := range record {
		lower := strings.ToLower(strings.TrimSpace(field))
		for _, token := range headerTokens {
			if strings.Contains(lower, token) {
				return true
			}
		}
	}
	return false
}
