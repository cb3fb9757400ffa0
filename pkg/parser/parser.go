package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/models"
)

// Format identifies the extraction strategy selected for a file.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatPDF     Format = "pdf"
	FormatXLS     Format = "xls"
	FormatUnknown Format = ""
)

var (
	pdfMagic = []byte("%PDF")
	// OLE2 compound document header, used by legacy .xls exports.
	xlsMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// DetectFormat inspects file content first and falls back to the filename
// extension. Content wins: a ".csv" that starts with a PDF header is a PDF.
func DetectFormat(data []byte, filename string) Format {
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF
	}
	if bytes.HasPrefix(data, xlsMagic) {
		return FormatXLS
	}
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".csv") {
		return FormatCSV
	}
	// No recognizable magic and no .csv extension: accept comma-delimited
	// content anyway, since banks routinely export CSV as .txt.
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.ContainsRune(head, ',') {
		return FormatCSV
	}
	return FormatUnknown
}

// Parser turns statement file bytes into transactions. It is stateless
// apart from the logger; re-invoking ProcessBytes on the same input
// restarts extraction from the top.
type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{logger: logger}
}

// ProcessBytes detects the file format, extracts raw rows and builds
// transactions. Rows that fail to build are dropped with a warning;
// warnings are returned so callers can surface them. A file of an
// unknown format is an error.
func (p *Parser) ProcessBytes(data []byte, filename string) ([]*models.Transaction, []string, error) {
	format := DetectFormat(data, filename)
	p.logger.Debug("detected file format", "format", format, "filename", filename)

	var (
		rows []RawRow
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = p.extractDelimited(data)
	case FormatXLS:
		rows, err = p.extractXLS(data)
	case FormatPDF:
		var text string
		text, err = extractPDFText(data)
		if err == nil {
			rows = p.extractLines(text)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported file format: %q", filename)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("extract rows from %q: %w", filename, err)
	}

	var (
		txns     []*models.Transaction
		warnings []string
	)
	for i, row := range rows {
		txn, err := p.buildTransaction(row)
		if err != nil {
			p.logger.Debug("dropping row", "row", i, "error", err)
			warnings = append(warnings, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		txns = append(txns, txn)
	}

	p.logger.Info("statement parsed",
		"filename", filename, "format", format,
		"rows", len(rows), "transactions", len(txns), "dropped", len(warnings))
	return txns, warnings, nil
}
