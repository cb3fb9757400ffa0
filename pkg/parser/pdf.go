package parser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// extractPDFText shells out to pdftotext with layout preservation, which
// keeps the date / description / amount columns on one line per
// transaction. There is no in-process PDF layout understanding; the line
// patterns do the rest.
func extractPDFText(data []byte) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not installed: %w", err)
	}

	dir, err := os.MkdirTemp("", "spendlens-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "statement.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}

	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}
