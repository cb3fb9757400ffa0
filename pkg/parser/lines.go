package parser

import (
	"regexp"
	"strings"
)

// linePatterns match "date, free text, trailing amount" statement lines in
// the date variants seen across card statements. Order matters: the first
// matching pattern wins. Capture groups are date, description, amount.
var linePatterns = []*regexp.Regexp{
	// 07/28/2024 STARBUCKS #4521 COFFEE $5.75
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4})\s+(.+?)\s+\(?-?\$?([\d,]+\.\d{2})\)?$`),
	// 2024-07-28 STARBUCKS #4521 COFFEE 5.75
	regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2})\s+(.+?)\s+\(?-?\$?([\d,]+\.\d{2})\)?$`),
	// 07/28 STARBUCKS #4521 COFFEE 5.75 (statement year assumed current)
	regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+(.+?)\s+\(?-?\$?([\d,]+\.\d{2})\)?$`),
	// Jul 28, 2024 STARBUCKS #4521 COFFEE 5.75
	regexp.MustCompile(`^([A-Z][a-z]{2,8} \d{1,2}, \d{4})\s+(.+?)\s+\(?-?\$?([\d,]+\.\d{2})\)?$`),
}

// extractLines matches each trimmed non-empty line of page-extracted text
// against the line patterns. Lines that match no pattern are prose, page
// headers or totals; skipping them is expected, not a failure.
func (p *Parser) extractLines(text string) []RawRow {
	var rows []RawRow
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matched := false
		for _, pattern := range linePatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			rows = append(rows, RawRow{
				Kind:   KindLine,
				Fields: []string{m[1], strings.TrimSpace(m[2]), m[3]},
				Line:   line,
			})
			matched = true
			break
		}
		if !matched {
			p.logger.Debug("line matched no pattern, skipping", "line", line)
		}
	}
	return rows
}
