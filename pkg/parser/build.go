package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spendlens/spendlens/pkg/models"
	"github.com/spendlens/spendlens/pkg/normalize"
)

// Candidate column names probed in priority order for header-driven rows.
// The first column that exists and is non-empty wins.
var (
	dateColumns = []string{
		"date", "transaction date", "posted date", "post date", "trans date",
	}
	descriptionColumns = []string{
		"description", "memo", "name", "details", "payee", "transaction",
	}
	amountColumns = []string{
		"amount", "transaction amount", "value",
	}
)

// creditKeywords flip the sign of a line-based row to positive. Statement
// lines are overwhelmingly expenses unless explicitly marked otherwise.
var creditKeywords = []string{"payment", "credit"}

// buildTransaction maps a raw row to a transaction, rejecting rows whose
// date fails to parse, whose description is empty after trimming, or
// whose amount is zero or unparseable.
func (p *Parser) buildTransaction(row RawRow) (*models.Transaction, error) {
	var rawDate, rawDesc, rawAmount string

	switch row.Kind {
	case KindHeader:
		rawDate = probe(row, dateColumns)
		rawDesc = probe(row, descriptionColumns)
		rawAmount = probe(row, amountColumns)
	case KindPositional:
		rawDate = strings.TrimSpace(row.Fields[posDate])
		rawAmount = strings.TrimSpace(row.Fields[posAmount])
		if len(row.Fields) > posDescription {
			rawDesc = strings.TrimSpace(row.Fields[posDescription])
		} else {
			rawDesc = strings.TrimSpace(row.Fields[len(row.Fields)-1])
		}
	case KindLine:
		rawDate, rawDesc, rawAmount = row.Fields[0], row.Fields[1], row.Fields[2]
	}

	date, err := normalize.ParseDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", rawDate, err)
	}

	desc := strings.TrimSpace(rawDesc)
	if desc == "" {
		return nil, fmt.Errorf("empty description")
	}

	amount, err := p.resolveAmount(row, rawAmount, desc)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("zero amount")
	}

	return &models.Transaction{
		Date:         date,
		Description:  desc,
		Amount:       amount,
		MerchantName: DeriveMerchant(desc),
		OriginalText: row.Line,
	}, nil
}

// resolveAmount applies the sign rules. Distinct debit/credit columns
// take precedence over a generic amount column; for statement lines the
// sign comes from keyword presence in the text.
func (p *Parser) resolveAmount(row RawRow, rawAmount, desc string) (float64, error) {
	if row.Kind == KindHeader {
		if debit := probe(row, []string{"debit"}); debit != "" {
			v, err := normalize.ParseAmount(debit)
			if err != nil {
				return 0, fmt.Errorf("debit %q: %w", debit, err)
			}
			return -abs(v), nil
		}
		if credit := probe(row, []string{"credit"}); credit != "" {
			v, err := normalize.ParseAmount(credit)
			if err != nil {
				return 0, fmt.Errorf("credit %q: %w", credit, err)
			}
			return abs(v), nil
		}
	}

	if rawAmount == "" {
		return 0, fmt.Errorf("no amount column")
	}
	v, err := normalize.ParseAmount(rawAmount)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", rawAmount, err)
	}

	if row.Kind == KindLine {
		lower := strings.ToLower(desc)
		for _, kw := range creditKeywords {
			if strings.Contains(lower, kw) {
				return abs(v), nil
			}
		}
		return -abs(v), nil
	}
	return v, nil
}

// probe tries candidate column names in order: exact match first, then a
// substring match so that e.g. "Transaction Description" still resolves.
func probe(row RawRow, candidates []string) string {
	for _, name := range candidates {
		if v := row.Get(name); v != "" {
			return v
		}
	}
	for _, name := range candidates {
		if v := row.GetFuzzy(name); v != "" {
			return v
		}
	}
	return ""
}

var refNumberPattern = regexp.MustCompile(`\d{4,}`)

// DeriveMerchant derives a short merchant label from a description:
// asterisks, hashes and reference-number digit runs are stripped, then at
// most the first three tokens are kept.
func DeriveMerchant(desc string) string {
	cleaned := strings.NewReplacer("*", " ", "#", " ").Replace(desc)
	cleaned = refNumberPattern.ReplaceAllString(cleaned, " ")
	tokens := strings.Fields(cleaned)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	return strings.Join(tokens, " ")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
