package models

import (
	"strings"
	"time"
)

// Transaction represents a single transaction extracted from a statement.
// Amount is signed: negative means money out, positive means money in.
type Transaction struct {
	Date         time.Time
	Description  string
	Amount       float64
	MerchantName string
	OriginalText string
	CategoryID   string
}

// Valid reports whether the transaction carries the three fields every
// stored transaction must have: a date, a description and a non-zero amount.
func (t Transaction) Valid() bool {
	return !t.Date.IsZero() &&
		strings.TrimSpace(t.Description) != "" &&
		t.Amount != 0
}

// Day returns the transaction date truncated to day granularity in UTC.
// Duplicate detection compares dates at this granularity.
func (t Transaction) Day() time.Time {
	y, m, d := t.Date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
