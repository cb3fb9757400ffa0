// Package normalize turns the raw date and amount strings found in bank
// exports into canonical values. Both functions are pure; callers decide
// what a parse failure means for the surrounding row.
package normalize

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadDate   = errors.New("unrecognized date")
	ErrBadAmount = errors.New("unrecognized amount")
)

// dateFormats are tried in order. MM/DD wins over the generic fallback so
// that statements which omit the year still parse.
var dateFormats = []string{
	"01/02/2006",
	"2006-01-02",
	"01/02",
	"1/2/2006",
	"2006-1-2",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a statement date string. Characters other than digits,
// '/' and '-' are stripped before matching, except for the spelled-out
// month fallbacks. Dates with a year outside [1900, 2100) are rejected as
// implausible.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, ErrBadDate
	}

	stripped := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '/' || r == '-' {
			return r
		}
		return -1
	}, trimmed)

	for _, format := range dateFormats {
		candidate := stripped
		if strings.ContainsAny(format, "J") {
			candidate = trimmed
		}
		t, err := time.Parse(format, candidate)
		if err != nil {
			continue
		}
		if format == "01/02" {
			now := time.Now().UTC()
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		if t.Year() < 1900 || t.Year() >= 2100 {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, ErrBadDate
}

// ParseAmount parses a monetary amount. Currency symbols, thousands
// separators and whitespace are stripped; a parenthesized value such as
// "(12.34)" denotes a negative amount.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrBadAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "\t", "").Replace(s)
	if s == "" {
		return 0, ErrBadAmount
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrBadAmount
	}
	if negative {
		value = -value
	}
	return value, nil
}
