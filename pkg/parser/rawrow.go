package parser

import "strings"

// RowKind says which extraction strategy produced a RawRow. The builder
// needs it because sign inference differs between delimited rows and
// pattern-matched statement lines.
type RowKind int

const (
	KindHeader RowKind = iota
	KindPositional
	KindLine
)

// RawRow is one record as decoded from the source file, before any field
// normalization. It only lives for the duration of extraction.
type RawRow struct {
	Kind   RowKind
	Fields []string
	// Header maps lowercased column names to positions in Fields.
	// Nil for positional and line rows.
	Header map[string]int
	// Line is the serialized raw record, kept for audit.
	Line string
}

// Get returns the value of the named column, or "" when the row has no
// header or no such column.
func (r RawRow) Get(name string) string {
	if r.Header == nil {
		return ""
	}
	idx, ok := r.Header[strings.ToLower(name)]
	if !ok || idx >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[idx])
}

// GetFuzzy returns the value of the first column whose name contains the
// given token, used when no exact column name matched.
func (r RawRow) GetFuzzy(token string) string {
	if r.Header == nil {
		return ""
	}
	token = strings.ToLower(token)
	best := -1
	for name, idx := range r.Header {
		if !strings.Contains(name, token) || idx >= len(r.Fields) {
			continue
		}
		if best == -1 || idx < best {
			best = idx
		}
	}
	if best == -1 {
		return ""
	}
	return strings.TrimSpace(r.Fields[best])
}
