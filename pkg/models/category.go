package models

// Category is one entry of the fixed spending taxonomy. Categories are
// seeded at startup and never created or mutated by ingestion; the
// pipeline only ever references them by ID.
type Category struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"name" json:"name"`
	Color       string `yaml:"color" json:"color"`
	Icon        string `yaml:"icon" json:"icon"`
}

// CategoryOther is the fallback category assigned when no keyword rule
// matches a transaction.
const CategoryOther = "other"
