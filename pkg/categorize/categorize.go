// Package categorize assigns spending categories to transactions using an
// ordered keyword-rule table. The scan is first-match-wins: rule order
// encodes precedence, and reordering rules changes classification.
package categorize

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/models"
)

// Rule maps a set of keywords to a category. A transaction matches when
// any keyword is a substring of its lowercased description + merchant.
type Rule struct {
	CategoryID string   `yaml:"category"`
	Keywords   []string `yaml:"keywords"`
}

// Match is the outcome of categorizing one transaction. Confidence is the
// fraction of the winning rule's keywords found in the search text; the
// categorical decision itself is binary per rule.
type Match struct {
	CategoryID string
	Confidence float64
}

// Categorizer holds an immutable ordered rule table. Construct one with
// New and share it freely; it has no mutable state.
type Categorizer struct {
	rules    []Rule
	fallback string
	logger   *log.Logger
}

func New(rules []Rule, logger *log.Logger) *Categorizer {
	lowered := make([]Rule, len(rules))
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		lowered[i] = Rule{CategoryID: r.CategoryID, Keywords: kws}
	}
	return &Categorizer{
		rules:    lowered,
		fallback: models.CategoryOther,
		logger:   logger,
	}
}

// Categorize returns the category of the first rule with at least one
// keyword match, or the fallback category when nothing matches.
func (c *Categorizer) Categorize(t models.Transaction) Match {
	search := strings.ToLower(t.Description + " " + t.MerchantName)

	for _, rule := range c.rules {
		matched := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(search, kw) {
				matched++
			}
		}
		if matched > 0 {
			m := Match{
				CategoryID: rule.CategoryID,
				Confidence: float64(matched) / float64(len(rule.Keywords)),
			}
			c.logger.Debug("rule matched", "category", m.CategoryID, "confidence", m.Confidence, "desc", t.Description)
			return m
		}
	}
	return Match{CategoryID: c.fallback}
}
