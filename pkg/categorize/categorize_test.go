package categorize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/models"
)

func TestCategorizeDefaults(t *testing.T) {
	c := New(DefaultRules(), log.Default())

	tests := []struct {
		desc     string
		merchant string
		want     string
	}{
		{"WALMART SUPERCENTER 1234", "WALMART SUPERCENTER", "groceries"},
		{"SHELL GAS STATION", "SHELL GAS STATION", "gas"},
		{"STARBUCKS #4521 COFFEE", "STARBUCKS COFFEE", "restaurants"},
		{"NETFLIX.COM", "NETFLIX.COM", "subscriptions"},
		{"PAYROLL DIRECT DEP ACME", "PAYROLL DIRECT DEP", "income"},
		{"XJ-99 UNKNOWN VENDOR", "XJ- UNKNOWN VENDOR", models.CategoryOther},
	}
	for _, tt := range tests {
		m := c.Categorize(models.Transaction{Description: tt.desc, MerchantName: tt.merchant})
		if m.CategoryID != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.desc, m.CategoryID, tt.want)
		}
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	// The earlier rule wins even when a later rule matches more keywords.
	rules := []Rule{
		{CategoryID: "first", Keywords: []string{"coffee"}},
		{CategoryID: "second", Keywords: []string{"starbucks", "coffee"}},
	}
	c := New(rules, log.Default())

	m := c.Categorize(models.Transaction{Description: "STARBUCKS COFFEE"})
	if m.CategoryID != "first" {
		t.Errorf("CategoryID = %q, want %q", m.CategoryID, "first")
	}
}

func TestCategorizeConfidence(t *testing.T) {
	rules := []Rule{
		{CategoryID: "cafes", Keywords: []string{"starbucks", "coffee", "espresso", "latte"}},
	}
	c := New(rules, log.Default())

	m := c.Categorize(models.Transaction{Description: "STARBUCKS COFFEE RUN"})
	if m.CategoryID != "cafes" {
		t.Fatalf("CategoryID = %q, want %q", m.CategoryID, "cafes")
	}
	if m.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", m.Confidence)
	}
}

func TestCategorizeFallback(t *testing.T) {
	c := New(DefaultRules(), log.Default())
	m := c.Categorize(models.Transaction{Description: "ZZZZZ"})
	if m.CategoryID != models.CategoryOther {
		t.Errorf("CategoryID = %q, want %q", m.CategoryID, models.CategoryOther)
	}
	if m.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", m.Confidence)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `- category: groceries
  keywords: [walmart, kroger]
- category: gas
  keywords: [shell]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].CategoryID != "groceries" || rules[1].CategoryID != "gas" {
		t.Errorf("rule order not preserved: %+v", rules)
	}
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(empty); err == nil {
		t.Error("expected error for empty rules file")
	}

	missing := filepath.Join(dir, "missing.yaml")
	if err := os.WriteFile(missing, []byte("- category: groceries\n  keywords: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(missing); err == nil {
		t.Error("expected error for rule without keywords")
	}
}
