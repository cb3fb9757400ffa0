package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spendlens/spendlens/pkg/models"
)

func sampleTxn(desc string, amount float64, date time.Time) StoredTransaction {
	return StoredTransaction{
		SourceID: "chase-visa",
		Transaction: models.Transaction{
			Date:         date,
			Description:  desc,
			Amount:       amount,
			MerchantName: desc,
			CategoryID:   models.CategoryOther,
		},
	}
}

func TestMemoryFindDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	day := time.Date(2024, 7, 28, 0, 0, 0, 0, time.UTC)

	if _, err := m.InsertTransaction(ctx, sampleTxn("WALMART", -45.00, day)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		source string
		desc   string
		amount float64
		date   time.Time
		want   bool
	}{
		{"exact match", "chase-visa", "WALMART", -45.00, day, true},
		{"same day different hour", "chase-visa", "WALMART", -45.00, day.Add(14 * time.Hour), true},
		{"different amount", "chase-visa", "WALMART", -45.01, day, false},
		{"different description", "chase-visa", "WALMART 2", -45.00, day, false},
		{"next day", "chase-visa", "WALMART", -45.00, day.AddDate(0, 0, 1), false},
		{"different source", "amex", "WALMART", -45.00, day, false},
	}
	for _, tt := range tests {
		got, err := m.FindDuplicate(ctx, tt.source, tt.desc, tt.amount, tt.date)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: FindDuplicate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMemoryListTransactions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := m.InsertTransaction(ctx, sampleTxn("TXN", -1.00-float64(i), base.AddDate(0, 0, i))); err != nil {
			t.Fatal(err)
		}
	}

	out, err := m.ListTransactions(ctx, "chase-visa", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(out))
	}
	// Newest first.
	if !out[0].Date.After(out[1].Date) || !out[1].Date.After(out[2].Date) {
		t.Errorf("transactions not sorted newest first: %v %v %v", out[0].Date, out[1].Date, out[2].Date)
	}

	limited, err := m.ListTransactions(ctx, "chase-visa", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 transactions with limit, got %d", len(limited))
	}

	other, err := m.ListTransactions(ctx, "amex", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("expected no transactions for other source, got %d", len(other))
	}
}

func TestMemoryRecategorize(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	id, err := m.InsertTransaction(ctx, sampleTxn("WALMART", -45.00, time.Now()))
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Recategorize(ctx, id, "groceries"); err != nil {
		t.Fatalf("Recategorize failed: %v", err)
	}
	out, err := m.ListTransactions(ctx, "chase-visa", 0)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].CategoryID != "groceries" {
		t.Errorf("category = %q, want groceries", out[0].CategoryID)
	}

	if err := m.Recategorize(ctx, "no-such-id", "gas"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Recategorize on unknown id = %v, want ErrNotFound", err)
	}
}

func TestMemoryBatchLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	id, err := m.CreateBatch(ctx, BatchSummary{
		SourceID: "chase-visa",
		Filename: "july.csv",
		Status:   StatusProcessing,
	})
	if err != nil {
		t.Fatal(err)
	}

	b, err := m.GetBatch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != StatusProcessing {
		t.Errorf("status = %q, want %q", b.Status, StatusProcessing)
	}

	if err := m.FinishBatch(ctx, id, StatusCompleted, 10, 2, 13, ""); err != nil {
		t.Fatal(err)
	}
	b, err = m.GetBatch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != StatusCompleted || b.Processed != 10 || b.Duplicates != 2 || b.TotalExtracted != 13 {
		t.Errorf("batch not finalized: %+v", b)
	}
	if b.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}

	if _, err := m.GetBatch(ctx, "no-such-batch"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBatch on unknown id = %v, want ErrNotFound", err)
	}
}

func TestMemoryDefaultCategories(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	categories, err := m.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) == 0 {
		t.Fatal("expected seeded categories")
	}
	if categories[len(categories)-1].ID != models.CategoryOther {
		t.Errorf("last category = %q, want %q", categories[len(categories)-1].ID, models.CategoryOther)
	}
}
