package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spendlens/spendlens/pkg/models"
)

// Memory is an in-process Store used by tests and as the zero-setup dev
// backend. Safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	txns       []StoredTransaction
	batches    map[string]BatchSummary
	categories []models.Category
}

func NewMemory(categories []models.Category) *Memory {
	if categories == nil {
		categories = DefaultCategories()
	}
	return &Memory{
		batches:    make(map[string]BatchSummary),
		categories: categories,
	}
}

func (m *Memory) FindDuplicate(_ context.Context, sourceID, description string, amount float64, date time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := date.UTC().Truncate(24 * time.Hour)
	for _, t := range m.txns {
		if t.SourceID == sourceID &&
			t.Description == description &&
			t.Amount == amount &&
			t.Day().Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) InsertTransaction(_ context.Context, tx StoredTransaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	m.txns = append(m.txns, tx)
	return tx.ID, nil
}

func (m *Memory) ListTransactions(_ context.Context, sourceID string, limit int) ([]StoredTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StoredTransaction
	for _, t := range m.txns {
		if t.SourceID == sourceID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Recategorize(_ context.Context, txID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.txns {
		if m.txns[i].ID == txID {
			m.txns[i].CategoryID = categoryID
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateBatch(_ context.Context, b BatchSummary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.batches[b.ID] = b
	return b.ID, nil
}

func (m *Memory) FinishBatch(_ context.Context, id, status string, processed, duplicates, total int, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	b.Processed = processed
	b.Duplicates = duplicates
	b.TotalExtracted = total
	b.Error = errMsg
	b.FinishedAt = time.Now().UTC()
	m.batches[id] = b
	return nil
}

func (m *Memory) GetBatch(_ context.Context, id string) (BatchSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return BatchSummary{}, ErrNotFound
	}
	return b, nil
}

func (m *Memory) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *Memory) Close() error { return nil }

// DefaultCategories mirrors the taxonomy seeded by the SQLite migrations.
func DefaultCategories() []models.Category {
	return []models.Category{
		{ID: "subscriptions", DisplayName: "Subscriptions", Color: "#8e44ad", Icon: "repeat"},
		{ID: "fitness", DisplayName: "Fitness", Color: "#16a085", Icon: "dumbbell"},
		{ID: "groceries", DisplayName: "Groceries", Color: "#27ae60", Icon: "cart"},
		{ID: "gas", DisplayName: "Gas", Color: "#d35400", Icon: "fuel"},
		{ID: "restaurants", DisplayName: "Restaurants", Color: "#c0392b", Icon: "utensils"},
		{ID: "transport", DisplayName: "Transport", Color: "#2980b9", Icon: "bus"},
		{ID: "travel", DisplayName: "Travel", Color: "#3498db", Icon: "plane"},
		{ID: "utilities", DisplayName: "Utilities", Color: "#f39c12", Icon: "bolt"},
		{ID: "health", DisplayName: "Health", Color: "#e74c3c", Icon: "heart"},
		{ID: "entertainment", DisplayName: "Entertainment", Color: "#9b59b6", Icon: "film"},
		{ID: "shopping", DisplayName: "Shopping", Color: "#e67e22", Icon: "bag"},
		{ID: "income", DisplayName: "Income", Color: "#2ecc71", Icon: "coins"},
		{ID: "other", DisplayName: "Other", Color: "#7f8c8d", Icon: "dots"},
	}
}
