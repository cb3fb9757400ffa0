// Package store persists ingested transactions and batch summaries. The
// ingestion pipeline depends only on the Store interface and stays
// agnostic of the backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/spendlens/spendlens/pkg/models"
)

// Batch statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var ErrNotFound = errors.New("not found")

// StoredTransaction is a parsed transaction plus persistence identity.
// Ingestion creates these once and never mutates them; only Recategorize
// may later change the category.
type StoredTransaction struct {
	ID        string
	SourceID  string
	CreatedAt time.Time
	models.Transaction
}

// BatchSummary is the per-upload ingestion record.
type BatchSummary struct {
	ID             string
	SourceID       string
	Filename       string
	Status         string
	Processed      int
	Duplicates     int
	TotalExtracted int
	Error          string
	CreatedAt      time.Time
	FinishedAt     time.Time
}

// Store is the persistence collaborator of the ingestion pipeline.
// FindDuplicate and InsertTransaction are each individually atomic; the
// pipeline deliberately calls them row by row so that the duplicate check
// observes rows inserted earlier in the same batch.
type Store interface {
	// FindDuplicate reports whether a transaction with the same
	// description, amount and day-granularity date already exists for
	// the source.
	FindDuplicate(ctx context.Context, sourceID, description string, amount float64, date time.Time) (bool, error)

	InsertTransaction(ctx context.Context, tx StoredTransaction) (string, error)

	// ListTransactions returns stored transactions for a source, newest
	// first, up to limit (0 means no limit).
	ListTransactions(ctx context.Context, sourceID string, limit int) ([]StoredTransaction, error)

	// Recategorize changes the category of a stored transaction. This is
	// the only mutation allowed after insert.
	Recategorize(ctx context.Context, txID, categoryID string) error

	CreateBatch(ctx context.Context, b BatchSummary) (string, error)
	FinishBatch(ctx context.Context, id, status string, processed, duplicates, total int, errMsg string) error
	GetBatch(ctx context.Context, id string) (BatchSummary, error)

	// ListCategories returns the seeded taxonomy. Read-only to ingestion.
	ListCategories(ctx context.Context) ([]models.Category, error)

	Close() error
}
