// Package ingest coordinates the statement pipeline for one uploaded
// file: detect format, extract rows, build transactions, categorize,
// filter duplicates, persist, and record a batch summary.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/categorize"
	"github.com/spendlens/spendlens/pkg/models"
	"github.com/spendlens/spendlens/pkg/parser"
	"github.com/spendlens/spendlens/pkg/store"
)

// File-level failures. Per-row failures never surface as errors; they are
// collected as warnings and the batch continues.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyExtraction     = errors.New("no transactions extracted")
)

// PreviewSize is how many transactions the result carries back to the
// caller for display.
const PreviewSize = 5

// Result summarizes one ingestion batch.
type Result struct {
	BatchID        string               `json:"batch_id"`
	Processed      int                  `json:"processed_count"`
	Duplicates     int                  `json:"duplicate_count"`
	TotalExtracted int                  `json:"total_extracted"`
	Preview        []models.Transaction `json:"preview"`
	Status         string               `json:"status"`
	Warnings       []string             `json:"warnings,omitempty"`
}

// Ingestor runs the pipeline. One Ingest call is one sequential batch;
// rows are deliberately processed one at a time so the duplicate check
// observes rows inserted earlier in the same file.
type Ingestor struct {
	parser      *parser.Parser
	categorizer *categorize.Categorizer
	refiner     *categorize.Refiner // nil disables AI refinement
	store       store.Store
	logger      *log.Logger
}

func New(p *parser.Parser, c *categorize.Categorizer, r *categorize.Refiner, s store.Store, logger *log.Logger) *Ingestor {
	return &Ingestor{
		parser:      p,
		categorizer: c,
		refiner:     r,
		store:       s,
		logger:      logger,
	}
}

// IngestFile ingests a temporary uploaded file and removes it afterwards,
// on success and failure alike.
func (in *Ingestor) IngestFile(ctx context.Context, path, filename, sourceID string) (Result, error) {
	defer func() {
		if err := os.Remove(path); err != nil {
			in.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Status: store.StatusFailed}, fmt.Errorf("read uploaded file: %w", err)
	}
	return in.Ingest(ctx, data, filename, sourceID)
}

// Ingest runs the full pipeline over one file's bytes. The returned
// error is non-nil only for file-level failures: unreadable input,
// unsupported type, or zero valid transactions after full processing.
func (in *Ingestor) Ingest(ctx context.Context, data []byte, filename, sourceID string) (Result, error) {
	batchID, err := in.store.CreateBatch(ctx, store.BatchSummary{
		SourceID: sourceID,
		Filename: filename,
		Status:   store.StatusProcessing,
	})
	if err != nil {
		return Result{Status: store.StatusFailed}, fmt.Errorf("create batch record: %w", err)
	}
	result := Result{BatchID: batchID}

	if len(data) == 0 {
		return in.fail(ctx, result, fmt.Errorf("%w: empty file", ErrUnsupportedFileType))
	}
	if parser.DetectFormat(data, filename) == parser.FormatUnknown {
		return in.fail(ctx, result, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename))
	}

	txns, warnings, err := in.parser.ProcessBytes(data, filename)
	if err != nil {
		return in.fail(ctx, result, fmt.Errorf("extraction failed: %w", err))
	}
	result.Warnings = warnings
	result.TotalExtracted = len(txns)
	if len(txns) == 0 {
		return in.fail(ctx, result, ErrEmptyExtraction)
	}

	in.categorizeAll(ctx, txns)

	for _, txn := range txns {
		if !txn.Valid() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("invalid transaction skipped: %q", txn.Description))
			continue
		}
		dup, err := in.store.FindDuplicate(ctx, sourceID, txn.Description, txn.Amount, txn.Day())
		if err != nil {
			in.logger.Warn("duplicate check failed, row skipped", "desc", txn.Description, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("duplicate check failed: %v", err))
			continue
		}
		if dup {
			result.Duplicates++
			continue
		}

		if _, err := in.store.InsertTransaction(ctx, store.StoredTransaction{
			SourceID:    sourceID,
			Transaction: *txn,
		}); err != nil {
			in.logger.Warn("insert failed, row skipped", "desc", txn.Description, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("insert failed: %v", err))
			continue
		}
		result.Processed++

		if len(result.Preview) < PreviewSize {
			result.Preview = append(result.Preview, *txn)
		}
	}

	result.Status = store.StatusCompleted
	if err := in.store.FinishBatch(ctx, batchID, store.StatusCompleted,
		result.Processed, result.Duplicates, result.TotalExtracted, ""); err != nil {
		in.logger.Error("failed to finalize batch record", "batch", batchID, "error", err)
	}

	in.logger.Info("ingestion complete",
		"batch", batchID, "source", sourceID, "file", filename,
		"processed", result.Processed, "duplicates", result.Duplicates,
		"total", result.TotalExtracted)
	return result, nil
}

// categorizeAll assigns categories by rule, then lets the optional AI
// refiner take a second look at everything that fell through to the
// fallback category. Refinement failures are logged and ignored.
func (in *Ingestor) categorizeAll(ctx context.Context, txns []*models.Transaction) {
	var (
		uncertain    []models.Transaction
		uncertainIdx []int
	)
	for i, txn := range txns {
		m := in.categorizer.Categorize(*txn)
		txn.CategoryID = m.CategoryID
		if m.CategoryID == models.CategoryOther {
			uncertain = append(uncertain, *txn)
			uncertainIdx = append(uncertainIdx, i)
		}
	}

	if in.refiner == nil || len(uncertain) == 0 {
		return
	}
	categories, err := in.store.ListCategories(ctx)
	if err != nil {
		in.logger.Warn("skipping AI refinement, category list unavailable", "error", err)
		return
	}
	suggestions, err := in.refiner.Refine(ctx, uncertain, categories)
	if err != nil {
		in.logger.Warn("AI refinement failed, keeping rule assignments", "error", err)
		return
	}
	for idx, categoryID := range suggestions {
		txns[uncertainIdx[idx]].CategoryID = categoryID
	}
	in.logger.Info("AI refinement applied", "refined", len(suggestions), "candidates", len(uncertain))
}

// fail records the batch as failed and returns the file-level error.
// Rows durably inserted before the failure stay inserted; per-row insert
// is atomic per row, not transactional across the file.
func (in *Ingestor) fail(ctx context.Context, result Result, cause error) (Result, error) {
	result.Status = store.StatusFailed
	if err := in.store.FinishBatch(ctx, result.BatchID, store.StatusFailed,
		result.Processed, result.Duplicates, result.TotalExtracted, cause.Error()); err != nil {
		in.logger.Error("failed to record batch failure", "batch", result.BatchID, "error", err)
	}
	in.logger.Warn("ingestion failed", "batch", result.BatchID, "error", cause)
	return result, cause
}
