package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spendlens/spendlens/pkg/models"

	_ "modernc.org/sqlite"
)

const dayFormat = "2006-01-02"

// SQLite is the durable Store backend. Single-row inserts and lookups are
// each one implicit transaction, which is all the pipeline needs.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) FindDuplicate(ctx context.Context, sourceID, description string, amount float64, date time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM transactions
		WHERE source_id = ? AND description = ? AND amount = ? AND date = ?`,
		sourceID, description, amount, date.UTC().Format(dayFormat),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("duplicate lookup: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) InsertTransaction(ctx context.Context, tx StoredTransaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, source_id, date, description, amount, merchant_name, original_text, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.SourceID, tx.Date.UTC().Format(dayFormat), tx.Description,
		tx.Amount, tx.MerchantName, tx.OriginalText, tx.CategoryID, tx.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return tx.ID, nil
}

func (s *SQLite) ListTransactions(ctx context.Context, sourceID string, limit int) ([]StoredTransaction, error) {
	query := `
		SELECT id, source_id, date, description, amount, merchant_name, original_text, category_id, created_at
		FROM transactions WHERE source_id = ? ORDER BY date DESC, created_at DESC`
	args := []any{sourceID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		var (
			t   StoredTransaction
			day string
		)
		if err := rows.Scan(&t.ID, &t.SourceID, &day, &t.Description, &t.Amount,
			&t.MerchantName, &t.OriginalText, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date, err = time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", day, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLite) Recategorize(ctx context.Context, txID, categoryID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ? WHERE id = ?`, categoryID, txID)
	if err != nil {
		return fmt.Errorf("recategorize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) CreateBatch(ctx context.Context, b BatchSummary) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_batches (id, source_id, filename, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.SourceID, b.Filename, b.Status, b.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("create batch: %w", err)
	}
	return b.ID, nil
}

func (s *SQLite) FinishBatch(ctx context.Context, id, status string, processed, duplicates, total int, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_batches
		SET status = ?, processed = ?, duplicates = ?, total_extracted = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		status, processed, duplicates, total, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) GetBatch(ctx context.Context, id string) (BatchSummary, error) {
	var (
		b        BatchSummary
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, filename, status, processed, duplicates, total_extracted, error, created_at, finished_at
		FROM ingestion_batches WHERE id = ?`, id,
	).Scan(&b.ID, &b.SourceID, &b.Filename, &b.Status, &b.Processed,
		&b.Duplicates, &b.TotalExtracted, &b.Error, &b.CreatedAt, &finished)
	if err == sql.ErrNoRows {
		return BatchSummary{}, ErrNotFound
	}
	if err != nil {
		return BatchSummary{}, fmt.Errorf("get batch: %w", err)
	}
	if finished.Valid {
		b.FinishedAt = finished.Time
	}
	return b, nil
}

func (s *SQLite) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, icon FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
