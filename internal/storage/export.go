package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// Export bookkeeping for the sheet sync worker. Every transaction starts as
// pending; the worker flips it to exported or error after the append.

const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportErrored = "error"
)

// LookupTransaction fetches a transaction by ID regardless of owner. The
// export worker has only the ID from the queue message.
func (r *SQLiteRepository) LookupTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, amount_cents, category, description, occurred_at
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL`, id)
	return scanTransaction(row)
}

// ListPendingExport returns up to limit transaction IDs still waiting to be
// appended to the sheet, oldest first. Used for startup catch-up.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE export_status = ? AND deleted_at IS NULL
		ORDER BY created_at LIMIT ?`, ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending export id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET export_status = ?, exported_at = ? WHERE id = ?`,
		ExportDone, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET export_status = ? WHERE id = ?`,
		ExportErrored, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}
