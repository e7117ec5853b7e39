package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ExportWorker moves transactions from SQLite to the export sheet, driven by
// queue messages with a startup catch-up pass for anything missed while the
// worker was down.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.TransactionAppender
	remover   export.TransactionRemover
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender export.TransactionAppender, remover export.TransactionRemover, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single queue message. Errors propagate so the
// consumer can requeue the delivery.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	switch msg.Action {
	case amqp.ActionSync:
		return w.exportTransaction(ctx, msg.ID)
	case amqp.ActionDelete:
		return w.removeTransaction(ctx, msg.ID)
	default:
		// Unknown actions are dropped, requeueing would loop forever.
		slog.WarnContext(ctx, "Ignoring message with unknown action",
			"id", msg.ID, "action", msg.Action)
		return nil
	}
}

// CatchUp exports transactions that are still pending, up to the batch size.
// Run it once at startup before consuming the queue.
func (w *ExportWorker) CatchUp(ctx context.Context) (int, error) {
	ids, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending export: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}
	slog.InfoContext(ctx, "Catching up pending exports", "count", len(ids))

	exported := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.exportTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Catch-up export failed", "id", id, "error", err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Catch-up complete", "exported", exported, "pending", len(ids))
	return exported, nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id string) error {
	tx, err := w.storage.LookupTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the export ran; nothing to do.
		slog.WarnContext(ctx, "Transaction gone before export", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup transaction: %w", err)
	}

	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The row landed in the sheet; only the bookkeeping is stale.
		slog.WarnContext(ctx, "Failed to mark transaction exported", "id", id, "error", err)
	}

	fields := log.NewFields().
		WithComponent(log.ComponentExport).
		WithOperation(log.OpExport).
		WithTransaction(id, tx.Category, tx.Amount.Cents)
	fields[log.FieldExportRef] = ref
	slog.InfoContext(ctx, "Exported transaction", fields.ToSlice()...)
	return nil
}

func (w *ExportWorker) removeTransaction(ctx context.Context, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping sheet removal", "id", id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove from sheet: %w", err)
	}
	slog.InfoContext(ctx, "Removed exported transaction", "id", id)
	return nil
}
