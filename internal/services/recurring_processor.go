package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringProcessor materializes ledger entries from recurring transaction
// templates.
type RecurringProcessor struct {
	storage   *storage.SQLiteRepository
	txService *TransactionService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, txService *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:   storage,
		txService: txService,
	}
}

// ProcessDue walks every active recurring transaction and creates a ledger
// entry for each one that is due. It returns the number created. A failure
// on one template never blocks the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.txService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListAllActiveRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rt := range templates {
		checker, err := GetDuenessChecker(rt.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring transaction",
				"id", rt.ID, "error", err)
			continue
		}
		if !checker.IsDue(rt.LastExecutedAt, now, rt.StartDate) {
			continue
		}

		_, err = p.txService.CreateTransaction(ctx, core.Transaction{
			OwnerID:     rt.OwnerID,
			Amount:      rt.Amount,
			Category:    rt.Category,
			Description: rt.Description,
			OccurredAt:  now,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"recurring_id", rt.ID,
				"description", rt.Description,
				"error", err)
			continue
		}

		if err := p.storage.MarkRecurringExecuted(ctx, rt.ID, now); err != nil {
			// The entry was created; a stale execution date only risks a
			// duplicate on the next run.
			slog.ErrorContext(ctx, "Failed to update last execution date",
				"recurring_id", rt.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", rt.ID,
			"description", rt.Description,
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Every)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
