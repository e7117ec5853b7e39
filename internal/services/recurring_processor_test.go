package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestProcessDueCreatesTransactions(t *testing.T) {
	svc, repo := newTestService(t)
	processor := NewRecurringProcessor(repo, svc)
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		OwnerID:     "u1",
		Description: "rent",
		Amount:      core.Money{Cents: 90000},
		Category:    "Housing",
		Every:       core.Monthly,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	processed, err := processor.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed, got %d", processed)
	}

	day := core.DateRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	txs, err := repo.ListTransactionsInRange(ctx, "u1", day)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Description != "rent" || txs[0].Amount.Cents != 90000 {
		t.Fatalf("unexpected materialized transactions: %+v", txs)
	}

	// A second run on the same day must not duplicate.
	processed, err = processor.ProcessDue(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second process due: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected idempotent second run, processed %d", processed)
	}
}

func TestProcessDueSkipsExpired(t *testing.T) {
	svc, repo := newTestService(t)
	processor := NewRecurringProcessor(repo, svc)
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		OwnerID:     "u1",
		Description: "old gym membership",
		Amount:      core.Money{Cents: 3000},
		Category:    "Health",
		Every:       core.Monthly,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	processed, err := processor.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expired template must not fire, processed %d", processed)
	}
}
