package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export/memory"
	"fintrack/internal/storage"
)

type failingAppender struct{}

func (failingAppender) Append(context.Context, core.Transaction) (string, error) {
	return "", errors.New("sheet unavailable")
}

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	store := memory.New()
	return NewExportWorker(repo, store, store, 10), repo, store
}

func seedTx(t *testing.T, repo *storage.SQLiteRepository, desc string) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		OwnerID:     "u1",
		Amount:      core.Money{Cents: 1200},
		Category:    "Food",
		Description: desc,
		OccurredAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func TestHandleSyncMessage(t *testing.T) {
	worker, repo, store := newTestWorker(t)
	ctx := context.Background()

	tx := seedTx(t, repo, "lunch")
	msg := amqp.NewTransactionSyncMessage(tx.ID, amqp.ActionSync)
	if err := worker.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	items := store.Items()
	if len(items) != 1 || items[0].ID != tx.ID {
		t.Fatalf("expected exported transaction, got %+v", items)
	}

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after export, got %v", pending)
	}
}

func TestHandleSyncMessageMissingTransaction(t *testing.T) {
	worker, _, store := newTestWorker(t)

	msg := amqp.NewTransactionSyncMessage("gone", amqp.ActionSync)
	if err := worker.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("missing transaction must not requeue, got %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatal("nothing should have been exported")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	worker, repo, store := newTestWorker(t)
	ctx := context.Background()

	tx := seedTx(t, repo, "lunch")
	if err := worker.HandleMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID, amqp.ActionSync)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := worker.HandleMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID, amqp.ActionDelete)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty store after delete, got %+v", store.Items())
	}
}

func TestHandleUnknownAction(t *testing.T) {
	worker, _, _ := newTestWorker(t)
	msg := amqp.NewTransactionSyncMessage("x", "compact")
	if err := worker.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown action must be dropped without error, got %v", err)
	}
}

func TestAppendFailureMarksErrorAndRequeues(t *testing.T) {
	worker, repo, _ := newTestWorker(t)
	worker.appender = failingAppender{}
	ctx := context.Background()

	tx := seedTx(t, repo, "lunch")
	err := worker.HandleMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID, amqp.ActionSync))
	if err == nil {
		t.Fatal("expected append failure to propagate for requeue")
	}

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("errored row must leave the pending set, got %v", pending)
	}
}

func TestCatchUp(t *testing.T) {
	worker, repo, store := newTestWorker(t)
	ctx := context.Background()

	seedTx(t, repo, "one")
	seedTx(t, repo, "two")

	exported, err := worker.CatchUp(ctx)
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if exported != 2 || len(store.Items()) != 2 {
		t.Fatalf("expected 2 exported, got %d (%d in store)", exported, len(store.Items()))
	}

	// Second pass finds nothing.
	exported, err = worker.CatchUp(ctx)
	if err != nil {
		t.Fatalf("second catch up: %v", err)
	}
	if exported != 0 {
		t.Fatalf("expected idempotent catch up, exported %d", exported)
	}
}
