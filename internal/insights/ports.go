package insights

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the data the aggregation engine consumes. The storage layer
// implements these; tests use fixture implementations.
type (
	// TransactionReader lists one owner's transactions inside an inclusive
	// date range, ordered by occurrence ascending.
	TransactionReader interface {
		ListTransactionsInRange(ctx context.Context, ownerID string, r core.DateRange) ([]core.Transaction, error)
	}

	// SnapshotReader provides the budget/goal/bill snapshots the health
	// scorer consumes.
	SnapshotReader interface {
		ListBudgetsWithSpending(ctx context.Context, ownerID string, month core.DateRange) ([]core.BudgetWithSpending, error)
		ListSavingsGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, error)
		ListActiveBillReminders(ctx context.Context, ownerID string) ([]core.BillReminder, error)
	}
)
