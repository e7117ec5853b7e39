package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Budgets, bill reminders, savings goals and savings challenges. These feed
// the financial health snapshot and have plain per-owner CRUD.

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, category, limit_cents)
		VALUES (?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Category, b.Limit.Cents)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, category, limit_cents
		FROM budgets WHERE owner_id = ? ORDER BY category`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Category, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBudgetsWithSpending pairs each budget with the owner's transaction
// total for the budget's category inside the given month window.
func (r *SQLiteRepository) ListBudgetsWithSpending(ctx context.Context, ownerID string, month core.DateRange) ([]core.BudgetWithSpending, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.owner_id, b.category, b.limit_cents,
		       COALESCE((
		           SELECT SUM(t.amount_cents) FROM transactions t
		           WHERE t.owner_id = b.owner_id AND t.category = b.category
		             AND t.deleted_at IS NULL AND t.occurred_at BETWEEN ? AND ?
		       ), 0)
		FROM budgets b WHERE b.owner_id = ? ORDER BY b.category`,
		toUnix(month.Start), toUnix(month.End), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets with spending: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetWithSpending
	for rows.Next() {
		var b core.BudgetWithSpending
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Category, &b.Limit.Cents, &b.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan budget with spending: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, limit_cents = ?
		WHERE id = ? AND owner_id = ?`,
		b.Category, b.Limit.Cents, b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateBillReminder(ctx context.Context, b core.BillReminder) (core.BillReminder, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bill_reminders (id, owner_id, name, amount_cents, due_date, is_paid)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Name, b.Amount.Cents, toUnix(b.DueDate), b.IsPaid)
	if err != nil {
		return core.BillReminder{}, fmt.Errorf("create bill reminder: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBillReminders(ctx context.Context, ownerID string) ([]core.BillReminder, error) {
	return r.listBills(ctx, `
		SELECT id, owner_id, name, amount_cents, due_date, is_paid
		FROM bill_reminders WHERE owner_id = ? ORDER BY due_date`, ownerID)
}

// ListActiveBillReminders returns the owner's unpaid bills.
func (r *SQLiteRepository) ListActiveBillReminders(ctx context.Context, ownerID string) ([]core.BillReminder, error) {
	return r.listBills(ctx, `
		SELECT id, owner_id, name, amount_cents, due_date, is_paid
		FROM bill_reminders WHERE owner_id = ? AND is_paid = 0 ORDER BY due_date`, ownerID)
}

func (r *SQLiteRepository) listBills(ctx context.Context, query, ownerID string) ([]core.BillReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list bill reminders: %w", err)
	}
	defer rows.Close()

	var out []core.BillReminder
	for rows.Next() {
		var b core.BillReminder
		var due int64
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount.Cents, &due, &b.IsPaid); err != nil {
			return nil, fmt.Errorf("scan bill reminder: %w", err)
		}
		b.DueDate = fromUnix(due)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBillReminder(ctx context.Context, b core.BillReminder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bill_reminders SET name = ?, amount_cents = ?, due_date = ?, is_paid = ?
		WHERE id = ? AND owner_id = ?`,
		b.Name, b.Amount.Cents, toUnix(b.DueDate), b.IsPaid, b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("update bill reminder: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBillReminder(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bill_reminders WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete bill reminder: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, owner_id, name, target_cents, current_cents, is_completed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.Target.Cents, g.Current.Cents, g.IsCompleted)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, target_cents, current_cents, is_completed
		FROM savings_goals WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		var g core.SavingsGoal
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Target.Cents, &g.Current.Cents, &g.IsCompleted); err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateSavingsGoal(ctx context.Context, g core.SavingsGoal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals SET name = ?, target_cents = ?, current_cents = ?, is_completed = ?
		WHERE id = ? AND owner_id = ?`,
		g.Name, g.Target.Cents, g.Current.Cents, g.IsCompleted, g.ID, g.OwnerID)
	if err != nil {
		return fmt.Errorf("update savings goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateSavingsChallenge(ctx context.Context, c core.SavingsChallenge) (core.SavingsChallenge, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_challenges (id, owner_id, name, target_cents, current_cents, progress, is_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Target.Cents, c.Current.Cents, c.Progress, c.IsCompleted)
	if err != nil {
		return core.SavingsChallenge{}, fmt.Errorf("create savings challenge: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListSavingsChallenges(ctx context.Context, ownerID string) ([]core.SavingsChallenge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, target_cents, current_cents, progress, is_completed
		FROM savings_challenges WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list savings challenges: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsChallenge
	for rows.Next() {
		var c core.SavingsChallenge
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Target.Cents, &c.Current.Cents, &c.Progress, &c.IsCompleted); err != nil {
			return nil, fmt.Errorf("scan savings challenge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateSavingsChallenge(ctx context.Context, c core.SavingsChallenge) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_challenges SET name = ?, target_cents = ?, current_cents = ?, progress = ?, is_completed = ?
		WHERE id = ? AND owner_id = ?`,
		c.Name, c.Target.Cents, c.Current.Cents, c.Progress, c.IsCompleted, c.ID, c.OwnerID)
	if err != nil {
		return fmt.Errorf("update savings challenge: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteSavingsChallenge(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_challenges WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete savings challenge: %w", err)
	}
	return requireRow(res)
}
