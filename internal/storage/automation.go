package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Recurring transactions, category rules and custom categories.

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions
			(id, owner_id, description, amount_cents, category, repeat_every, start_date, end_date, last_executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.OwnerID, rt.Description, rt.Amount.Cents, rt.Category, string(rt.Every),
		toUnix(rt.StartDate), toNullUnix(rt.EndDate), toNullUnix(rt.LastExecutedAt))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, ownerID string) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, description, amount_cents, category, repeat_every, start_date, end_date, last_executed_at
		FROM recurring_transactions WHERE owner_id = ? ORDER BY description`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListAllActiveRecurring returns every owner's recurring transactions that
// have started and have not reached their end date. The processing worker
// walks this list on each tick.
func (r *SQLiteRepository) ListAllActiveRecurring(ctx context.Context, now time.Time) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, description, amount_cents, category, repeat_every, start_date, end_date, last_executed_at
		FROM recurring_transactions
		WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY owner_id, description`, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var out []core.RecurringTransaction
	for rows.Next() {
		var rt core.RecurringTransaction
		var every string
		var start int64
		var end, last sql.NullInt64
		if err := rows.Scan(&rt.ID, &rt.OwnerID, &rt.Description, &rt.Amount.Cents, &rt.Category,
			&every, &start, &end, &last); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		rt.Every = core.RepetitionType(every)
		rt.StartDate = fromUnix(start)
		rt.EndDate = fromNullUnix(end)
		rt.LastExecutedAt = fromNullUnix(last)
		out = append(out, rt)
	}
	return out, rows.Err()
}

// MarkRecurringExecuted records the instant a recurring transaction last
// produced a ledger entry.
func (r *SQLiteRepository) MarkRecurringExecuted(ctx context.Context, id string, executedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions SET last_executed_at = ? WHERE id = ?`,
		executedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark recurring executed: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateCategoryRule(ctx context.Context, rule core.CategoryRule) (core.CategoryRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_rules (id, owner_id, pattern, category, priority)
		VALUES (?, ?, ?, ?, ?)`,
		rule.ID, rule.OwnerID, rule.Pattern, rule.Category, rule.Priority)
	if err != nil {
		return core.CategoryRule{}, fmt.Errorf("create category rule: %w", err)
	}
	return rule, nil
}

// ListCategoryRules returns the owner's rules, highest priority first, so a
// matcher can take the first hit.
func (r *SQLiteRepository) ListCategoryRules(ctx context.Context, ownerID string) ([]core.CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, pattern, category, priority
		FROM category_rules WHERE owner_id = ? ORDER BY priority DESC, pattern`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list category rules: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryRule
	for rows.Next() {
		var rule core.CategoryRule
		if err := rows.Scan(&rule.ID, &rule.OwnerID, &rule.Pattern, &rule.Category, &rule.Priority); err != nil {
			return nil, fmt.Errorf("scan category rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategoryRule(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_rules WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete category rule: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateCustomCategory(ctx context.Context, c core.CustomCategory) (core.CustomCategory, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO custom_categories (id, owner_id, name, color)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Color)
	if err != nil {
		return core.CustomCategory{}, fmt.Errorf("create custom category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCustomCategories(ctx context.Context, ownerID string) ([]core.CustomCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, color
		FROM custom_categories WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list custom categories: %w", err)
	}
	defer rows.Close()

	var out []core.CustomCategory
	for rows.Next() {
		var c core.CustomCategory
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan custom category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCustomCategory(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete custom category: %w", err)
	}
	return requireRow(res)
}
