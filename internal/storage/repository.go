package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row for the owner.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping verifies the database connection, used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Timestamps are stored as unix seconds. Nullable columns map to the zero
// time on the Go side.

func toUnix(t time.Time) int64 {
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

func toNullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return fromUnix(v.Int64)
}

// CreateTransaction persists a new ledger entry, assigning an ID when the
// caller did not.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, amount_cents, category, description, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.Amount.Cents, tx.Category, tx.Description, toUnix(tx.OccurredAt), time.Now().Unix())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, amount_cents, category, description, occurred_at
		FROM transactions
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`, id, ownerID)
	return scanTransaction(row)
}

// ListTransactionsInRange returns the owner's undeleted transactions whose
// occurrence date falls inside the range, both ends inclusive.
func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, ownerID string, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, amount_cents, category, description, occurred_at
		FROM transactions
		WHERE owner_id = ? AND deleted_at IS NULL AND occurred_at BETWEEN ? AND ?
		ORDER BY occurred_at`, ownerID, toUnix(dr.Start), toUnix(dr.End))
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, category = ?, description = ?, occurred_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`,
		tx.Amount.Cents, tx.Category, tx.Description, toUnix(tx.OccurredAt), tx.ID, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

// DeleteTransaction soft-deletes so an export catch-up can still observe the
// row before it is purged.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`,
		time.Now().Unix(), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// GetTransactionStats aggregates the owner's whole undeleted ledger: the
// overall total, per-category totals (largest first), and per-month totals
// in ascending month order.
func (r *SQLiteRepository) GetTransactionStats(ctx context.Context, ownerID string) (core.TransactionStats, error) {
	var stats core.TransactionStats

	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE owner_id = ? AND deleted_at IS NULL`, ownerID).Scan(&stats.Total.Cents)
	if err != nil {
		return core.TransactionStats{}, fmt.Errorf("sum transactions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM transactions
		WHERE owner_id = ? AND deleted_at IS NULL
		GROUP BY category
		ORDER BY SUM(amount_cents) DESC, category`, ownerID)
	if err != nil {
		return core.TransactionStats{}, fmt.Errorf("sum transactions by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents); err != nil {
			return core.TransactionStats{}, fmt.Errorf("scan category total: %w", err)
		}
		stats.ByCategory = append(stats.ByCategory, ct)
	}
	if err := rows.Err(); err != nil {
		return core.TransactionStats{}, err
	}

	monthRows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', occurred_at, 'unixepoch') AS month, SUM(amount_cents)
		FROM transactions
		WHERE owner_id = ? AND deleted_at IS NULL
		GROUP BY month
		ORDER BY month`, ownerID)
	if err != nil {
		return core.TransactionStats{}, fmt.Errorf("sum transactions by month: %w", err)
	}
	defer monthRows.Close()

	for monthRows.Next() {
		var mt core.MonthlyTotal
		if err := monthRows.Scan(&mt.Month, &mt.Total.Cents); err != nil {
			return core.TransactionStats{}, fmt.Errorf("scan monthly total: %w", err)
		}
		stats.Monthly = append(stats.Monthly, mt)
	}
	return stats, monthRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var occurredAt int64
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Amount.Cents, &tx.Category, &tx.Description, &occurredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.OccurredAt = fromUnix(occurredAt)
	return tx, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
