package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Uncategorized is assigned when no rule matches and the caller gave no
// category.
const Uncategorized = "Uncategorized"

// TransactionService orchestrates transaction writes across SQLite, rule
// based categorization and the export queue.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	matcher    *RuleMatcher
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, matcher *RuleMatcher) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		matcher:    matcher,
	}
}

// CreateTransaction categorizes, validates and persists a transaction, then
// publishes an export message. The publish is best effort: a queue outage
// never fails the write.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Category == "" {
		tx.Category = s.categorize(ctx, tx.OwnerID, tx.Description)
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, saved.ID)
	return saved, nil
}

// UpdateTransaction validates and persists changes to an existing
// transaction.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateTransaction(ctx, tx); err != nil {
		return err
	}
	s.publishSync(ctx, tx.ID)
	return nil
}

// DeleteTransaction removes a transaction and publishes a delete message.
func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	if err := s.amqpClient.PublishTransactionDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

func (s *TransactionService) categorize(ctx context.Context, ownerID, description string) string {
	if s.matcher == nil {
		return Uncategorized
	}
	category, ok, err := s.matcher.Match(ctx, ownerID, description)
	if err != nil {
		slog.ErrorContext(ctx, "Rule matching failed, falling back to default category",
			"owner_id", ownerID, "error", err)
		return Uncategorized
	}
	if !ok {
		return Uncategorized
	}
	return category
}

func (s *TransactionService) publishSync(ctx context.Context, id string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

// Close releases storage and queue connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.matcher != nil {
		s.matcher.Close()
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
