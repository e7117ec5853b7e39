package export

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound export adapters.
type (
	// TransactionAppender appends a transaction row to the export target.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a previously exported transaction row.
	TransactionRemover interface {
		Remove(ctx context.Context, id string) error
	}
)
