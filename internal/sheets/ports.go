package sheets

import (
	"context"

	"spendwise/internal/core"
)

// Ports for the backup ledger the mirror worker writes to.
type (
	// LedgerWriter appends one transaction to the backup ledger and
	// returns an adapter-specific row reference.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// LedgerEraser removes a previously mirrored transaction by its
	// ledger id. Removing an id that was never mirrored is a no-op.
	LedgerEraser interface {
		RemoveTransaction(ctx context.Context, id int64) error
	}
)
