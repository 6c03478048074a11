package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/sheets"
	"spendwise/internal/storage"
)

// SyncWorker copies ledger transactions from SQLite to the backup sheet.
// It is driven by AMQP messages, with a periodic pending-sync sweep as a
// backstop for lost messages.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	ledger    sheets.LedgerWriter
	eraser    sheets.LedgerEraser
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, ledger sheets.LedgerWriter, eraser sheets.LedgerEraser, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		ledger:    ledger,
		eraser:    eraser,
		batchSize: batchSize,
	}
}

// HandleSyncMessage mirrors a single transaction named by a queue message.
// A transaction that vanished between publish and consume (user deleted it)
// is skipped, not retried.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if tx == nil {
		slog.WarnContext(ctx, "Transaction gone before mirror, skipping", "id", msg.ID)
		return nil
	}
	return w.mirrorTransaction(ctx, msg.ID, tx)
}

// HandleDeleteMessage removes a mirrored transaction from the backup sheet.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	if w.eraser == nil {
		slog.WarnContext(ctx, "No ledger eraser configured, skipping mirror delete", "id", msg.ID)
		return nil
	}
	if err := w.eraser.RemoveTransaction(ctx, msg.ID); err != nil {
		return fmt.Errorf("remove mirrored transaction: %w", err)
	}
	return nil
}

// ProcessPending mirrors transactions that never made it to the sheet.
// This is the backstop for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if tx == nil {
			continue
		}
		if err := w.mirrorTransaction(ctx, p.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", p.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending batch once at worker startup to
// recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup", "count", len(pending))

	synced, failed := 0, 0
	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil || tx == nil {
			if err != nil {
				slog.ErrorContext(ctx, "Failed to get transaction for startup sync", "id", p.ID, "error", err)
				if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
					slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
				}
				failed++
			}
			continue
		}
		if err := w.mirrorTransaction(ctx, p.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during startup", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

func (w *SyncWorker) mirrorTransaction(ctx context.Context, id int64, tx *core.Transaction) error {
	ref, err := w.ledger.AppendTransaction(ctx, *tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to backup ledger: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror write itself worked; don't fail the message.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"id", id, "ledger_ref", ref, "amount_cents", tx.Amount.Cents)
	return nil
}
