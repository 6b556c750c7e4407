// Package worker turns committed-ledger events into backup rows on the
// configured export destination.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ayoberhemat/internal/amqp"
	"ayoberhemat/internal/core"
	"ayoberhemat/internal/export"
	"ayoberhemat/internal/store"
)

// ExportWorker handles ledger events by loading the referenced
// transactions from the store and appending them to the writer.
type ExportWorker struct {
	store  store.Store
	writer export.TransactionWriter
}

func NewExportWorker(st store.Store, writer export.TransactionWriter) *ExportWorker {
	return &ExportWorker{store: st, writer: writer}
}

// HandleLedgerEvent processes one event. Events without transaction ids
// (account and budget operations) need no backup row. Ids that no longer
// resolve were deleted after the event was published and are skipped.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if len(msg.TxIDs) == 0 {
		return nil
	}

	snap, err := w.store.Load(ctx, msg.User)
	if err != nil {
		return fmt.Errorf("load ledger for %s: %w", msg.User, err)
	}

	byID := make(map[string]core.Transaction, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		byID[tx.ID] = tx
	}

	txs := make([]core.Transaction, 0, len(msg.TxIDs))
	for _, id := range msg.TxIDs {
		tx, ok := byID[id]
		if !ok {
			slog.WarnContext(ctx, "transaction gone before export, skipping",
				"user", msg.User, "tx", id)
			continue
		}
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return nil
	}

	if err := w.writer.AppendTransactions(ctx, msg.User, txs); err != nil {
		return fmt.Errorf("append backup rows: %w", err)
	}

	slog.InfoContext(ctx, "exported transactions",
		"user", msg.User,
		"operation", msg.Operation,
		"count", len(txs))

	return nil
}
