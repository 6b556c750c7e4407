// Package memory is the in-memory TransactionWriter used by tests.
package memory

import (
	"context"
	"sync"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/export"
)

type Writer struct {
	mu   sync.Mutex
	rows [][]any
}

var _ export.TransactionWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) AppendTransactions(_ context.Context, user string, txs []core.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, export.Rows(user, txs)...)
	return nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]any, len(w.rows))
	copy(out, w.rows)
	return out
}
