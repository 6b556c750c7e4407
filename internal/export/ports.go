// Package export defines the backup destination for committed
// transactions and the row format written to it.
package export

import (
	"context"

	"ayoberhemat/internal/core"
)

// TransactionWriter appends transaction rows to an external backup.
type TransactionWriter interface {
	AppendTransactions(ctx context.Context, user string, txs []core.Transaction) error
}

// Header is the column layout of exported rows.
var Header = []string{"Tanggal", "Pengguna", "Jenis", "Kategori", "Jumlah", "Akun", "Catatan"}

// Rows converts transactions to spreadsheet rows in Header order.
func Rows(user string, txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.Date.Format("2006-01-02"),
			user,
			string(tx.Kind),
			tx.Category,
			tx.Amount.String(),
			tx.AccountID,
			tx.Notes,
		})
	}
	return rows
}
