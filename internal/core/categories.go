package core

// Categories offered by the transaction form. The ledger itself does not
// restrict transactions to these; budgets may target any category string.
var (
	ExpenseCategories = []string{
		"Makanan",
		"Transportasi",
		"Biaya Kuliah",
		"Hiburan",
		"Belanja",
		CategoryTransferOut,
		"Lainnya",
	}

	IncomeCategories = []string{
		"Uang Saku",
		"Gaji",
		"Hadiah",
		CategoryTransferIn,
		"Lainnya",
	}
)

// Reserved categories for the two legs of a transfer. A transfer's
// outgoing leg is a regular expense, so a budget named Transfer Keluar
// accumulates transfer spending like any other budget.
const (
	CategoryTransferOut = "Transfer Keluar"
	CategoryTransferIn  = "Transfer Masuk"
)
