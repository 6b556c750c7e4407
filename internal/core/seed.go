package core

import "time"

// SeedTransaction describes a starter transaction relative to the starter
// accounts; AccountIndex points into SeedData.Accounts because the real
// account ids are not known until the seed batch is planned.
type SeedTransaction struct {
	Kind         TxKind
	Amount       Money
	DaysAgo      int
	Category     string
	AccountIndex int
}

// SeedData is the fixed starter ledger created on a user's first login.
type SeedData struct {
	Accounts     []Account
	Transactions []SeedTransaction
	Budgets      []Budget
}

// StarterLedger returns the starter set for a theme. Amounts differ per
// theme; the structure is identical.
func StarterLedger(theme Theme) SeedData {
	nauval := theme == ThemeNauval

	pick := func(a, b int64) Money {
		if nauval {
			return NewMoney(a)
		}
		return NewMoney(b)
	}

	return SeedData{
		Accounts: []Account{
			{Name: "BNI", Balance: pick(3_500_000, 2_800_000), Type: AccountBank},
			{Name: "GoPay", Balance: pick(750_000, 1_200_000), Type: AccountEWallet},
			{Name: "Tunai", Balance: pick(250_000, 400_000), Type: AccountCash},
		},
		Transactions: []SeedTransaction{
			{Kind: Income, Amount: pick(2_000_000, 1_500_000), DaysAgo: 2, Category: "Uang Saku", AccountIndex: 0},
			{Kind: Expense, Amount: NewMoney(50_000), DaysAgo: 1, Category: "Makanan", AccountIndex: 1},
		},
		Budgets: []Budget{
			{Category: "Makanan", Amount: NewMoney(800_000)},
			{Category: "Transportasi", Amount: NewMoney(400_000)},
		},
	}
}

// Date resolves a seed transaction's calendar date against now.
func (st SeedTransaction) Resolve(now time.Time) time.Time {
	return now.AddDate(0, 0, -st.DaysAgo)
}
