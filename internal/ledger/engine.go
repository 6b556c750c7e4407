package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"
)

// Input shapes of the public mutation surface. Create and edit are
// distinct types, so there is never ambiguity about which fields are
// authoritative.
type (
	TransactionInput struct {
		Kind      core.TxKind
		Amount    core.Money
		Date      time.Time
		Category  string
		AccountID string
		Notes     string
	}

	AccountInput struct {
		Name           string
		Type           core.AccountType
		InitialBalance core.Money
	}

	// AccountEdit never touches the balance; only the engine moves money.
	AccountEdit struct {
		Name string
		Type core.AccountType
	}

	BudgetInput struct {
		Category string
		Amount   core.Money
	}

	TransferInput struct {
		FromID string
		ToID   string
		Amount core.Money
		Date   time.Time
	}
)

// RecordTransaction plans one ledger movement: the transaction itself,
// the referenced account's balance adjustment, and for expenses the
// re-derived spent of every budget on the category.
func (l *Ledger) RecordTransaction(in TransactionInput) (store.Batch, error) {
	tx := core.Transaction{
		ID:        uuid.NewString(),
		Kind:      in.Kind,
		Amount:    in.Amount,
		Date:      in.Date,
		Category:  strings.TrimSpace(in.Category),
		AccountID: in.AccountID,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if tx.AccountID == "" {
		return nil, fmt.Errorf("%w: %v", ErrValidation, core.ErrEmptyAccountRef)
	}
	acc, ok := l.accounts[tx.AccountID]
	if !ok {
		return nil, fmt.Errorf("%w: akun %s", ErrNotFound, tx.AccountID)
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	acc.Balance = acc.Balance.Add(tx.Signed())
	batch := store.Batch{
		store.CreateTransaction(tx),
		store.UpdateAccount(acc),
	}
	if tx.Kind == core.Expense {
		spent := l.sumExpenses(tx.Category, "").Add(tx.Amount)
		for _, b := range l.budgetsFor(tx.Category) {
			b.Spent = spent
			batch = append(batch, store.UpdateBudget(b))
		}
	}
	return batch, nil
}

// DeleteTransaction reverses a recorded transaction exactly: the balance
// adjustment is undone and affected budgets are re-derived without it.
func (l *Ledger) DeleteTransaction(id string) (store.Batch, error) {
	tx, ok := l.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaksi %s", ErrNotFound, id)
	}
	acc, ok := l.accounts[tx.AccountID]
	if !ok {
		// The account-deletion guard makes this unreachable for a
		// consistent ledger.
		return nil, fmt.Errorf("%w: akun %s", ErrNotFound, tx.AccountID)
	}

	acc.Balance = acc.Balance.Sub(tx.Signed())
	batch := store.Batch{
		store.DeleteTransaction(id),
		store.UpdateAccount(acc),
	}
	if tx.Kind == core.Expense {
		spent := l.sumExpenses(tx.Category, id)
		for _, b := range l.budgetsFor(tx.Category) {
			b.Spent = spent
			batch = append(batch, store.UpdateBudget(b))
		}
	}
	return batch, nil
}

// CreateAccount opens an account with the given opening balance.
func (l *Ledger) CreateAccount(in AccountInput) (store.Batch, error) {
	acc := core.Account{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Balance: in.InitialBalance,
		Type:    in.Type,
	}
	if err := acc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return store.Batch{store.CreateAccount(acc)}, nil
}

// EditAccount renames or retypes an account. The balance stays whatever
// the transaction history made it.
func (l *Ledger) EditAccount(id string, in AccountEdit) (store.Batch, error) {
	acc, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: akun %s", ErrNotFound, id)
	}
	acc.Name = strings.TrimSpace(in.Name)
	acc.Type = in.Type
	if err := acc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return store.Batch{store.UpdateAccount(acc)}, nil
}

// DeleteAccount removes an account that no transaction references.
func (l *Ledger) DeleteAccount(id string) (store.Batch, error) {
	if _, ok := l.accounts[id]; !ok {
		return nil, fmt.Errorf("%w: akun %s", ErrNotFound, id)
	}
	for _, tx := range l.transactions {
		if tx.AccountID == id {
			return nil, fmt.Errorf("%w: akun memiliki transaksi terkait", ErrConstraint)
		}
	}
	return store.Batch{store.DeleteAccount(id)}, nil
}

// CreateBudget starts a budget with spent derived from the existing
// expense history of its category.
func (l *Ledger) CreateBudget(in BudgetInput) (store.Batch, error) {
	b := core.Budget{
		ID:       uuid.NewString(),
		Category: strings.TrimSpace(in.Category),
		Amount:   in.Amount,
	}
	if b.Category == "" {
		return nil, fmt.Errorf("%w: %v", ErrValidation, core.ErrEmptyCategory)
	}
	if err := b.Amount.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	b.Spent = l.sumExpenses(b.Category, "")
	return store.Batch{store.CreateBudget(b)}, nil
}

// EditBudget replaces a budget's category and cap. Changing the category
// discards the old spent total and re-derives it for the new one.
func (l *Ledger) EditBudget(id string, in BudgetInput) (store.Batch, error) {
	b, ok := l.budgets[id]
	if !ok {
		return nil, fmt.Errorf("%w: anggaran %s", ErrNotFound, id)
	}
	b.Category = strings.TrimSpace(in.Category)
	b.Amount = in.Amount
	if b.Category == "" {
		return nil, fmt.Errorf("%w: %v", ErrValidation, core.ErrEmptyCategory)
	}
	if err := b.Amount.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	b.Spent = l.sumExpenses(b.Category, "")
	return store.Batch{store.UpdateBudget(b)}, nil
}

// DeleteBudget removes a budget unconditionally.
func (l *Ledger) DeleteBudget(id string) (store.Batch, error) {
	if _, ok := l.budgets[id]; !ok {
		return nil, fmt.Errorf("%w: anggaran %s", ErrNotFound, id)
	}
	return store.Batch{store.DeleteBudget(id)}, nil
}

// Transfer moves value between two accounts: an expense leg on the
// source, an income leg on the destination, both balance updates, and the
// Transfer Keluar budget when one exists. The batch commits all of it or
// none of it.
func (l *Ledger) Transfer(in TransferInput) (store.Batch, error) {
	if in.FromID == "" || in.ToID == "" {
		return nil, fmt.Errorf("%w: %v", ErrValidation, core.ErrEmptyAccountRef)
	}
	if in.FromID == in.ToID {
		return nil, fmt.Errorf("%w: akun sumber dan tujuan tidak boleh sama", ErrValidation)
	}
	if err := in.Amount.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: %v", ErrValidation, core.ErrZeroDate)
	}
	from, ok := l.accounts[in.FromID]
	if !ok {
		return nil, fmt.Errorf("%w: akun %s", ErrNotFound, in.FromID)
	}
	to, ok := l.accounts[in.ToID]
	if !ok {
		return nil, fmt.Errorf("%w: akun %s", ErrNotFound, in.ToID)
	}
	if from.Balance.Cmp(in.Amount) < 0 {
		return nil, fmt.Errorf("%w: saldo akun sumber tidak mencukupi", ErrConstraint)
	}

	out := core.Transaction{
		ID:        uuid.NewString(),
		Kind:      core.Expense,
		Amount:    in.Amount,
		Date:      in.Date,
		Category:  core.CategoryTransferOut,
		AccountID: in.FromID,
	}
	inc := core.Transaction{
		ID:        uuid.NewString(),
		Kind:      core.Income,
		Amount:    in.Amount,
		Date:      in.Date,
		Category:  core.CategoryTransferIn,
		AccountID: in.ToID,
	}
	from.Balance = from.Balance.Sub(in.Amount)
	to.Balance = to.Balance.Add(in.Amount)

	batch := store.Batch{
		store.CreateTransaction(out),
		store.CreateTransaction(inc),
		store.UpdateAccount(from),
		store.UpdateAccount(to),
	}
	spent := l.sumExpenses(core.CategoryTransferOut, "").Add(in.Amount)
	for _, b := range l.budgetsFor(core.CategoryTransferOut) {
		b.Spent = spent
		batch = append(batch, store.UpdateBudget(b))
	}
	return batch, nil
}

// Seed plans the starter ledger for a new user. Budget spent totals are
// derived from the seeded transactions, so the snapshot is born
// consistent.
func (l *Ledger) Seed(seed core.SeedData, now time.Time) (store.Batch, error) {
	if len(l.accounts) > 0 {
		return nil, fmt.Errorf("%w: ledger sudah berisi akun", ErrConstraint)
	}

	var batch store.Batch
	ids := make([]string, len(seed.Accounts))
	for i, a := range seed.Accounts {
		a.ID = uuid.NewString()
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		ids[i] = a.ID
		batch = append(batch, store.CreateAccount(a))
	}

	spentByCategory := make(map[string]core.Money)
	for _, st := range seed.Transactions {
		if st.AccountIndex < 0 || st.AccountIndex >= len(ids) {
			return nil, fmt.Errorf("%w: seed transaksi menunjuk akun %d", ErrValidation, st.AccountIndex)
		}
		tx := core.Transaction{
			ID:        uuid.NewString(),
			Kind:      st.Kind,
			Amount:    st.Amount,
			Date:      st.Resolve(now),
			Category:  st.Category,
			AccountID: ids[st.AccountIndex],
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if tx.Kind == core.Expense {
			spentByCategory[tx.Category] = spentByCategory[tx.Category].Add(tx.Amount)
		}
		batch = append(batch, store.CreateTransaction(tx))
	}

	for _, b := range seed.Budgets {
		b.ID = uuid.NewString()
		b.Spent = spentByCategory[b.Category]
		batch = append(batch, store.CreateBudget(b))
	}
	return batch, nil
}
