// Package ledger is the balance/budget consistency engine. A Ledger is an
// immutable snapshot of one user's entities; every mutation is planned as
// a store.Batch against the snapshot and only reflected once the durable
// store has committed it. Apply is the single interpreter of batches, so
// the in-memory state can never diverge from what was committed.
package ledger

import (
	"fmt"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"
)

// Ledger holds one user's committed entity collections.
type Ledger struct {
	accounts     map[string]core.Account
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
}

func New() *Ledger {
	return &Ledger{
		accounts:     make(map[string]core.Account),
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
	}
}

// FromSnapshot builds a Ledger from a store snapshot.
func FromSnapshot(snap store.Snapshot) *Ledger {
	l := New()
	for _, a := range snap.Accounts {
		l.accounts[a.ID] = a
	}
	for _, tx := range snap.Transactions {
		l.transactions[tx.ID] = tx
	}
	for _, b := range snap.Budgets {
		l.budgets[b.ID] = b
	}
	return l
}

// Snapshot returns the ledger's state in canonical order.
func (l *Ledger) Snapshot() store.Snapshot {
	snap := store.Snapshot{
		Accounts:     make([]core.Account, 0, len(l.accounts)),
		Transactions: make([]core.Transaction, 0, len(l.transactions)),
		Budgets:      make([]core.Budget, 0, len(l.budgets)),
	}
	for _, a := range l.accounts {
		snap.Accounts = append(snap.Accounts, a)
	}
	for _, tx := range l.transactions {
		snap.Transactions = append(snap.Transactions, tx)
	}
	for _, b := range l.budgets {
		snap.Budgets = append(snap.Budgets, b)
	}
	store.SortSnapshot(&snap)
	return snap
}

func (l *Ledger) Account(id string) (core.Account, bool) {
	a, ok := l.accounts[id]
	return a, ok
}

func (l *Ledger) Transaction(id string) (core.Transaction, bool) {
	tx, ok := l.transactions[id]
	return tx, ok
}

func (l *Ledger) Budget(id string) (core.Budget, bool) {
	b, ok := l.budgets[id]
	return b, ok
}

// Apply interprets a batch against the ledger and returns the next
// snapshot. The receiver is left untouched; on error nothing is returned.
func (l *Ledger) Apply(batch store.Batch) (*Ledger, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}
	next := &Ledger{
		accounts:     cloneMap(l.accounts),
		transactions: cloneMap(l.transactions),
		budgets:      cloneMap(l.budgets),
	}
	for i, op := range batch {
		var err error
		switch op.Collection {
		case store.Accounts:
			err = applyOp(next.accounts, op, op.Account)
		case store.Transactions:
			err = applyOp(next.transactions, op, op.Transaction)
		case store.Budgets:
			err = applyOp(next.budgets, op, op.Budget)
		}
		if err != nil {
			return nil, fmt.Errorf("op %d (%s %s): %w", i, op.Kind, op.Collection, err)
		}
	}
	return next, nil
}

func applyOp[T any](m map[string]T, op store.Op, payload *T) error {
	_, exists := m[op.ID]
	switch op.Kind {
	case store.OpCreate:
		if exists {
			return fmt.Errorf("id %s already exists", op.ID)
		}
		m[op.ID] = *payload
	case store.OpUpdate:
		if !exists {
			return fmt.Errorf("id %s does not exist", op.ID)
		}
		m[op.ID] = *payload
	case store.OpDelete:
		if !exists {
			return fmt.Errorf("id %s does not exist", op.ID)
		}
		delete(m, op.ID)
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	return nil
}

func cloneMap[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sumExpenses derives a budget's spent total: the sum of every expense
// transaction whose category matches exactly (case-sensitive), optionally
// skipping one transaction id (used when planning a deletion).
func (l *Ledger) sumExpenses(category, skipID string) core.Money {
	var total core.Money
	for id, tx := range l.transactions {
		if id == skipID {
			continue
		}
		if tx.Kind == core.Expense && tx.Category == category {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// budgetsFor returns every budget targeting the category.
func (l *Ledger) budgetsFor(category string) []core.Budget {
	var out []core.Budget
	for _, b := range l.budgets {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}
