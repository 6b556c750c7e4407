package ledger

import "ayoberhemat/internal/store"

// RecomputeSpent re-derives every budget's spent total from scratch and
// returns update ops for the budgets that drifted. A consistent ledger
// yields an empty batch, which makes the pass idempotent and cheap to run
// after every snapshot replacement.
//
// This is the full-recompute safety net on top of the incremental updates
// the planners emit; either path converges to the same totals.
func (l *Ledger) RecomputeSpent() store.Batch {
	var batch store.Batch
	for _, b := range l.budgets {
		spent := l.sumExpenses(b.Category, "")
		if !b.Spent.Equal(spent) {
			b.Spent = spent
			batch = append(batch, store.UpdateBudget(b))
		}
	}
	return batch
}
