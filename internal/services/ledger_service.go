// Package services orchestrates ledger operations across the durable
// store and AMQP. Writes follow commit-then-reflect: a planned batch goes
// to the store first, and the in-memory ledger only advances once the
// store has committed it.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/ledger"
	"ayoberhemat/internal/store"
)

// EventPublisher pushes committed-ledger events to interested consumers.
// A nil publisher disables events.
type EventPublisher interface {
	PublishLedgerCommitted(ctx context.Context, userID, operation string, txIDs []string) error
}

// LedgerService serializes each user's mutations and keeps a cached
// ledger snapshot per user.
type LedgerService struct {
	store  store.Store
	events EventPublisher

	mu    sync.Mutex
	users map[string]*userState
}

// userState is one user's cached ledger. pending holds the latest
// snapshot pushed by the store; it is folded in on the next access so
// cross-process writes become visible without holding locks inside the
// store's notification path.
type userState struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	pending atomic.Pointer[store.Snapshot]
	cancel  func()
}

func NewLedgerService(st store.Store, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:  st,
		events: events,
		users:  make(map[string]*userState),
	}
}

// state returns the user's cached ledger, loading it from the store on
// first access. Budget totals are verified on load and repaired when the
// stored snapshot drifted.
func (s *LedgerService) state(ctx context.Context, userID string) (*userState, error) {
	s.mu.Lock()
	st, ok := s.users[userID]
	if !ok {
		st = &userState{}
		st.cancel = s.store.Subscribe(userID, func(snap store.Snapshot) {
			st.pending.Store(&snap)
		})
		s.users[userID] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	if st.ledger == nil {
		snap, err := s.store.Load(ctx, userID)
		if err != nil {
			st.mu.Unlock()
			return nil, fmt.Errorf("%w: %v", ledger.ErrPersistence, err)
		}
		st.ledger = ledger.FromSnapshot(snap)
		if err := s.repairSpent(ctx, userID, st); err != nil {
			st.mu.Unlock()
			return nil, err
		}
	} else if snap := st.pending.Swap(nil); snap != nil {
		st.ledger = ledger.FromSnapshot(*snap)
	}
	return st, nil
}

// repairSpent re-derives budget totals and commits a repair batch when
// anything drifted. Called with st.mu held, and keeps it held.
func (s *LedgerService) repairSpent(ctx context.Context, userID string, st *userState) error {
	batch := st.ledger.RecomputeSpent()
	if len(batch) == 0 {
		return nil
	}
	slog.WarnContext(ctx, "repairing drifted budget totals",
		"user", userID, "budgets", len(batch))
	if err := s.store.ApplyBatch(ctx, userID, batch); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrPersistence, err)
	}
	next, err := st.ledger.Apply(batch)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrPersistence, err)
	}
	st.ledger = next
	st.pending.Store(nil)
	return nil
}

// commit applies a planned batch to the store, then reflects it into the
// cached ledger and publishes the event. Called with st.mu held; unlocks
// it before returning.
func (s *LedgerService) commit(ctx context.Context, userID string, st *userState, batch store.Batch, operation string, txIDs []string) error {
	if err := s.store.ApplyBatch(ctx, userID, batch); err != nil {
		st.mu.Unlock()
		return fmt.Errorf("%w: %v", ledger.ErrPersistence, err)
	}
	next, err := st.ledger.Apply(batch)
	if err != nil {
		// The store accepted a batch the cache cannot interpret, so the
		// cache is stale. Drop it; the next access reloads.
		slog.ErrorContext(ctx, "cached ledger diverged from store, dropping cache",
			"user", userID, "error", err)
		st.ledger = nil
	} else {
		st.ledger = next
	}
	st.pending.Store(nil)
	st.mu.Unlock()

	if s.events != nil {
		if err := s.events.PublishLedgerCommitted(ctx, userID, operation, txIDs); err != nil {
			// The write is durable; a lost event only delays the export.
			slog.ErrorContext(ctx, "failed to publish ledger event",
				"user", userID, "operation", operation, "error", err)
		}
	}
	return nil
}

// Snapshot returns the user's committed ledger in canonical order.
func (s *LedgerService) Snapshot(ctx context.Context, userID string) (store.Snapshot, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return store.Snapshot{}, err
	}
	defer st.mu.Unlock()
	return st.ledger.Snapshot(), nil
}

// MonthlyReport aggregates one calendar month of the user's transactions.
func (s *LedgerService) MonthlyReport(ctx context.Context, userID string, year int, month time.Month) (core.MonthlyReport, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	defer st.mu.Unlock()
	return core.BuildMonthlyReport(st.ledger.Snapshot().Transactions, year, month), nil
}

// RecordTransaction records a movement and returns the stored transaction.
func (s *LedgerService) RecordTransaction(ctx context.Context, userID string, in ledger.TransactionInput) (core.Transaction, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	batch, err := st.ledger.RecordTransaction(in)
	if err != nil {
		st.mu.Unlock()
		return core.Transaction{}, err
	}
	tx := *batch[0].Transaction
	if err := s.commit(ctx, userID, st, batch, "transaction.create", []string{tx.ID}); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction and reverses its effects.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	st, err := s.state(ctx, userID)
	if err != nil {
		return err
	}
	batch, err := st.ledger.DeleteTransaction(id)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	return s.commit(ctx, userID, st, batch, "transaction.delete", []string{id})
}

// CreateAccount opens an account and returns it.
func (s *LedgerService) CreateAccount(ctx context.Context, userID string, in ledger.AccountInput) (core.Account, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return core.Account{}, err
	}
	batch, err := st.ledger.CreateAccount(in)
	if err != nil {
		st.mu.Unlock()
		return core.Account{}, err
	}
	acc := *batch[0].Account
	if err := s.commit(ctx, userID, st, batch, "account.create", nil); err != nil {
		return core.Account{}, err
	}
	return acc, nil
}

// EditAccount renames or retypes an account.
func (s *LedgerService) EditAccount(ctx context.Context, userID, id string, in ledger.AccountEdit) (core.Account, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return core.Account{}, err
	}
	batch, err := st.ledger.EditAccount(id, in)
	if err != nil {
		st.mu.Unlock()
		return core.Account{}, err
	}
	acc := *batch[0].Account
	if err := s.commit(ctx, userID, st, batch, "account.update", nil); err != nil {
		return core.Account{}, err
	}
	return acc, nil
}

// DeleteAccount removes an unreferenced account.
func (s *LedgerService) DeleteAccount(ctx context.Context, userID, id string) error {
	st, err := s.state(ctx, userID)
	if err != nil {
		return err
	}
	batch, err := st.ledger.DeleteAccount(id)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	return s.commit(ctx, userID, st, batch, "account.delete", nil)
}

// CreateBudget starts a budget for a category.
func (s *LedgerService) CreateBudget(ctx context.Context, userID string, in ledger.BudgetInput) (core.Budget, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return core.Budget{}, err
	}
	batch, err := st.ledger.CreateBudget(in)
	if err != nil {
		st.mu.Unlock()
		return core.Budget{}, err
	}
	b := *batch[0].Budget
	if err := s.commit(ctx, userID, st, batch, "budget.create", nil); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// EditBudget replaces a budget's category and cap.
func (s *LedgerService) EditBudget(ctx context.Context, userID, id string, in ledger.BudgetInput) (core.Budget, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return core.Budget{}, err
	}
	batch, err := st.ledger.EditBudget(id, in)
	if err != nil {
		st.mu.Unlock()
		return core.Budget{}, err
	}
	b := *batch[0].Budget
	if err := s.commit(ctx, userID, st, batch, "budget.update", nil); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// DeleteBudget removes a budget.
func (s *LedgerService) DeleteBudget(ctx context.Context, userID, id string) error {
	st, err := s.state(ctx, userID)
	if err != nil {
		return err
	}
	batch, err := st.ledger.DeleteBudget(id)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	return s.commit(ctx, userID, st, batch, "budget.delete", nil)
}

// Transfer moves value between two of the user's accounts.
func (s *LedgerService) Transfer(ctx context.Context, userID string, in ledger.TransferInput) error {
	st, err := s.state(ctx, userID)
	if err != nil {
		return err
	}
	batch, err := st.ledger.Transfer(in)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	ids := []string{batch[0].ID, batch[1].ID}
	return s.commit(ctx, userID, st, batch, "transfer", ids)
}

// EnsureSeeded plants the starter ledger for a user whose ledger is still
// empty. Called at login; a no-op for returning users.
func (s *LedgerService) EnsureSeeded(ctx context.Context, userID string, theme core.Theme, now time.Time) error {
	st, err := s.state(ctx, userID)
	if err != nil {
		return err
	}
	snap := st.ledger.Snapshot()
	if len(snap.Accounts) > 0 || len(snap.Transactions) > 0 || len(snap.Budgets) > 0 {
		st.mu.Unlock()
		return nil
	}
	batch, err := st.ledger.Seed(core.StarterLedger(theme), now)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	slog.InfoContext(ctx, "seeding starter ledger", "user", userID, "theme", theme)
	return s.commit(ctx, userID, st, batch, "seed", nil)
}

// Close drops all subscriptions. The store itself is owned by the caller.
func (s *LedgerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.users {
		if st.cancel != nil {
			st.cancel()
		}
	}
	s.users = make(map[string]*userState)
}
