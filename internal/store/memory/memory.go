// Package memory is the in-memory Store used by tests and the memory
// backend. Batches are staged against copies and swapped in atomically,
// so a rejected batch leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"
)

type userData struct {
	accounts     map[string]core.Account
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
}

type Store struct {
	store.Notifier

	mu       sync.Mutex
	users    map[string]*userData
	profiles map[string]core.Profile
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]*userData),
		profiles: make(map[string]core.Profile),
	}
}

func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{
			accounts:     make(map[string]core.Account),
			transactions: make(map[string]core.Transaction),
			budgets:      make(map[string]core.Budget),
		}
		s.users[userID] = u
	}
	return u
}

// ApplyBatch applies every op or none: the batch is checked and staged on
// cloned maps, which replace the live ones only when everything passed.
func (s *Store) ApplyBatch(ctx context.Context, userID string, batch store.Batch) error {
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	s.mu.Lock()
	u := s.user(userID)
	staged := &userData{
		accounts:     cloneMap(u.accounts),
		transactions: cloneMap(u.transactions),
		budgets:      cloneMap(u.budgets),
	}
	if err := applyOps(staged, batch); err != nil {
		s.mu.Unlock()
		return err
	}
	s.users[userID] = staged
	snap := snapshotOf(staged)
	s.mu.Unlock()

	s.Publish(userID, snap)
	return nil
}

func applyOps(u *userData, batch store.Batch) error {
	for i, op := range batch {
		var err error
		switch op.Collection {
		case store.Accounts:
			err = applyOp(u.accounts, op, op.Account)
		case store.Transactions:
			err = applyOp(u.transactions, op, op.Transaction)
		case store.Budgets:
			err = applyOp(u.budgets, op, op.Budget)
		}
		if err != nil {
			return fmt.Errorf("op %d (%s %s): %w", i, op.Kind, op.Collection, err)
		}
	}
	return nil
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

func (s *Store) Load(ctx context.Context, userID string) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.user(userID)), nil
}

func (s *Store) Profile(ctx context.Context, username string) (*core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[username]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Username] = p
	return nil
}

func (s *Store) Close() error { return nil }

func cloneMap[T any](m map[string]T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func snapshotOf(u *userData) store.Snapshot {
	snap := store.Snapshot{
		Accounts:     make([]core.Account, 0, len(u.accounts)),
		Transactions: make([]core.Transaction, 0, len(u.transactions)),
		Budgets:      make([]core.Budget, 0, len(u.budgets)),
	}
	for _, a := range u.accounts {
		snap.Accounts = append(snap.Accounts, a)
	}
	for _, tx := range u.transactions {
		snap.Transactions = append(snap.Transactions, tx)
	}
	for _, b := range u.budgets {
		snap.Budgets = append(snap.Budgets, b)
	}
	store.SortSnapshot(&snap)
	return snap
}
