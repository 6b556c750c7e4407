// Package store defines the persistence contract of the ledger: a durable
// backend applies ordered batches of entity writes atomically and pushes
// full snapshots back to subscribers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"ayoberhemat/internal/core"
)

const (
	Accounts     Collection = "accounts"
	Transactions Collection = "transactions"
	Budgets      Collection = "budgets"

	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

type (
	Collection string

	OpKind string

	// Op is one entity write. Create and update carry the full entity
	// for their collection; delete carries only the id. Updates replace
	// the stored record wholesale.
	Op struct {
		Kind       OpKind
		Collection Collection
		ID         string

		Account     *core.Account
		Transaction *core.Transaction
		Budget      *core.Budget
	}

	// Batch is an ordered list of writes representing one logical
	// ledger operation. A backend applies it all-or-nothing.
	Batch []Op

	// Snapshot is the full committed state of one user's ledger.
	Snapshot struct {
		Accounts     []core.Account
		Transactions []core.Transaction
		Budgets      []core.Budget
	}
)

// ErrProfileNotFound is returned by Profile for unknown usernames.
var ErrProfileNotFound = errors.New("profile not found")

// Store is the durable side of the ledger. Implementations guarantee that
// a committed batch is visible atomically to subsequent Loads and that
// subscribers receive a fresh snapshot after every commit.
type Store interface {
	ApplyBatch(ctx context.Context, userID string, batch Batch) error
	Load(ctx context.Context, userID string) (Snapshot, error)
	Subscribe(userID string, fn func(Snapshot)) (cancel func())

	Profile(ctx context.Context, username string) (*core.Profile, error)
	SaveProfile(ctx context.Context, p core.Profile) error

	Close() error
}

func CreateAccount(a core.Account) Op {
	return Op{Kind: OpCreate, Collection: Accounts, ID: a.ID, Account: &a}
}

func UpdateAccount(a core.Account) Op {
	return Op{Kind: OpUpdate, Collection: Accounts, ID: a.ID, Account: &a}
}

func DeleteAccount(id string) Op {
	return Op{Kind: OpDelete, Collection: Accounts, ID: id}
}

func CreateTransaction(tx core.Transaction) Op {
	return Op{Kind: OpCreate, Collection: Transactions, ID: tx.ID, Transaction: &tx}
}

func DeleteTransaction(id string) Op {
	return Op{Kind: OpDelete, Collection: Transactions, ID: id}
}

func CreateBudget(b core.Budget) Op {
	return Op{Kind: OpCreate, Collection: Budgets, ID: b.ID, Budget: &b}
}

func UpdateBudget(b core.Budget) Op {
	return Op{Kind: OpUpdate, Collection: Budgets, ID: b.ID, Budget: &b}
}

func DeleteBudget(id string) Op {
	return Op{Kind: OpDelete, Collection: Budgets, ID: id}
}

// Validate checks structural integrity: every op has an id and, unless it
// is a delete, a payload matching its collection.
func (b Batch) Validate() error {
	for i, op := range b {
		if op.ID == "" {
			return fmt.Errorf("op %d: missing id", i)
		}
		if op.Kind == OpDelete {
			continue
		}
		switch op.Collection {
		case Accounts:
			if op.Account == nil {
				return fmt.Errorf("op %d: missing account payload", i)
			}
		case Transactions:
			if op.Transaction == nil {
				return fmt.Errorf("op %d: missing transaction payload", i)
			}
		case Budgets:
			if op.Budget == nil {
				return fmt.Errorf("op %d: missing budget payload", i)
			}
		default:
			return fmt.Errorf("op %d: unknown collection %q", i, op.Collection)
		}
	}
	return nil
}

// SortSnapshot puts a snapshot into its canonical order: accounts by
// name, budgets by category, transactions newest first. Ids break ties so
// the order is total.
func SortSnapshot(snap *Snapshot) {
	sort.Slice(snap.Accounts, func(i, j int) bool {
		if snap.Accounts[i].Name != snap.Accounts[j].Name {
			return snap.Accounts[i].Name < snap.Accounts[j].Name
		}
		return snap.Accounts[i].ID < snap.Accounts[j].ID
	})
	sort.Slice(snap.Budgets, func(i, j int) bool {
		if snap.Budgets[i].Category != snap.Budgets[j].Category {
			return snap.Budgets[i].Category < snap.Budgets[j].Category
		}
		return snap.Budgets[i].ID < snap.Budgets[j].ID
	})
	sort.Slice(snap.Transactions, func(i, j int) bool {
		if !snap.Transactions[i].Date.Equal(snap.Transactions[j].Date) {
			return snap.Transactions[i].Date.After(snap.Transactions[j].Date)
		}
		return snap.Transactions[i].ID < snap.Transactions[j].ID
	})
}

// Notifier fans committed snapshots out to per-user subscribers. It is
// embedded by store implementations; Publish calls subscribers
// synchronously, so callers must not hold the store lock while publishing.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(Snapshot)
}

func (n *Notifier) Subscribe(userID string, fn func(Snapshot)) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[string]map[int]func(Snapshot))
	}
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[int]func(Snapshot))
	}
	id := n.next
	n.next++
	n.subs[userID][id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[userID], id)
	}
}

func (n *Notifier) Publish(userID string, snap Snapshot) {
	n.mu.Lock()
	fns := make([]func(Snapshot), 0, len(n.subs[userID]))
	for _, fn := range n.subs[userID] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
