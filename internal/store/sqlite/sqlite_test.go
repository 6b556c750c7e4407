package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBatchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)
	batch := store.Batch{
		store.CreateAccount(core.Account{ID: "a1", Name: "BNI", Balance: core.NewMoney(3_500_000), Type: core.AccountBank}),
		store.CreateTransaction(core.Transaction{
			ID: "t1", Kind: core.Expense, Amount: core.NewMoney(50_000),
			Date: date, Category: "Makanan", AccountID: "a1", Notes: "warteg",
		}),
		store.CreateBudget(core.Budget{ID: "b1", Category: "Makanan", Amount: core.NewMoney(800_000), Spent: core.NewMoney(50_000)}),
	}
	if err := s.ApplyBatch(ctx, "u1", batch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	snap, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Accounts) != 1 || len(snap.Transactions) != 1 || len(snap.Budgets) != 1 {
		t.Fatalf("unexpected snapshot shape: %+v", snap)
	}
	tx := snap.Transactions[0]
	if !tx.Date.Equal(date) {
		t.Fatalf("date round trip: want %v, got %v", date, tx.Date)
	}
	if tx.Notes != "warteg" || tx.Kind != core.Expense || !tx.Amount.Equal(core.NewMoney(50_000)) {
		t.Fatalf("transaction round trip: %+v", tx)
	}
	if !snap.Budgets[0].Spent.Equal(core.NewMoney(50_000)) {
		t.Fatalf("budget round trip: %+v", snap.Budgets[0])
	}
}

func TestBatchRollbackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok := store.Batch{
		store.CreateAccount(core.Account{ID: "a1", Name: "Tunai", Balance: core.NewMoney(250_000), Type: core.AccountCash}),
	}
	if err := s.ApplyBatch(ctx, "u1", ok); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Update against a missing budget fails after a valid account update;
	// the whole batch must roll back.
	bad := store.Batch{
		store.UpdateAccount(core.Account{ID: "a1", Name: "Tunai", Balance: core.NewMoney(0), Type: core.AccountCash}),
		store.UpdateBudget(core.Budget{ID: "missing", Category: "Makanan", Amount: core.NewMoney(1), Spent: core.NewMoney(0)}),
	}
	if err := s.ApplyBatch(ctx, "u1", bad); err == nil {
		t.Fatalf("expected batch failure")
	}

	snap, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !snap.Accounts[0].Balance.Equal(core.NewMoney(250_000)) {
		t.Fatalf("rolled-back update is visible: %+v", snap.Accounts[0])
	}
}

func TestSubscribeAfterCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var snaps []store.Snapshot
	cancel := s.Subscribe("u1", func(snap store.Snapshot) { snaps = append(snaps, snap) })
	defer cancel()

	batch := store.Batch{
		store.CreateAccount(core.Account{ID: "a1", Name: "GoPay", Balance: core.NewMoney(750_000), Type: core.AccountEWallet}),
	}
	if err := s.ApplyBatch(ctx, "u1", batch); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(snaps) != 1 || len(snaps[0].Accounts) != 1 {
		t.Fatalf("subscriber missed the commit: %+v", snaps)
	}
}

func TestProfilePersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Profile(ctx, "mufel"); err != store.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if err := s.SaveProfile(ctx, core.Profile{Username: "mufel", Theme: core.ThemeMufel}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	// Reopen: the profile survives the process.
	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	p, err := s2.Profile(ctx, "mufel")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Theme != core.ThemeMufel {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
