package memory

import (
	"context"
	"testing"
	"time"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"
)

func TestApplyBatchAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()

	acc := core.Account{ID: "a1", Name: "BNI", Balance: core.NewMoney(500), Type: core.AccountBank}
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.CreateAccount(acc)}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	// Second batch: one valid op plus one update against a missing id.
	// Nothing from the batch may stick.
	bad := store.Batch{
		store.CreateTransaction(core.Transaction{
			ID: "t1", Kind: core.Income, Amount: core.NewMoney(100),
			Date: time.Now(), Category: "Gaji", AccountID: "a1",
		}),
		store.UpdateAccount(core.Account{ID: "missing", Name: "X", Type: core.AccountBank}),
	}
	if err := s.ApplyBatch(ctx, "u1", bad); err == nil {
		t.Fatalf("expected batch rejection")
	}

	snap, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Transactions) != 0 {
		t.Fatalf("rejected batch leaked a transaction")
	}
	if len(snap.Accounts) != 1 || !snap.Accounts[0].Balance.Equal(core.NewMoney(500)) {
		t.Fatalf("account state changed by rejected batch: %+v", snap.Accounts)
	}
}

func TestApplyBatchCreateUpdateDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := core.Budget{ID: "b1", Category: "Makanan", Amount: core.NewMoney(800_000)}
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.CreateBudget(b)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	b.Spent = core.NewMoney(50_000)
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.UpdateBudget(b)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	snap, _ := s.Load(ctx, "u1")
	if !snap.Budgets[0].Spent.Equal(core.NewMoney(50_000)) {
		t.Fatalf("update not visible: %+v", snap.Budgets[0])
	}

	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.CreateBudget(b)}); err == nil {
		t.Fatalf("duplicate create should fail")
	}
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.DeleteBudget("b1")}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.DeleteBudget("b1")}); err == nil {
		t.Fatalf("double delete should fail")
	}
}

func TestSubscribeReceivesCommittedSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()

	var got []store.Snapshot
	cancel := s.Subscribe("u1", func(snap store.Snapshot) {
		got = append(got, snap)
	})
	defer cancel()

	acc := core.Account{ID: "a1", Name: "Tunai", Balance: core.NewMoney(250_000), Type: core.AccountCash}
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.CreateAccount(acc)}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(got) != 1 || len(got[0].Accounts) != 1 {
		t.Fatalf("subscriber did not receive committed snapshot: %+v", got)
	}

	// Other users' commits stay invisible.
	if err := s.ApplyBatch(ctx, "u2", store.Batch{store.CreateAccount(acc)}); err != nil {
		t.Fatalf("apply u2: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("subscriber leaked across users")
	}

	cancel()
	if err := s.ApplyBatch(ctx, "u1", store.Batch{store.DeleteAccount("a1")}); err != nil {
		t.Fatalf("apply after cancel: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("cancelled subscriber still notified")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Profile(ctx, "nauval"); err != store.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	p := core.Profile{Username: "nauval", Theme: core.ThemeNauval}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Profile(ctx, "nauval")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.Theme != core.ThemeNauval {
		t.Fatalf("unexpected profile: %+v", got)
	}
}
