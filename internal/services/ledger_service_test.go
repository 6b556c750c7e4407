package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/ledger"
	"ayoberhemat/internal/store"
	"ayoberhemat/internal/store/memory"
)

var testDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

type capturedEvent struct {
	userID    string
	operation string
	txIDs     []string
}

type fakePublisher struct {
	events []capturedEvent
	fail   bool
}

func (p *fakePublisher) PublishLedgerCommitted(_ context.Context, userID, operation string, txIDs []string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, capturedEvent{userID, operation, txIDs})
	return nil
}

// brokenStore refuses every batch. Everything else delegates to the
// in-memory store so reads still work.
type brokenStore struct {
	*memory.Store
}

func (b *brokenStore) ApplyBatch(context.Context, string, store.Batch) error {
	return errors.New("disk full")
}

func TestRecordTransactionCommitsAndPublishes(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	defer st.Close()
	pub := &fakePublisher{}
	svc := NewLedgerService(st, pub)
	defer svc.Close()

	acc, err := svc.CreateAccount(ctx, "nauval", ledger.AccountInput{
		Name: "BNI", Type: core.AccountBank, InitialBalance: core.NewMoney(1000),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	tx, err := svc.RecordTransaction(ctx, "nauval", ledger.TransactionInput{
		Kind: core.Expense, Amount: core.NewMoney(250), Date: testDate,
		Category: "Makanan", AccountID: acc.ID,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// The write reached the store, not only the cache.
	snap, err := st.Load(ctx, "nauval")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != tx.ID {
		t.Fatalf("transaction not in store: %+v", snap.Transactions)
	}
	if !snap.Accounts[0].Balance.Equal(core.NewMoney(750)) {
		t.Fatalf("stored balance expected 750, got %v", snap.Accounts[0].Balance)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	last := pub.events[1]
	if last.operation != "transaction.create" || len(last.txIDs) != 1 || last.txIDs[0] != tx.ID {
		t.Fatalf("wrong event: %+v", last)
	}
}

func TestPersistenceFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	defer mem.Close()
	if err := mem.ApplyBatch(ctx, "nauval", store.Batch{
		store.CreateAccount(core.Account{ID: "a1", Name: "BNI", Balance: core.NewMoney(1000), Type: core.AccountBank}),
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := NewLedgerService(&brokenStore{mem}, nil)
	defer svc.Close()

	_, err := svc.RecordTransaction(ctx, "nauval", ledger.TransactionInput{
		Kind: core.Expense, Amount: core.NewMoney(100), Date: testDate,
		Category: "Makanan", AccountID: "a1",
	})
	if !errors.Is(err, ledger.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	// The cached ledger never advanced past what the store holds.
	snap, err := svc.Snapshot(ctx, "nauval")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Transactions) != 0 {
		t.Fatalf("uncommitted transaction visible: %+v", snap.Transactions)
	}
	if !snap.Accounts[0].Balance.Equal(core.NewMoney(1000)) {
		t.Fatalf("uncommitted balance visible: %v", snap.Accounts[0].Balance)
	}
}

func TestPublisherFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	defer st.Close()
	svc := NewLedgerService(st, &fakePublisher{fail: true})
	defer svc.Close()

	if _, err := svc.CreateAccount(ctx, "nauval", ledger.AccountInput{
		Name: "Tunai", Type: core.AccountCash, InitialBalance: core.NewMoney(500),
	}); err != nil {
		t.Fatalf("create account failed on publisher error: %v", err)
	}

	snap, err := st.Load(ctx, "nauval")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Accounts) != 1 {
		t.Fatalf("account not committed")
	}
}

func TestTransferThroughService(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	defer st.Close()
	pub := &fakePublisher{}
	svc := NewLedgerService(st, pub)
	defer svc.Close()

	from, err := svc.CreateAccount(ctx, "mufel", ledger.AccountInput{
		Name: "BNI", Type: core.AccountBank, InitialBalance: core.NewMoney(500),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	to, err := svc.CreateAccount(ctx, "mufel", ledger.AccountInput{
		Name: "GoPay", Type: core.AccountEWallet, InitialBalance: core.NewMoney(200),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Transfer(ctx, "mufel", ledger.TransferInput{
		FromID: from.ID, ToID: to.ID, Amount: core.NewMoney(100), Date: testDate,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	snap, _ := svc.Snapshot(ctx, "mufel")
	for _, a := range snap.Accounts {
		want := core.NewMoney(400)
		if a.ID == to.ID {
			want = core.NewMoney(300)
		}
		if !a.Balance.Equal(want) {
			t.Fatalf("account %s balance expected %v, got %v", a.Name, want, a.Balance)
		}
	}
	last := pub.events[len(pub.events)-1]
	if last.operation != "transfer" || len(last.txIDs) != 2 {
		t.Fatalf("wrong transfer event: %+v", last)
	}
}

func TestEnsureSeededIsOneShot(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	defer st.Close()
	svc := NewLedgerService(st, nil)
	defer svc.Close()

	if err := svc.EnsureSeeded(ctx, "nauval", core.ThemeNauval, testDate); err != nil {
		t.Fatalf("seed: %v", err)
	}
	snap, _ := svc.Snapshot(ctx, "nauval")
	if len(snap.Accounts) != 3 || len(snap.Budgets) != 2 {
		t.Fatalf("unexpected seeded shape: %d accounts, %d budgets",
			len(snap.Accounts), len(snap.Budgets))
	}

	// A second login does not reseed.
	if err := svc.EnsureSeeded(ctx, "nauval", core.ThemeNauval, testDate); err != nil {
		t.Fatalf("reseed check: %v", err)
	}
	again, _ := svc.Snapshot(ctx, "nauval")
	if len(again.Accounts) != 3 || len(again.Transactions) != len(snap.Transactions) {
		t.Fatalf("second EnsureSeeded changed the ledger")
	}
}

func TestLoadRepairsDriftedBudgets(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	defer st.Close()

	// Write a snapshot whose budget total disagrees with its transactions.
	if err := st.ApplyBatch(ctx, "nauval", store.Batch{
		store.CreateAccount(core.Account{ID: "a1", Name: "BNI", Balance: core.NewMoney(900), Type: core.AccountBank}),
		store.CreateTransaction(core.Transaction{ID: "t1", Kind: core.Expense, Amount: core.NewMoney(100), Date: testDate, Category: "Makanan", AccountID: "a1"}),
		store.CreateBudget(core.Budget{ID: "b1", Category: "Makanan", Amount: core.NewMoney(800), Spent: core.NewMoney(555)}),
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := NewLedgerService(st, nil)
	defer svc.Close()

	snap, err := svc.Snapshot(ctx, "nauval")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Budgets[0].Spent.Equal(core.NewMoney(100)) {
		t.Fatalf("spent not repaired: %v", snap.Budgets[0].Spent)
	}

	// The repair was committed, not only cached.
	stored, _ := st.Load(ctx, "nauval")
	if !stored.Budgets[0].Spent.Equal(core.NewMoney(100)) {
		t.Fatalf("repair not persisted: %v", stored.Budgets[0].Spent)
	}
}
