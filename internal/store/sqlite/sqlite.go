// Package sqlite is the durable Store backed by a local SQLite database
// (pure-Go driver). Each batch runs in one SQL transaction, so partial
// batches never become visible.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	store.Notifier

	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ApplyBatch writes every op inside one SQL transaction and notifies
// subscribers with the post-commit snapshot.
func (s *Store) ApplyBatch(ctx context.Context, userID string, batch store.Batch) error {
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for i, op := range batch {
		if err := applyOp(ctx, tx, userID, op); err != nil {
			return fmt.Errorf("op %d (%s %s): %w", i, op.Kind, op.Collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	snap, err := s.Load(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot reload after commit failed", "user", userID, "error", err)
		return nil // the batch itself is durable
	}
	s.Publish(userID, snap)
	return nil
}

func applyOp(ctx context.Context, tx *sql.Tx, userID string, op store.Op) error {
	var (
		res sql.Result
		err error
	)

	switch op.Kind {
	case store.OpCreate, store.OpUpdate:
		res, err = upsertOp(ctx, tx, userID, op)
	case store.OpDelete:
		res, err = tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND id = ?", op.Collection),
			userID, op.ID)
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("id %s: expected 1 row, got %d", op.ID, n)
	}
	return nil
}

func upsertOp(ctx context.Context, tx *sql.Tx, userID string, op store.Op) (sql.Result, error) {
	switch op.Collection {
	case store.Accounts:
		a := op.Account
		if op.Kind == store.OpCreate {
			return tx.ExecContext(ctx,
				`INSERT INTO accounts (user_id, id, name, balance, type) VALUES (?, ?, ?, ?, ?)`,
				userID, a.ID, a.Name, a.Balance.String(), string(a.Type))
		}
		return tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, balance = ?, type = ? WHERE user_id = ? AND id = ?`,
			a.Name, a.Balance.String(), string(a.Type), userID, a.ID)

	case store.Transactions:
		t := op.Transaction
		if op.Kind == store.OpCreate {
			return tx.ExecContext(ctx,
				`INSERT INTO transactions (user_id, id, kind, amount, date, category, account_id, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				userID, t.ID, string(t.Kind), t.Amount.String(),
				t.Date.UTC().Format(time.RFC3339), t.Category, t.AccountID, t.Notes)
		}
		// Transactions are immutable; updates are not part of the contract.
		return nil, fmt.Errorf("transactions do not support update")

	case store.Budgets:
		b := op.Budget
		if op.Kind == store.OpCreate {
			return tx.ExecContext(ctx,
				`INSERT INTO budgets (user_id, id, category, amount, spent) VALUES (?, ?, ?, ?, ?)`,
				userID, b.ID, b.Category, b.Amount.String(), b.Spent.String())
		}
		return tx.ExecContext(ctx,
			`UPDATE budgets SET category = ?, amount = ?, spent = ? WHERE user_id = ? AND id = ?`,
			b.Category, b.Amount.String(), b.Spent.String(), userID, b.ID)
	}
	return nil, fmt.Errorf("unknown collection %q", op.Collection)
}

func (s *Store) Load(ctx context.Context, userID string) (store.Snapshot, error) {
	var snap store.Snapshot

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, balance, type FROM accounts WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return snap, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			a       core.Account
			balance string
			typ     string
		)
		if err := rows.Scan(&a.ID, &a.Name, &balance, &typ); err != nil {
			return snap, fmt.Errorf("scan account: %w", err)
		}
		if a.Balance, err = core.ParseMoney(balance); err != nil {
			return snap, fmt.Errorf("account %s: bad balance %q", a.ID, balance)
		}
		a.Type = core.AccountType(typ)
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate accounts: %w", err)
	}

	txRows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, amount, date, category, account_id, notes
		 FROM transactions WHERE user_id = ? ORDER BY date DESC, id`, userID)
	if err != nil {
		return snap, fmt.Errorf("load transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var (
			t            core.Transaction
			kind, amount string
			date         string
		)
		if err := txRows.Scan(&t.ID, &kind, &amount, &date, &t.Category, &t.AccountID, &t.Notes); err != nil {
			return snap, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.TxKind(kind)
		if t.Amount, err = core.ParseMoney(amount); err != nil {
			return snap, fmt.Errorf("transaction %s: bad amount %q", t.ID, amount)
		}
		if t.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return snap, fmt.Errorf("transaction %s: bad date %q", t.ID, date)
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := txRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate transactions: %w", err)
	}

	bRows, err := s.db.QueryContext(ctx,
		`SELECT id, category, amount, spent FROM budgets WHERE user_id = ? ORDER BY category, id`, userID)
	if err != nil {
		return snap, fmt.Errorf("load budgets: %w", err)
	}
	defer bRows.Close()
	for bRows.Next() {
		var (
			b             core.Budget
			amount, spent string
		)
		if err := bRows.Scan(&b.ID, &b.Category, &amount, &spent); err != nil {
			return snap, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = core.ParseMoney(amount); err != nil {
			return snap, fmt.Errorf("budget %s: bad amount %q", b.ID, amount)
		}
		if b.Spent, err = core.ParseMoney(spent); err != nil {
			return snap, fmt.Errorf("budget %s: bad spent %q", b.ID, spent)
		}
		snap.Budgets = append(snap.Budgets, b)
	}
	if err := bRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate budgets: %w", err)
	}

	return snap, nil
}

func (s *Store) Profile(ctx context.Context, username string) (*core.Profile, error) {
	var theme string
	err := s.db.QueryRowContext(ctx,
		`SELECT theme FROM profiles WHERE username = ?`, username).Scan(&theme)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &core.Profile{Username: username, Theme: core.Theme(theme)}, nil
}

func (s *Store) SaveProfile(ctx context.Context, p core.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (username, theme) VALUES (?, ?)
		 ON CONFLICT (username) DO UPDATE SET theme = excluded.theme`,
		p.Username, string(p.Theme))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
