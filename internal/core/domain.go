package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountCash    AccountType = "Tunai"
	AccountBank    AccountType = "Bank"
	AccountEWallet AccountType = "E-Wallet"

	Income  TxKind = "Pemasukan"
	Expense TxKind = "Pengeluaran"

	ThemeNauval Theme = "nauval"
	ThemeMufel  Theme = "mufel"
)

type (
	AccountType string

	TxKind string

	Theme string

	// Account is a place money lives. Balance is a stored running
	// total: opening balance plus the signed sum of every transaction
	// that references the account.
	Account struct {
		ID      string      `json:"id"`
		Name    string      `json:"name"`
		Balance Money       `json:"balance"`
		Type    AccountType `json:"type"`
	}

	// Transaction is a single ledger movement. Transactions are
	// immutable once recorded; correcting one means deleting it and
	// recording a replacement.
	Transaction struct {
		ID        string    `json:"id"`
		Kind      TxKind    `json:"kind"`
		Amount    Money     `json:"amount"`
		Date      time.Time `json:"date"`
		Category  string    `json:"category"`
		AccountID string    `json:"accountId"`
		Notes     string    `json:"notes,omitempty"`
	}

	// Budget caps spending for one category. Spent is derived from the
	// transaction set and never edited directly.
	Budget struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Spent    Money  `json:"spent"`
	}

	// Profile is the per-user record created on first login.
	Profile struct {
		Username string `json:"username"`
		Theme    Theme  `json:"theme"`
	}
)

var (
	ErrInvalidAmount      = errors.New("jumlah tidak valid")
	ErrEmptyName          = errors.New("nama tidak boleh kosong")
	ErrEmptyCategory      = errors.New("kategori tidak boleh kosong")
	ErrEmptyAccountRef    = errors.New("akun tidak boleh kosong")
	ErrZeroDate           = errors.New("tanggal tidak boleh kosong")
	ErrInvalidAccountType = errors.New("jenis akun tidak dikenal")
	ErrInvalidTxKind      = errors.New("jenis transaksi tidak dikenal")
	ErrInvalidTheme       = errors.New("tema tidak dikenal")
)

func (t AccountType) Validate() error {
	switch t {
	case AccountCash, AccountBank, AccountEWallet:
		return nil
	}
	return ErrInvalidAccountType
}

func (k TxKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidTxKind
}

func (th Theme) Validate() error {
	switch th {
	case ThemeNauval, ThemeMufel:
		return nil
	}
	return ErrInvalidTheme
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return a.Type.Validate()
}

func (tx Transaction) Validate() error {
	if err := tx.Kind.Validate(); err != nil {
		return err
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if tx.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if tx.AccountID == "" {
		return ErrEmptyAccountRef
	}
	return nil
}

// Signed returns the amount as it affects an account balance:
// positive for income, negative for expense.
func (tx Transaction) Signed() Money {
	if tx.Kind == Expense {
		return tx.Amount.Neg()
	}
	return tx.Amount
}
