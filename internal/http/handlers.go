package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ayoberhemat/internal/auth"
	"ayoberhemat/internal/core"
	"ayoberhemat/internal/ledger"
	"ayoberhemat/internal/store"
)

type (
	loginRequest struct {
		Username string `json:"username"`
		PIN      string `json:"pin"`
	}

	loginResponse struct {
		Token   string       `json:"token"`
		Profile core.Profile `json:"profile"`
	}

	ledgerResponse struct {
		Accounts     []core.Account     `json:"accounts"`
		Transactions []core.Transaction `json:"transactions"`
		Budgets      []core.Budget      `json:"budgets"`
	}

	categoriesResponse struct {
		Expense []string `json:"expense"`
		Income  []string `json:"income"`
	}

	transactionRequest struct {
		Kind      string `json:"kind"`
		Amount    string `json:"amount"`
		Date      string `json:"date"`
		Category  string `json:"category"`
		AccountID string `json:"accountId"`
		Notes     string `json:"notes"`
	}

	accountRequest struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Balance string `json:"balance"`
	}

	budgetRequest struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
	}

	transferRequest struct {
		FromID string `json:"fromId"`
		ToID   string `json:"toId"`
		Amount string `json:"amount"`
		Date   string `json:"date"`
	}
)

// decodeJSON reads a bounded JSON body into v. Malformed bodies are a
// validation failure, not a server error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: body JSON tidak valid", ledger.ErrValidation)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD and RFC3339 timestamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: tanggal %q tidak valid", ledger.ErrValidation, s)
}

func parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %v", ledger.ErrValidation, err)
	}
	return m, nil
}

// username panics outside the auth middleware; every protected route runs
// behind it.
func username(r *http.Request) string {
	name, ok := auth.Username(r.Context())
	if !ok {
		panic("handler reached without authentication")
	}
	return name
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, profile, err := s.authn.Login(r.Context(), req.Username, req.PIN)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// First login plants the starter ledger; later logins are a no-op.
	if err := s.ledger.EnsureSeeded(r.Context(), profile.Username, profile.Theme, time.Now()); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Profile: profile})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	name := username(r)
	theme, _ := s.authn.Theme(name)
	writeJSON(w, http.StatusOK, core.Profile{Username: name, Theme: theme})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context(), username(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(snap))
}

func snapshotResponse(snap store.Snapshot) ledgerResponse {
	resp := ledgerResponse{
		Accounts:     snap.Accounts,
		Transactions: snap.Transactions,
		Budgets:      snap.Budgets,
	}
	// Keep empty collections as [] in JSON.
	if resp.Accounts == nil {
		resp.Accounts = []core.Account{}
	}
	if resp.Transactions == nil {
		resp.Transactions = []core.Transaction{}
	}
	if resp.Budgets == nil {
		resp.Budgets = []core.Budget{}
	}
	return resp
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Expense: core.ExpenseCategories,
		Income:  core.IncomeCategories,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.ledger.RecordTransaction(r.Context(), username(r), ledger.TransactionInput{
		Kind:      core.TxKind(req.Kind),
		Amount:    amount,
		Date:      date,
		Category:  req.Category,
		AccountID: req.AccountID,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), username(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	balance := core.NewMoney(0)
	if strings.TrimSpace(req.Balance) != "" {
		var err error
		balance, err = parseAmount(req.Balance)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	acc, err := s.ledger.CreateAccount(r.Context(), username(r), ledger.AccountInput{
		Name:           req.Name,
		Type:           core.AccountType(req.Type),
		InitialBalance: balance,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleEditAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := s.ledger.EditAccount(r.Context(), username(r), r.PathValue("id"), ledger.AccountEdit{
		Name: req.Name,
		Type: core.AccountType(req.Type),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), username(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.ledger.CreateBudget(r.Context(), username(r), ledger.BudgetInput{
		Category: req.Category,
		Amount:   amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleEditBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.ledger.EditBudget(r.Context(), username(r), r.PathValue("id"), ledger.BudgetInput{
		Category: req.Category,
		Amount:   amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteBudget(r.Context(), username(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.Transfer(r.Context(), username(r), ledger.TransferInput{
		FromID: req.FromID,
		ToID:   req.ToID,
		Amount: amount,
		Date:   date,
	}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: tahun %q tidak valid", ledger.ErrValidation, v))
			return
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, r, fmt.Errorf("%w: bulan %q tidak valid", ledger.ErrValidation, v))
			return
		}
		month = m
	}

	report, err := s.ledger.MonthlyReport(r.Context(), username(r), year, time.Month(month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if report.ByExpense == nil {
		report.ByExpense = []core.CategoryAmount{}
	}
	writeJSON(w, http.StatusOK, report)
}
