package core

import (
	"sort"
	"time"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthlyReport is a compact income/expense summary for one year+month.
type MonthlyReport struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"` // 1-12
	Income    Money            `json:"income"`
	Expense   Money            `json:"expense"`
	Net       Money            `json:"net"`
	ByExpense []CategoryAmount `json:"byExpense"`
}

// BuildMonthlyReport aggregates the transactions falling inside the given
// calendar month. Expense categories are ordered largest first; ties break
// alphabetically so the output is stable.
func BuildMonthlyReport(txs []Transaction, year int, month time.Month) MonthlyReport {
	rep := MonthlyReport{Year: year, Month: int(month)}
	perCategory := make(map[string]Money)

	for _, tx := range txs {
		y, m, _ := tx.Date.Date()
		if y != year || m != month {
			continue
		}
		switch tx.Kind {
		case Income:
			rep.Income = rep.Income.Add(tx.Amount)
		case Expense:
			rep.Expense = rep.Expense.Add(tx.Amount)
			perCategory[tx.Category] = perCategory[tx.Category].Add(tx.Amount)
		}
	}

	rep.Net = rep.Income.Sub(rep.Expense)
	for name, amount := range perCategory {
		rep.ByExpense = append(rep.ByExpense, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(rep.ByExpense, func(i, j int) bool {
		if c := rep.ByExpense[i].Amount.Cmp(rep.ByExpense[j].Amount); c != 0 {
			return c > 0
		}
		return rep.ByExpense[i].Name < rep.ByExpense[j].Name
	})
	return rep
}
