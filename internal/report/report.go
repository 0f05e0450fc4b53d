// Package report assembles per-month summaries from the finance
// collections and renders them as CSV or as plain rows for the sheet
// writers.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"fintrack/internal/core"
)

// BudgetLine pairs a budget with the expenses recorded against its
// category in the report month.
type BudgetLine struct {
	CategoryID   string     `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Budget       core.Money `json:"budget"`
	Spent        core.Money `json:"spent"`
	Usage        float64    `json:"usage"`
}

// MonthReport is the aggregate view of one calendar month.
type MonthReport struct {
	Year          int                     `json:"year"`
	Month         int                     `json:"month"`
	TotalIncome   core.Money              `json:"totalIncome"`
	TotalExpenses core.Money              `json:"totalExpenses"`
	NetIncome     core.Money              `json:"netIncome"`
	Spending      []core.CategorySpending `json:"spending"`
	Budgets       []BudgetLine            `json:"budgets"`
}

// BuildMonth computes the report for the given year and month.
func BuildMonth(transactions []core.Transaction, categories []core.Category, budgets []core.Budget, year, month int) MonthReport {
	ref := core.NewDate(year, month, 1)
	monthTxs := core.MonthTransactions(transactions, ref)
	spending := core.SpendingByCategory(monthTxs, categories)

	spentByCategory := make(map[string]core.Money, len(spending))
	for _, s := range spending {
		spentByCategory[s.CategoryID] = s.Amount
	}

	var lines []BudgetLine
	for _, b := range budgets {
		if b.Year != year || b.Month != month {
			continue
		}
		spent := spentByCategory[b.CategoryID]
		lines = append(lines, BudgetLine{
			CategoryID:   b.CategoryID,
			CategoryName: core.CategoryName(b.CategoryID, categories),
			Budget:       b.Amount,
			Spent:        spent,
			Usage:        core.BudgetUsage(spent, b.Amount),
		})
	}

	return MonthReport{
		Year:          year,
		Month:         month,
		TotalIncome:   core.TotalIncome(monthTxs),
		TotalExpenses: core.TotalExpenses(monthTxs),
		NetIncome:     core.Balance(monthTxs),
		Spending:      spending,
		Budgets:       lines,
	}
}

// Title renders the report period, e.g. "April 2025".
func (r MonthReport) Title() string {
	return fmt.Sprintf("%s %d", time.Month(r.Month).String(), r.Year)
}

// Rows renders the report as spreadsheet rows: the three totals under a
// Category/Amount header, a blank row, then the per-category expense
// breakdown.
func (r MonthReport) Rows() [][]string {
	rows := [][]string{
		{"Category", "Amount"},
		{"Total Income", r.TotalIncome.String()},
		{"Total Expenses", r.TotalExpenses.String()},
		{"Net Income", r.NetIncome.String()},
		{""},
		{"Expenses by Category"},
	}
	for _, s := range r.Spending {
		rows = append(rows, []string{s.Name, s.Amount.String()})
	}
	return rows
}

// WriteCSV streams the report rows to w in CSV form.
func WriteCSV(w io.Writer, r MonthReport) error {
	cw := csv.NewWriter(w)
	for _, row := range r.Rows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
