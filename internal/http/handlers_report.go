package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

type budgetStatus struct {
	BudgetID     string     `json:"budgetId"`
	CategoryID   string     `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Budget       core.Money `json:"budget"`
	Spent        core.Money `json:"spent"`
	Usage        float64    `json:"usage"`
}

type summaryResponse struct {
	Year          int                     `json:"year"`
	Month         int                     `json:"month"`
	TotalIncome   core.Money              `json:"totalIncome"`
	TotalExpenses core.Money              `json:"totalExpenses"`
	Balance       core.Money              `json:"balance"`
	Spending      []core.CategorySpending `json:"spending"`
	Budgets       []budgetStatus          `json:"budgets"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%04d-%02d", year, month)
	if cached, ok := s.summaryCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Summary cache hit", "key", key)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resp := s.buildSummary(year, month)
	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildSummary(year, month int) summaryResponse {
	ref := core.NewDate(year, month, 1)
	categories := s.finance.Categories()
	monthTxs := core.MonthTransactions(s.finance.Transactions(), ref)

	spentByCategory := make(map[string]core.Money)
	for _, t := range monthTxs {
		if t.Type == core.Expense {
			spentByCategory[t.CategoryID] = spentByCategory[t.CategoryID].Add(t.Amount)
		}
	}

	var budgets []budgetStatus
	for _, b := range s.finance.Budgets() {
		if b.Year != year || b.Month != month {
			continue
		}
		spent := spentByCategory[b.CategoryID]
		budgets = append(budgets, budgetStatus{
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: core.CategoryName(b.CategoryID, categories),
			Budget:       b.Amount,
			Spent:        spent,
			Usage:        core.BudgetUsage(spent, b.Amount),
		})
	}

	return summaryResponse{
		Year:          year,
		Month:         month,
		TotalIncome:   core.TotalIncome(monthTxs),
		TotalExpenses: core.TotalExpenses(monthTxs),
		Balance:       core.Balance(monthTxs),
		Spending:      core.SpendingByCategory(monthTxs, categories),
		Budgets:       budgets,
	}
}

func (s *Server) handleMonthReportCSV(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rep := report.BuildMonth(s.finance.Transactions(), s.finance.Categories(), s.finance.Budgets(), year, month)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("report-%04d-%02d.csv", year, month)))
	if err := report.WriteCSV(w, rep); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write CSV report", "error", err,
			"year", year, "month", month)
	}
}
