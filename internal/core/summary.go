package core

import "sort"

// CategorySpending is the expense total for one category within a set of
// transactions, with its share of all expenses in percent.
type CategorySpending struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Amount     Money   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// TotalIncome sums the amounts of all income transactions.
func TotalIncome(transactions []Transaction) Money {
	var total Money
	for _, t := range transactions {
		if t.Type == Income {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalExpenses sums the amounts of all expense transactions.
func TotalExpenses(transactions []Transaction) Money {
	var total Money
	for _, t := range transactions {
		if t.Type == Expense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Balance is income minus expenses. It may be negative.
func Balance(transactions []Transaction) Money {
	return TotalIncome(transactions).Sub(TotalExpenses(transactions))
}

// MonthTransactions returns the transactions whose date falls in the same
// UTC calendar month and year as ref.
func MonthTransactions(transactions []Transaction, ref Date) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if t.Date.SameMonth(ref) {
			out = append(out, t)
		}
	}
	return out
}

// SpendingByCategory groups expense transactions by category id and returns
// per-category totals with their percentage of all expenses, ordered by
// amount descending. Ties keep first-seen order. A category id with no
// matching Category resolves to the Uncategorized sentinel.
func SpendingByCategory(transactions []Transaction, categories []Category) []CategorySpending {
	totals := make(map[string]Money)
	var order []string
	for _, t := range transactions {
		if t.Type != Expense {
			continue
		}
		if _, seen := totals[t.CategoryID]; !seen {
			order = append(order, t.CategoryID)
		}
		totals[t.CategoryID] = totals[t.CategoryID].Add(t.Amount)
	}

	allExpenses := TotalExpenses(transactions)

	out := make([]CategorySpending, 0, len(order))
	for _, id := range order {
		amount := totals[id]
		var pct float64
		if allExpenses.Cents > 0 {
			pct = float64(amount.Cents) / float64(allExpenses.Cents) * 100
		}
		out = append(out, CategorySpending{
			CategoryID: id,
			Name:       CategoryName(id, categories),
			Color:      CategoryColor(id, categories),
			Amount:     amount,
			Percentage: pct,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// BudgetUsage reports spent as a percentage of the budget ceiling, capped at
// 100. A non-positive budget yields 0. The cap applies to the reported
// percentage only; the underlying spent amount is untouched.
func BudgetUsage(spent, budget Money) float64 {
	if budget.Cents <= 0 {
		return 0
	}
	pct := float64(spent.Cents) / float64(budget.Cents) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// CategoryName resolves a category id to its display name, falling back to
// the Uncategorized sentinel when the reference is missing.
func CategoryName(categoryID string, categories []Category) string {
	for _, c := range categories {
		if c.ID == categoryID {
			return c.Name
		}
	}
	return UncategorizedName
}

// CategoryColor resolves a category id to its display color, falling back to
// the default color when the reference is missing.
func CategoryColor(categoryID string, categories []Category) string {
	for _, c := range categories {
		if c.ID == categoryID {
			return c.Color
		}
	}
	return DefaultCategoryColor
}
