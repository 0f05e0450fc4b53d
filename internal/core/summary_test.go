package core

import (
	"math"
	"testing"
)

func tx(id, title string, cents int64, t TransactionType, categoryID string, date Date) Transaction {
	return Transaction{ID: id, Title: title, Amount: Money{Cents: cents}, Type: t, CategoryID: categoryID, Date: date}
}

func TestTotals(t *testing.T) {
	date := NewDate(2025, 4, 10)
	txs := []Transaction{
		tx("1", "salary", 10000, Income, "a", date),
		tx("2", "groceries", 4000, Expense, "a", date),
		tx("3", "cinema", 1000, Expense, "b", date),
	}

	if got := TotalIncome(txs); got.Cents != 10000 {
		t.Fatalf("TotalIncome = %d, want 10000", got.Cents)
	}
	if got := TotalExpenses(txs); got.Cents != 5000 {
		t.Fatalf("TotalExpenses = %d, want 5000", got.Cents)
	}
	if got := Balance(txs); got.Cents != 5000 {
		t.Fatalf("Balance = %d, want 5000", got.Cents)
	}
}

func TestBalanceCanBeNegative(t *testing.T) {
	date := NewDate(2025, 4, 10)
	txs := []Transaction{
		tx("1", "salary", 1000, Income, "a", date),
		tx("2", "rent", 4000, Expense, "b", date),
	}
	if got := Balance(txs); got.Cents != -3000 {
		t.Fatalf("Balance = %d, want -3000", got.Cents)
	}
}

func TestMonthTransactions(t *testing.T) {
	txs := []Transaction{
		tx("1", "in april", 100, Expense, "a", NewDate(2025, 4, 1)),
		tx("2", "also april", 100, Expense, "a", NewDate(2025, 4, 30)),
		tx("3", "march", 100, Expense, "a", NewDate(2025, 3, 31)),
		tx("4", "april last year", 100, Expense, "a", NewDate(2024, 4, 15)),
	}

	got := MonthTransactions(txs, NewDate(2025, 4, 12))
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("got ids %s,%s, want 1,2", got[0].ID, got[1].ID)
	}
}

func TestSpendingByCategory(t *testing.T) {
	date := NewDate(2025, 4, 10)
	cats := []Category{
		{ID: "a", Name: "Food", Color: "#FF5722"},
		{ID: "b", Name: "Entertainment", Color: "#9C27B0"},
	}
	txs := []Transaction{
		tx("1", "salary", 10000, Income, "a", date),
		tx("2", "groceries", 4000, Expense, "a", date),
		tx("3", "cinema", 1000, Expense, "b", date),
	}

	got := SpendingByCategory(txs, cats)
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2", len(got))
	}
	if got[0].Name != "Food" || got[0].Amount.Cents != 4000 {
		t.Fatalf("first entry = %s/%d, want Food/4000", got[0].Name, got[0].Amount.Cents)
	}
	if math.Abs(got[0].Percentage-80) > 1e-9 {
		t.Fatalf("Food percentage = %v, want 80", got[0].Percentage)
	}
	if got[1].Name != "Entertainment" || math.Abs(got[1].Percentage-20) > 1e-9 {
		t.Fatalf("second entry = %s/%v, want Entertainment/20", got[1].Name, got[1].Percentage)
	}
}

func TestSpendingByCategoryOrphanReference(t *testing.T) {
	date := NewDate(2025, 4, 10)
	txs := []Transaction{
		tx("1", "mystery", 500, Expense, "missing", date),
	}

	got := SpendingByCategory(txs, nil)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Name != UncategorizedName {
		t.Fatalf("name = %q, want %q", got[0].Name, UncategorizedName)
	}
	if got[0].Color != DefaultCategoryColor {
		t.Fatalf("color = %q, want %q", got[0].Color, DefaultCategoryColor)
	}
	if got[0].CategoryID != "missing" {
		t.Fatalf("categoryID = %q, want %q", got[0].CategoryID, "missing")
	}
}

func TestSpendingByCategoryNoExpenses(t *testing.T) {
	date := NewDate(2025, 4, 10)
	txs := []Transaction{
		tx("1", "salary", 10000, Income, "a", date),
	}
	if got := SpendingByCategory(txs, nil); len(got) != 0 {
		t.Fatalf("got %d entries, want 0", len(got))
	}
}

func TestBudgetUsage(t *testing.T) {
	tests := []struct {
		name   string
		spent  int64
		budget int64
		want   float64
	}{
		{"under budget", 5000, 10000, 50},
		{"at budget", 10000, 10000, 100},
		{"over budget capped", 15000, 10000, 100},
		{"zero budget", 5000, 0, 0},
		{"negative budget", 5000, -100, 0},
		{"nothing spent", 0, 10000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BudgetUsage(Money{Cents: tt.spent}, Money{Cents: tt.budget})
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("BudgetUsage(%d, %d) = %v, want %v", tt.spent, tt.budget, got, tt.want)
			}
		})
	}
}

func TestCategoryLookupFallbacks(t *testing.T) {
	cats := []Category{{ID: "a", Name: "Food", Color: "#FF5722"}}

	if got := CategoryName("a", cats); got != "Food" {
		t.Fatalf("CategoryName = %q, want Food", got)
	}
	if got := CategoryName("nope", cats); got != UncategorizedName {
		t.Fatalf("CategoryName fallback = %q, want %q", got, UncategorizedName)
	}
	if got := CategoryColor("nope", cats); got != DefaultCategoryColor {
		t.Fatalf("CategoryColor fallback = %q, want %q", got, DefaultCategoryColor)
	}
}
