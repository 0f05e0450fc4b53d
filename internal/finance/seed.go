package finance

import "fintrack/internal/core"

// Demonstration dataset written to empty blob slots on first start so the
// application is explorable before any real data exists.

func seedCategories() []core.Category {
	return []core.Category{
		{ID: "1", Name: "Food & Dining", Color: "#FF5722", Icon: "utensils"},
		{ID: "2", Name: "Transportation", Color: "#2196F3", Icon: "car"},
		{ID: "3", Name: "Housing", Color: "#4CAF50", Icon: "home"},
		{ID: "4", Name: "Entertainment", Color: "#9C27B0", Icon: "tv"},
		{ID: "5", Name: "Utilities", Color: "#FFC107", Icon: "zap"},
		{ID: "6", Name: "Healthcare", Color: "#E91E63", Icon: "heart"},
		{ID: "7", Name: "Salary", Color: "#3F51B5", Icon: "briefcase"},
		{ID: "8", Name: "Investments", Color: "#009688", Icon: "trending-up"},
		{ID: "9", Name: "Gifts", Color: "#795548", Icon: "gift"},
		{ID: "10", Name: "Other", Color: "#607D8B", Icon: "more-horizontal"},
	}
}

func seedTransactions() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Title: "Grocery Shopping", Amount: core.Money{Cents: 8575}, Date: core.NewDate(2025, 4, 15), Type: core.Expense, CategoryID: "1"},
		{ID: "2", Title: "Monthly Salary", Amount: core.Money{Cents: 350000}, Date: core.NewDate(2025, 4, 1), Type: core.Income, CategoryID: "7"},
		{ID: "3", Title: "Rent Payment", Amount: core.Money{Cents: 120000}, Date: core.NewDate(2025, 4, 5), Type: core.Expense, CategoryID: "3"},
		{ID: "4", Title: "Electric Bill", Amount: core.Money{Cents: 9540}, Date: core.NewDate(2025, 4, 10), Type: core.Expense, CategoryID: "5"},
		{ID: "5", Title: "Uber Ride", Amount: core.Money{Cents: 2450}, Date: core.NewDate(2025, 4, 12), Type: core.Expense, CategoryID: "2"},
		{ID: "6", Title: "Freelance Work", Amount: core.Money{Cents: 75000}, Date: core.NewDate(2025, 4, 20), Type: core.Income, CategoryID: "7"},
		{ID: "7", Title: "Movie Tickets", Amount: core.Money{Cents: 3200}, Date: core.NewDate(2025, 4, 18), Type: core.Expense, CategoryID: "4"},
	}
}

func seedBudgets() []core.Budget {
	return []core.Budget{
		{ID: "1", Month: 4, Year: 2025, Amount: core.Money{Cents: 50000}, CategoryID: "1"},
		{ID: "2", Month: 4, Year: 2025, Amount: core.Money{Cents: 15000}, CategoryID: "2"},
		{ID: "3", Month: 4, Year: 2025, Amount: core.Money{Cents: 130000}, CategoryID: "3"},
		{ID: "4", Month: 4, Year: 2025, Amount: core.Money{Cents: 10000}, CategoryID: "4"},
	}
}
