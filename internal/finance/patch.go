package finance

import "fintrack/internal/core"

// TransactionPatch carries the fields an update may change. Nil fields
// keep the stored value.
type TransactionPatch struct {
	Title      *string               `json:"title,omitempty"`
	Amount     *core.Money           `json:"amount,omitempty"`
	Date       *core.Date            `json:"date,omitempty"`
	Type       *core.TransactionType `json:"type,omitempty"`
	CategoryID *string               `json:"categoryId,omitempty"`
	Notes      *string               `json:"notes,omitempty"`
}

func (p TransactionPatch) apply(t core.Transaction) core.Transaction {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// CategoryPatch carries the fields a category update may change.
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

func (p CategoryPatch) apply(c core.Category) core.Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	return c
}

// BudgetPatch carries the fields a budget update may change.
type BudgetPatch struct {
	Month      *int        `json:"month,omitempty"`
	Year       *int        `json:"year,omitempty"`
	Amount     *core.Money `json:"amount,omitempty"`
	CategoryID *string     `json:"categoryId,omitempty"`
}

func (p BudgetPatch) apply(b core.Budget) core.Budget {
	if p.Month != nil {
		b.Month = *p.Month
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		b.CategoryID = *p.CategoryID
	}
	return b
}
