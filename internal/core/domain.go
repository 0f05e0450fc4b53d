package core

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Sentinel category shown when a transaction references a category
// that no longer exists. Orphaned references are tolerated, never repaired.
const (
	UncategorizedName    = "Uncategorized"
	DefaultCategoryColor = "#607D8B"
)

type (
	TransactionType string

	// Date is a calendar date stored at UTC midnight. Month and year
	// comparisons use UTC calendar fields throughout.
	Date struct {
		time.Time
	}

	// Money is an amount in integer cents. Amounts carry no sign; the
	// cash-flow direction of a transaction comes from its Type alone.
	Money struct {
		Cents int64
	}

	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon,omitempty"`
	}

	Transaction struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Amount     Money           `json:"amount"`
		Date       Date            `json:"date"`
		Type       TransactionType `json:"type"`
		CategoryID string          `json:"categoryId"`
		Notes      string          `json:"notes,omitempty"`
	}

	Budget struct {
		ID         string `json:"id"`
		Month      int    `json:"month"`
		Year       int    `json:"year"`
		Amount     Money  `json:"amount"`
		CategoryID string `json:"categoryId"`
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyName     = errors.New("empty name")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// Year returns the calendar year.
func (d Date) Year() int { return d.Time.Year() }

// Month returns the calendar month, 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// SameMonth reports whether both dates fall in the same calendar month and year.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON emits the ISO calendar form, e.g. "2025-04-05".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m minus other. The result may be negative (e.g. a balance).
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// MarshalJSON emits the amount as integer cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	cents, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = cents
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1 {
		return ErrInvalidDate
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
