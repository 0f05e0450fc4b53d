package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/badoux/checkmail"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

const maxRequestBody = 1 << 20 // 1 MiB

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req signUpRequest) validate() error {
	if strings.TrimSpace(req.Username) == "" {
		return errors.New("username is required")
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return errors.New("invalid email address")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req signInRequest) validate() error {
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return errors.New("invalid email address")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// Amounts arrive as decimal strings ("85.75") and are parsed to cents;
// dates as ISO calendar days ("2025-04-15").

type transactionRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	CategoryID string `json:"categoryId"`
	Notes      string `json:"notes"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	var date core.Date
	if err := date.UnmarshalJSON([]byte(strconv.Quote(req.Date))); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Title:      strings.TrimSpace(req.Title),
		Amount:     amount,
		Date:       date,
		Type:       core.TransactionType(req.Type),
		CategoryID: req.CategoryID,
		Notes:      req.Notes,
	}, nil
}

type transactionPatchRequest struct {
	Title      *string `json:"title"`
	Amount     *string `json:"amount"`
	Date       *string `json:"date"`
	Type       *string `json:"type"`
	CategoryID *string `json:"categoryId"`
	Notes      *string `json:"notes"`
}

func (req transactionPatchRequest) toPatch() (finance.TransactionPatch, error) {
	var patch finance.TransactionPatch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return finance.TransactionPatch{}, err
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		var date core.Date
		if err := date.UnmarshalJSON([]byte(strconv.Quote(*req.Date))); err != nil {
			return finance.TransactionPatch{}, err
		}
		patch.Date = &date
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	patch.CategoryID = req.CategoryID
	patch.Notes = req.Notes
	return patch, nil
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (req categoryRequest) toCategory() core.Category {
	return core.Category{
		Name:  strings.TrimSpace(req.Name),
		Color: strings.TrimSpace(req.Color),
		Icon:  strings.TrimSpace(req.Icon),
	}
}

type categoryPatchRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (req categoryPatchRequest) toPatch() finance.CategoryPatch {
	return finance.CategoryPatch{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	}
}

type budgetRequest struct {
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Amount     string `json:"amount"`
	CategoryID string `json:"categoryId"`
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Month:      req.Month,
		Year:       req.Year,
		Amount:     amount,
		CategoryID: req.CategoryID,
	}, nil
}

type budgetPatchRequest struct {
	Month      *int    `json:"month"`
	Year       *int    `json:"year"`
	Amount     *string `json:"amount"`
	CategoryID *string `json:"categoryId"`
}

func (req budgetPatchRequest) toPatch() (finance.BudgetPatch, error) {
	var patch finance.BudgetPatch
	patch.Month = req.Month
	patch.Year = req.Year
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return finance.BudgetPatch{}, err
		}
		patch.Amount = &amount
	}
	patch.CategoryID = req.CategoryID
	return patch, nil
}

// parsePeriod reads year and month query parameters, defaulting to the
// current UTC month when absent.
func parsePeriod(r *http.Request) (year, month int, err error) {
	now := time.Now().UTC()
	year, month = now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		month, err = strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
	}
	return year, month, nil
}
