// Package finance owns the three mutable collections (transactions,
// categories, budgets) for the active session. Every mutation rewrites
// the corresponding snapshots in the blob store; a failed write rolls the
// in-memory change back so memory and disk never diverge.
package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/blob"
	"fintrack/internal/core"
)

// Notifier receives a hint that a month's data changed, used to drive the
// optional report sync pipeline. Implementations must not block; failures
// are logged, never surfaced to the mutating caller.
type Notifier interface {
	PublishMonthSync(ctx context.Context, year, month int) error
}

// Store serializes all public operations with an internal mutex; callers
// never need their own locking.
type Store struct {
	blobs    blob.Store
	notifier Notifier // optional

	mu           sync.Mutex
	transactions []core.Transaction
	categories   []core.Category
	budgets      []core.Budget
}

// NewStore hydrates the collections from the blob store. Empty slots are
// seeded with the demonstration dataset (persisted immediately so the
// next start is a plain load). notifier may be nil.
func NewStore(ctx context.Context, blobs blob.Store, notifier Notifier) (*Store, error) {
	s := &Store{blobs: blobs, notifier: notifier}

	seeded := false
	if err := hydrate(ctx, blobs, blob.SlotTransactions, &s.transactions); err != nil {
		if !errors.Is(err, blob.ErrNoSnapshot) {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		s.transactions = seedTransactions()
		seeded = true
	}
	if err := hydrate(ctx, blobs, blob.SlotCategories, &s.categories); err != nil {
		if !errors.Is(err, blob.ErrNoSnapshot) {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		s.categories = seedCategories()
		seeded = true
	}
	if err := hydrate(ctx, blobs, blob.SlotBudgets, &s.budgets); err != nil {
		if !errors.Is(err, blob.ErrNoSnapshot) {
			return nil, fmt.Errorf("load budgets: %w", err)
		}
		s.budgets = seedBudgets()
		seeded = true
	}

	if seeded {
		if err := s.persist(ctx); err != nil {
			return nil, fmt.Errorf("persist seed data: %w", err)
		}
		slog.Info("Seeded demonstration dataset",
			"transactions", len(s.transactions),
			"categories", len(s.categories),
			"budgets", len(s.budgets))
	}

	return s, nil
}

func hydrate[T any](ctx context.Context, blobs blob.Store, slot string, dst *[]T) error {
	data, err := blobs.Get(ctx, slot)
	if err != nil {
		return err
	}
	return blob.DecodeSnapshot(data, dst)
}

// Transactions returns a copy of the transaction collection.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// Categories returns a copy of the category collection.
func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

// Budgets returns a copy of the budget collection.
func (s *Store) Budgets() []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...)
}

// AddTransaction assigns a fresh id, appends and persists.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()

	s.mu.Lock()
	prev := s.transactions
	s.transactions = append(append([]core.Transaction(nil), prev...), t)
	if err := s.persist(ctx); err != nil {
		s.transactions = prev
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.mu.Unlock()

	s.notifyMonth(ctx, t.Date.Year(), t.Date.Month())
	return t, nil
}

// UpdateTransaction merges the patch into the transaction with the given
// id. Missing ids are reported as core.ErrNotFound rather than silently
// ignored.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	idx := indexByID(s.transactions, id, func(t core.Transaction) string { return t.ID })
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, core.ErrNotFound
	}

	updated := patch.apply(s.transactions[idx])
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}

	prev := s.transactions
	next := append([]core.Transaction(nil), prev...)
	oldDate := next[idx].Date
	next[idx] = updated
	s.transactions = next
	if err := s.persist(ctx); err != nil {
		s.transactions = prev
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.mu.Unlock()

	s.notifyMonth(ctx, updated.Date.Year(), updated.Date.Month())
	if !oldDate.SameMonth(updated.Date) {
		s.notifyMonth(ctx, oldDate.Year(), oldDate.Month())
	}
	return updated, nil
}

// DeleteTransaction removes the transaction with the given id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := indexByID(s.transactions, id, func(t core.Transaction) string { return t.ID })
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}

	prev := s.transactions
	removed := prev[idx]
	next := append([]core.Transaction(nil), prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.transactions = next
	if err := s.persist(ctx); err != nil {
		s.transactions = prev
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notifyMonth(ctx, removed.Date.Year(), removed.Date.Month())
	return nil
}

// AddCategory assigns a fresh id, appends and persists.
func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.categories
	s.categories = append(append([]core.Category(nil), prev...), c)
	if err := s.persist(ctx); err != nil {
		s.categories = prev
		return core.Category{}, err
	}
	return c, nil
}

// UpdateCategory merges the patch into the category with the given id.
func (s *Store) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexByID(s.categories, id, func(c core.Category) string { return c.ID })
	if idx < 0 {
		return core.Category{}, core.ErrNotFound
	}

	updated := patch.apply(s.categories[idx])
	if err := updated.Validate(); err != nil {
		return core.Category{}, err
	}

	prev := s.categories
	next := append([]core.Category(nil), prev...)
	next[idx] = updated
	s.categories = next
	if err := s.persist(ctx); err != nil {
		s.categories = prev
		return core.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes the category with the given id. Transactions and
// budgets referencing it are left untouched; aggregation renders them
// under the Uncategorized sentinel.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexByID(s.categories, id, func(c core.Category) string { return c.ID })
	if idx < 0 {
		return core.ErrNotFound
	}

	prev := s.categories
	next := append([]core.Category(nil), prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.categories = next
	if err := s.persist(ctx); err != nil {
		s.categories = prev
		return err
	}
	return nil
}

// AddBudget assigns a fresh id, appends and persists. One budget per
// category per month is the intended shape but is not enforced here.
func (s *Store) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.budgets
	s.budgets = append(append([]core.Budget(nil), prev...), b)
	if err := s.persist(ctx); err != nil {
		s.budgets = prev
		return core.Budget{}, err
	}
	return b, nil
}

// UpdateBudget merges the patch into the budget with the given id.
func (s *Store) UpdateBudget(ctx context.Context, id string, patch BudgetPatch) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexByID(s.budgets, id, func(b core.Budget) string { return b.ID })
	if idx < 0 {
		return core.Budget{}, core.ErrNotFound
	}

	updated := patch.apply(s.budgets[idx])
	if err := updated.Validate(); err != nil {
		return core.Budget{}, err
	}

	prev := s.budgets
	next := append([]core.Budget(nil), prev...)
	next[idx] = updated
	s.budgets = next
	if err := s.persist(ctx); err != nil {
		s.budgets = prev
		return core.Budget{}, err
	}
	return updated, nil
}

// DeleteBudget removes the budget with the given id.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexByID(s.budgets, id, func(b core.Budget) string { return b.ID })
	if idx < 0 {
		return core.ErrNotFound
	}

	prev := s.budgets
	next := append([]core.Budget(nil), prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.budgets = next
	if err := s.persist(ctx); err != nil {
		s.budgets = prev
		return err
	}
	return nil
}

// persist rewrites all three snapshots. There is no transactional
// grouping across slots; the first failed write aborts and is surfaced
// to the caller, who rolls back the in-memory change.
func (s *Store) persist(ctx context.Context) error {
	type slotData struct {
		slot       string
		collection any
	}
	for _, sd := range []slotData{
		{blob.SlotTransactions, s.transactions},
		{blob.SlotCategories, s.categories},
		{blob.SlotBudgets, s.budgets},
	} {
		data, err := blob.EncodeSnapshot(sd.collection)
		if err != nil {
			return fmt.Errorf("encode %s: %w", sd.slot, err)
		}
		if err := s.blobs.Put(ctx, sd.slot, data); err != nil {
			return fmt.Errorf("persist %s: %w", sd.slot, err)
		}
	}
	return nil
}

func (s *Store) notifyMonth(ctx context.Context, year, month int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishMonthSync(ctx, year, month); err != nil {
		slog.ErrorContext(ctx, "Failed to publish month sync message",
			"year", year, "month", month, "error", err)
	}
}

func indexByID[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}
