package finance

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/blob"
	"fintrack/internal/core"
)

// Collections is a read-only view of the persisted snapshots, used by
// consumers that must not seed or mutate (the report sync worker).
type Collections struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Budgets      []core.Budget
}

// LoadCollections reads the three snapshots without seeding. Missing
// slots load as empty collections.
func LoadCollections(ctx context.Context, blobs blob.Store) (Collections, error) {
	var c Collections
	if err := hydrate(ctx, blobs, blob.SlotTransactions, &c.Transactions); err != nil && !errors.Is(err, blob.ErrNoSnapshot) {
		return Collections{}, fmt.Errorf("load transactions: %w", err)
	}
	if err := hydrate(ctx, blobs, blob.SlotCategories, &c.Categories); err != nil && !errors.Is(err, blob.ErrNoSnapshot) {
		return Collections{}, fmt.Errorf("load categories: %w", err)
	}
	if err := hydrate(ctx, blobs, blob.SlotBudgets, &c.Budgets); err != nil && !errors.Is(err, blob.ErrNoSnapshot) {
		return Collections{}, fmt.Errorf("load budgets: %w", err)
	}
	return c, nil
}
