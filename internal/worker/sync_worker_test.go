package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/blob"
	"fintrack/internal/core"
	memsheets "fintrack/internal/sheets/memory"
)

func seedBlobStore(t *testing.T) *blob.Memory {
	t.Helper()
	ctx := context.Background()
	blobs := blob.NewMemory()

	txs := []core.Transaction{
		{ID: "1", Title: "Salary", Amount: core.Money{Cents: 350000}, Date: core.NewDate(2025, 4, 1), Type: core.Income, CategoryID: "7"},
		{ID: "2", Title: "Rent", Amount: core.Money{Cents: 120000}, Date: core.NewDate(2025, 4, 5), Type: core.Expense, CategoryID: "3"},
	}
	cats := []core.Category{{ID: "3", Name: "Housing", Color: "#4CAF50"}}

	for slot, collection := range map[string]any{
		blob.SlotTransactions: txs,
		blob.SlotCategories:   cats,
		blob.SlotBudgets:      []core.Budget{},
	} {
		data, err := blob.EncodeSnapshot(collection)
		if err != nil {
			t.Fatalf("encode %s: %v", slot, err)
		}
		if err := blobs.Put(ctx, slot, data); err != nil {
			t.Fatalf("put %s: %v", slot, err)
		}
	}
	return blobs
}

func TestHandleSyncMessage(t *testing.T) {
	blobs := seedBlobStore(t)
	writer := memsheets.New()
	w := NewSyncWorker(blobs, writer)

	msg := amqp.NewMonthSyncMessage(2025, 4)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	reports := writer.Reports()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if r.Year != 2025 || r.Month != 4 {
		t.Fatalf("report period = %d-%d, want 2025-4", r.Year, r.Month)
	}
	if r.TotalIncome.Cents != 350000 || r.TotalExpenses.Cents != 120000 {
		t.Fatalf("report totals = %+v", r)
	}
}

func TestHandleSyncMessageInvalidMonthDropped(t *testing.T) {
	blobs := seedBlobStore(t)
	writer := memsheets.New()
	w := NewSyncWorker(blobs, writer)

	// Invalid period is dropped without writing and without error, so the
	// delivery is acked instead of requeued forever.
	if err := w.HandleSyncMessage(context.Background(), amqp.NewMonthSyncMessage(2025, 13)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if got := len(writer.Reports()); got != 0 {
		t.Fatalf("got %d reports, want 0", got)
	}
}

func TestHandleSyncMessageWriterFailure(t *testing.T) {
	blobs := seedBlobStore(t)
	writer := memsheets.New()
	writer.FailWrites(errors.New("quota exceeded"))
	w := NewSyncWorker(blobs, writer)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewMonthSyncMessage(2025, 4)); err == nil {
		t.Fatal("expected error when the sheet writer fails")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	blobs := seedBlobStore(t)
	writer := memsheets.New()
	w := NewSyncWorker(blobs, writer)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if got := len(writer.Reports()); got != 1 {
		t.Fatalf("got %d reports, want 1", got)
	}
}
