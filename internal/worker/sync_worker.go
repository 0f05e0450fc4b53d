// Package worker rebuilds month reports from the persisted snapshots and
// pushes them to the configured sheet writer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/blob"
	"fintrack/internal/finance"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/sheets"
)

// SyncWorker turns month sync messages into sheet writes. It reads the
// snapshots fresh on every message so a report always reflects the
// latest persisted state, even when several mutations collapsed into one
// delivery.
type SyncWorker struct {
	blobs  blob.Store
	writer sheets.ReportWriter
}

func NewSyncWorker(blobs blob.Store, writer sheets.ReportWriter) *SyncWorker {
	return &SyncWorker{
		blobs:  blobs,
		writer: writer,
	}
}

// HandleSyncMessage processes a single month sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MonthSyncMessage) error {
	slog.InfoContext(ctx, "Processing month sync message",
		applog.FieldYear, msg.Year,
		applog.FieldMonth, msg.Month)

	if msg.Month < 1 || msg.Month > 12 {
		// Drop rather than requeue; the message can never become valid.
		slog.WarnContext(ctx, "Dropping sync message with invalid month",
			applog.FieldYear, msg.Year, applog.FieldMonth, msg.Month)
		return nil
	}

	return w.syncMonth(ctx, msg.Year, msg.Month)
}

// StartupSyncCheck writes the current month's report once at worker
// startup. It recovers the common case of messages missed during worker
// downtime without replaying history.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	slog.InfoContext(ctx, "Running startup sync for current month",
		applog.FieldYear, year, applog.FieldMonth, month)

	if err := w.syncMonth(ctx, year, month); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncMonth(ctx context.Context, year, month int) error {
	cols, err := finance.LoadCollections(ctx, w.blobs)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}

	r := report.BuildMonth(cols.Transactions, cols.Categories, cols.Budgets, year, month)

	ref, err := w.writer.WriteMonthReport(ctx, r)
	if err != nil {
		return fmt.Errorf("write month report: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced month report",
		applog.FieldYear, year,
		applog.FieldMonth, month,
		applog.FieldSheetsRef, ref,
		"total_income_cents", r.TotalIncome.Cents,
		"total_expenses_cents", r.TotalExpenses.Cents)
	return nil
}
