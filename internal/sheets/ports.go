package sheets

import (
	"context"

	"fintrack/internal/report"
)

// Ports for outbound report adapters.
type (
	// ReportWriter publishes a month report to an external sheet and
	// returns a reference to where it landed.
	ReportWriter interface {
		WriteMonthReport(ctx context.Context, r report.MonthReport) (ref string, err error)
	}
)
