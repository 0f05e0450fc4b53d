package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/report"
)

// Store records reports in memory. It stands in for the Google Sheets
// writer in tests and local setups without credentials.
type Store struct {
	mu      sync.Mutex
	reports []report.MonthReport
	failErr error
}

func New() *Store {
	return &Store{}
}

// WriteMonthReport stores the report and returns a synthetic reference.
func (s *Store) WriteMonthReport(_ context.Context, r report.MonthReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns a copy of everything written so far.
func (s *Store) Reports() []report.MonthReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.MonthReport(nil), s.reports...)
}

// FailWrites makes subsequent writes return err. Pass nil to restore.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}
