package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/backend/memory"
	"fintrack/internal/blob"
	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/session"
)

func newTestServer(t *testing.T) (*Server, *memory.Backend) {
	t.Helper()
	ctx := context.Background()

	be := memory.New()
	sessions, err := session.New(ctx, be, be)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(sessions.Close)

	fin, err := finance.NewStore(ctx, blob.NewMemory(), nil)
	if err != nil {
		t.Fatalf("finance.NewStore: %v", err)
	}

	srv := NewServer(":0", fin, sessions)
	t.Cleanup(func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return srv, be
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, srv *Server) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "ada",
		"email":    "ada@example.com",
		"password": "hunter2222",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSignUpSignOutFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/auth/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d", rec.Code)
	}
	var sess sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if !sess.Authenticated || sess.User == nil || sess.User.Username != "ada" {
		t.Fatalf("session = %+v", sess)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/signout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("signout status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("after signout status = %d, want 401", rec.Code)
	}
}

func TestSignUpValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []map[string]string{
		{"username": "", "email": "a@b.com", "password": "hunter2222"},
		{"username": "ada", "email": "not-an-email", "password": "hunter2222"},
		{"username": "ada", "email": "a@b.com", "password": "short"},
	}
	for i, body := range tests {
		rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d status = %d, want 400", i, rec.Code)
		}
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	srv, be := newTestServer(t)
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter2222", true)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signin", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	srv, be := newTestServer(t)
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter2222", true)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "other", "email": "ada@example.com", "password": "hunter2222",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestTransactionCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]string{
		"title":      "Coffee",
		"amount":     "4.50",
		"date":       "2025-05-02",
		"type":       "expense",
		"categoryId": "1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.Amount.Cents != 450 {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/transactions/"+created.ID, map[string]string{
		"title": "Espresso",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	var updated core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Title != "Espresso" || updated.Amount.Cents != 450 {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateTransactionBadAmount(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]string{
		"title":      "Refund",
		"amount":     "-5.00",
		"date":       "2025-05-02",
		"type":       "expense",
		"categoryId": "1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSummaryReflectsMutations(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	// Seed data lives in April 2025.
	rec := doJSON(t, srv, http.MethodGet, "/api/summary?year=2025&month=4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var before summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode summary: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]string{
		"title":      "Extra expense",
		"amount":     "10.00",
		"date":       "2025-04-20",
		"type":       "expense",
		"categoryId": "1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	// The mutation purges the cache, so the summary must change.
	rec = doJSON(t, srv, http.MethodGet, "/api/summary?year=2025&month=4", nil)
	var after summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if after.TotalExpenses.Cents != before.TotalExpenses.Cents+1000 {
		t.Fatalf("expenses before=%d after=%d, want +1000", before.TotalExpenses.Cents, after.TotalExpenses.Cents)
	}
}

func TestSummaryRejectsBadPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/summary?year=2025&month=13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMonthReportCSV(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/reports/month.csv?year=2025&month=4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "Category,Amount\n") {
		t.Fatalf("unexpected CSV header: %q", body[:min(len(body), 40)])
	}
	for _, want := range []string{"Total Income,", "Total Expenses,", "Net Income,", "Expenses by Category"} {
		if !strings.Contains(body, want) {
			t.Fatalf("CSV missing %q:\n%s", want, body)
		}
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"month": 5, "year": 2025, "amount": "200.00", "categoryId": "1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created core.Budget
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/budgets/"+created.ID, map[string]any{"month": 13})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid month status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/budgets/nope", map[string]any{"month": 6})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id status = %d, want 404", rec.Code)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	signUp(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/api/categories",
		strings.NewReader(`{"name":"Pets","surprise":true}`))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
