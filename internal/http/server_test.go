package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	matcher, err := services.NewRuleMatcher(store)
	if err != nil {
		t.Fatalf("create rule matcher: %v", err)
	}
	t.Cleanup(func() {
		matcher.Close()
		store.Close()
	})

	txs := services.NewTransactionService(store, nil, matcher)
	insightsSvc := insights.NewService(store, store)
	logger := log.New(log.DefaultConfig())

	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 10000
	srv := NewServer(cfg, store, txs, insightsSvc, matcher, logger)
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestOwnerHeaderRequired(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/transactions", "/api/insights", "/api/stats", "/api/budgets"} {
		rec := doRequest(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without owner: got status %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz: got status %d, want 200", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz: got status %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	rec := doRequest(t, srv, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var m metricsResponse
	decodeInto(t, rec, &m)
	if m.TotalRequests < 2 {
		t.Errorf("TotalRequests = %d, want at least 2", m.TotalRequests)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", owner, transactionRequest{
		AmountCents: 4250,
		Category:    "Food",
		Description: "Groceries",
		OccurredAt:  time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, body %s", rec.Code, rec.Body.String())
	}
	var created transactionResponse
	decodeInto(t, rec, &created)
	if created.ID == "" {
		t.Fatal("create: expected a generated ID")
	}
	if created.AmountCents != 4250 || created.Category != "Food" {
		t.Errorf("create: got %+v", created)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got status %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/transactions/"+created.ID, owner, transactionRequest{
		AmountCents: 5000,
		Category:    "Food",
		Description: "Groceries and snacks",
		OccurredAt:  time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got status %d, want 404", rec.Code)
	}
}

func TestTransactionOwnersIsolated(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "alice", transactionRequest{
		AmountCents: 1000,
		Category:    "Food",
		Description: "Lunch",
		OccurredAt:  time.Now().UTC(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d", rec.Code)
	}
	var created transactionResponse
	decodeInto(t, rec, &created)

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, "bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get: got status %d, want 404", rec.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "user-1", transactionRequest{
		AmountCents: 0,
		Category:    "Food",
		Description: "Free lunch",
		OccurredAt:  time.Now().UTC(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/transactions", "user-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body: got status %d, want 400", rec.Code)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	seed := []transactionRequest{
		{AmountCents: 2000, Category: "Food", Description: "Groceries", OccurredAt: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)},
		{AmountCents: 8000, Category: "Food", Description: "Restaurant", OccurredAt: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tx := range seed {
		if rec := doRequest(t, srv, http.MethodPost, "/api/transactions", owner, tx); rec.Code != http.StatusCreated {
			t.Fatalf("seed: got status %d", rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/insights?startDate=2025-02-01&endDate=2025-03-31", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp insights.InsightsResponse
	decodeInto(t, rec, &resp)

	if resp.TotalCurrentPeriod != 10000 {
		t.Errorf("TotalCurrentPeriod = %d, want 10000", resp.TotalCurrentPeriod)
	}
	if len(resp.PeriodBuckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(resp.PeriodBuckets))
	}
	if len(resp.CategoryTrends) == 0 {
		t.Error("expected at least one category trend")
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	seed := []transactionRequest{
		{AmountCents: 2000, Category: "Food", Description: "Groceries", OccurredAt: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)},
		{AmountCents: 8000, Category: "Food", Description: "Restaurant", OccurredAt: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
		{AmountCents: 3000, Category: "Transport", Description: "Train pass", OccurredAt: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tx := range seed {
		if rec := doRequest(t, srv, http.MethodPost, "/api/transactions", owner, tx); rec.Code != http.StatusCreated {
			t.Fatalf("seed: got status %d", rec.Code)
		}
	}
	other := transactionRequest{AmountCents: 99900, Category: "Food", Description: "Someone else", OccurredAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	if rec := doRequest(t, srv, http.MethodPost, "/api/transactions", "user-2", other); rec.Code != http.StatusCreated {
		t.Fatalf("seed other owner: got status %d", rec.Code)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp statsResponse
	decodeInto(t, rec, &resp)

	if resp.TotalCents != 13000 {
		t.Errorf("TotalCents = %d, want 13000", resp.TotalCents)
	}
	wantCategories := []categoryTotalResponse{
		{Category: "Food", TotalCents: 10000},
		{Category: "Transport", TotalCents: 3000},
	}
	if len(resp.ByCategory) != len(wantCategories) {
		t.Fatalf("got %d categories, want %d", len(resp.ByCategory), len(wantCategories))
	}
	for i, want := range wantCategories {
		if resp.ByCategory[i] != want {
			t.Errorf("ByCategory[%d] = %+v, want %+v", i, resp.ByCategory[i], want)
		}
	}
	wantMonthly := []monthlyTotalResponse{
		{Month: "2025-02", TotalCents: 2000},
		{Month: "2025-03", TotalCents: 11000},
	}
	if len(resp.Monthly) != len(wantMonthly) {
		t.Fatalf("got %d months, want %d", len(resp.Monthly), len(wantMonthly))
	}
	for i, want := range wantMonthly {
		if resp.Monthly[i] != want {
			t.Errorf("Monthly[%d] = %+v, want %+v", i, resp.Monthly[i], want)
		}
	}
}

func TestInsightsValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/insights?granularity=week", "user-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	var resp errorResponse
	decodeInto(t, rec, &resp)
	if resp.Field != "granularity" {
		t.Errorf("Field = %q, want granularity", resp.Field)
	}
}

func TestFinancialHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/financial-health", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var score insights.FinancialHealthScore
	decodeInto(t, rec, &score)
	if score.Overall < 0 || score.Overall > 100 {
		t.Errorf("Overall = %d, want 0..100", score.Overall)
	}
	if score.Grade == "" {
		t.Error("expected a grade")
	}
}

func TestBudgetsWithSpending(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	rec := doRequest(t, srv, http.MethodPost, "/api/budgets", owner, budgetRequest{
		Category:   "Food",
		LimitCents: 50000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: got status %d, body %s", rec.Code, rec.Body.String())
	}

	now := time.Now().UTC()
	rec = doRequest(t, srv, http.MethodPost, "/api/transactions", owner, transactionRequest{
		AmountCents: 12500,
		Category:    "Food",
		Description: "Groceries",
		OccurredAt:  now,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed transaction: got status %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/budgets/with-spending", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var budgets []budgetWithSpendingResponse
	decodeInto(t, rec, &budgets)
	if len(budgets) != 1 {
		t.Fatalf("got %d budgets, want 1", len(budgets))
	}
	if budgets[0].SpentCents != 12500 {
		t.Errorf("SpentCents = %d, want 12500", budgets[0].SpentCents)
	}
	if budgets[0].Utilization != 25 {
		t.Errorf("Utilization = %v, want 25", budgets[0].Utilization)
	}
}

func TestUpcomingBills(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"
	now := time.Now().UTC()

	bills := []billReminderRequest{
		{Name: "Electricity", AmountCents: 9000, DueDate: now.AddDate(0, 0, 10)},
		{Name: "Insurance", AmountCents: 30000, DueDate: now.AddDate(0, 0, 60)},
		{Name: "Rent", AmountCents: 80000, DueDate: now.AddDate(0, 0, 5), IsPaid: true},
	}
	for _, b := range bills {
		if rec := doRequest(t, srv, http.MethodPost, "/api/bill-reminders", owner, b); rec.Code != http.StatusCreated {
			t.Fatalf("create bill %s: got status %d", b.Name, rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/bill-reminders/upcoming", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var upcoming []billReminderResponse
	decodeInto(t, rec, &upcoming)
	if len(upcoming) != 1 {
		t.Fatalf("got %d upcoming bills, want 1", len(upcoming))
	}
	if upcoming[0].Name != "Electricity" {
		t.Errorf("upcoming bill = %q, want Electricity", upcoming[0].Name)
	}
}

func TestCategoryRuleMatchPreview(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	rec := doRequest(t, srv, http.MethodPost, "/api/category-rules", owner, categoryRuleRequest{
		Pattern:  "netflix",
		Category: "Entertainment",
		Priority: 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule: got status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/category-rules/match", owner, matchRequest{
		Description: "Netflix subscription",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("match: got status %d", rec.Code)
	}
	var matched matchResponse
	decodeInto(t, rec, &matched)
	if !matched.Matched || matched.Category != "Entertainment" {
		t.Errorf("match = %+v, want Entertainment", matched)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/category-rules/match", owner, matchRequest{
		Description: "Grocery store",
	})
	decodeInto(t, rec, &matched)
	if matched.Matched {
		t.Errorf("expected no match, got %+v", matched)
	}
}

func TestRecurringTransactionEndpoints(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	rec := doRequest(t, srv, http.MethodPost, "/api/recurring-transactions", owner, recurringRequest{
		Description: "Rent",
		AmountCents: 80000,
		Category:    "Housing",
		Every:       "monthly",
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, body %s", rec.Code, rec.Body.String())
	}
	var created recurringResponse
	decodeInto(t, rec, &created)
	if created.EndDate != nil {
		t.Errorf("expected open-ended template, got end date %v", created.EndDate)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/recurring-transactions", owner, recurringRequest{
		Description: "Bad cadence",
		AmountCents: 1000,
		Category:    "Misc",
		Every:       "fortnightly",
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid cadence: got status %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/recurring-transactions", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d", rec.Code)
	}
	var templates []recurringResponse
	decodeInto(t, rec, &templates)
	if len(templates) != 1 {
		t.Errorf("got %d templates, want 1", len(templates))
	}
}

func TestTransactionListDefaultsToCurrentMonth(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"
	now := time.Now().UTC()

	inMonth := transactionRequest{
		AmountCents: 1500,
		Category:    "Food",
		Description: "This month",
		OccurredAt:  time.Date(now.Year(), now.Month(), 1, 8, 0, 0, 0, time.UTC),
	}
	lastYear := transactionRequest{
		AmountCents: 9900,
		Category:    "Food",
		Description: "Long ago",
		OccurredAt:  now.AddDate(-1, 0, 0),
	}
	for _, tx := range []transactionRequest{inMonth, lastYear} {
		if rec := doRequest(t, srv, http.MethodPost, "/api/transactions", owner, tx); rec.Code != http.StatusCreated {
			t.Fatalf("seed: got status %d", rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d", rec.Code)
	}
	var txs []transactionResponse
	decodeInto(t, rec, &txs)
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Description != "This month" {
		t.Errorf("listed %q, want the current month entry", txs[0].Description)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions?from=bad-date", owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad from date: got status %d, want 400", rec.Code)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	matcher, err := services.NewRuleMatcher(store)
	if err != nil {
		t.Fatalf("create rule matcher: %v", err)
	}
	t.Cleanup(matcher.Close)

	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 3
	srv := NewServer(cfg, store,
		services.NewTransactionService(store, nil, matcher),
		insights.NewService(store, store),
		matcher,
		log.New(log.DefaultConfig()))
	t.Cleanup(srv.limiter.Stop)

	var last int
	for i := 0; i < 5; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("got status %d after burst, want %d", last, http.StatusTooManyRequests)
	}

	rl := srv.limiter.GetMetrics()
	if rl.RejectedRequests != 2 {
		t.Errorf("RejectedRequests = %d, want 2", rl.RejectedRequests)
	}
	if rl.TrackedClients != 1 {
		t.Errorf("TrackedClients = %d, want 1", rl.TrackedClients)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestCustomCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	owner := "user-1"

	rec := doRequest(t, srv, http.MethodPost, "/api/custom-categories", owner, customCategoryRequest{
		Name:  "Hobby",
		Color: "#33cc66",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d", rec.Code)
	}
	var created customCategoryResponse
	decodeInto(t, rec, &created)

	rec = doRequest(t, srv, http.MethodGet, "/api/custom-categories", owner, nil)
	var categories []customCategoryResponse
	decodeInto(t, rec, &categories)
	if len(categories) != 1 || categories[0].Name != "Hobby" {
		t.Fatalf("got %+v, want one Hobby category", categories)
	}

	rec = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/custom-categories/%s", created.ID), owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d", rec.Code)
	}
}
