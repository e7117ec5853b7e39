package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port              string
	RequestsPerMinute int
	TrustedProxies    []string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Port:              "8080",
		RequestsPerMinute: 60,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Server is the JSON API server. Every /api route is scoped to the owner
// identified by the X-User-ID header.
type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	logger     *log.Logger

	insights *insights.Service
	txs      *services.TransactionService
	matcher  *services.RuleMatcher
	store    *storage.SQLiteRepository

	shutdownOnce sync.Once
}

func NewServer(cfg Config, store *storage.SQLiteRepository, txs *services.TransactionService, insightsSvc *insights.Service, matcher *services.RuleMatcher, logger *log.Logger) *Server {
	if cfg.Port == "" {
		cfg = DefaultConfig()
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	clientIPs := security.NewClientIPResolver(cfg.TrustedProxies)

	s := &Server{
		limiter:  limiter,
		logger:   logger.WithComponent(log.ComponentHTTP),
		insights: insightsSvc,
		txs:      txs,
		matcher:  matcher,
		store:    store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /api/insights", s.owned(s.handleGetInsights))
	mux.Handle("GET /api/financial-health", s.owned(s.handleGetFinancialHealth))
	mux.Handle("GET /api/stats", s.owned(s.handleGetStats))

	mux.Handle("POST /api/transactions", s.owned(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions", s.owned(s.handleListTransactions))
	mux.Handle("GET /api/transactions/{id}", s.owned(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.owned(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.owned(s.handleDeleteTransaction))

	mux.Handle("POST /api/budgets", s.owned(s.handleCreateBudget))
	mux.Handle("GET /api/budgets", s.owned(s.handleListBudgets))
	mux.Handle("GET /api/budgets/with-spending", s.owned(s.handleListBudgetsWithSpending))
	mux.Handle("PUT /api/budgets/{id}", s.owned(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.owned(s.handleDeleteBudget))

	mux.Handle("POST /api/bill-reminders", s.owned(s.handleCreateBillReminder))
	mux.Handle("GET /api/bill-reminders", s.owned(s.handleListBillReminders))
	mux.Handle("GET /api/bill-reminders/upcoming", s.owned(s.handleListUpcomingBills))
	mux.Handle("PUT /api/bill-reminders/{id}", s.owned(s.handleUpdateBillReminder))
	mux.Handle("DELETE /api/bill-reminders/{id}", s.owned(s.handleDeleteBillReminder))

	mux.Handle("POST /api/savings-goals", s.owned(s.handleCreateSavingsGoal))
	mux.Handle("GET /api/savings-goals", s.owned(s.handleListSavingsGoals))
	mux.Handle("PUT /api/savings-goals/{id}", s.owned(s.handleUpdateSavingsGoal))
	mux.Handle("DELETE /api/savings-goals/{id}", s.owned(s.handleDeleteSavingsGoal))

	mux.Handle("POST /api/savings-challenges", s.owned(s.handleCreateSavingsChallenge))
	mux.Handle("GET /api/savings-challenges", s.owned(s.handleListSavingsChallenges))
	mux.Handle("PUT /api/savings-challenges/{id}", s.owned(s.handleUpdateSavingsChallenge))
	mux.Handle("DELETE /api/savings-challenges/{id}", s.owned(s.handleDeleteSavingsChallenge))

	mux.Handle("POST /api/recurring-transactions", s.owned(s.handleCreateRecurring))
	mux.Handle("GET /api/recurring-transactions", s.owned(s.handleListRecurring))
	mux.Handle("DELETE /api/recurring-transactions/{id}", s.owned(s.handleDeleteRecurring))

	mux.Handle("POST /api/category-rules", s.owned(s.handleCreateCategoryRule))
	mux.Handle("GET /api/category-rules", s.owned(s.handleListCategoryRules))
	mux.Handle("POST /api/category-rules/match", s.owned(s.handleMatchCategoryRule))
	mux.Handle("DELETE /api/category-rules/{id}", s.owned(s.handleDeleteCategoryRule))

	mux.Handle("POST /api/custom-categories", s.owned(s.handleCreateCustomCategory))
	mux.Handle("GET /api/custom-categories", s.owned(s.handleListCustomCategories))
	mux.Handle("DELETE /api/custom-categories/{id}", s.owned(s.handleDeleteCustomCategory))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.tracer = trace.NewMiddleware(clientIPs.ClientIP)
	limited := limiter.Middleware(clientIPs.ClientIP, nil)

	var handler http.Handler = mux
	handler = limited(handler)
	handler = log.Middleware(s.logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the full middleware chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops background middleware work.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type metricsResponse struct {
	TotalRequests         int64 `json:"totalRequests"`
	AverageResponseTimeUs int64 `json:"averageResponseTimeUs"`
	RateLimitedRequests   int64 `json:"rateLimitedRequests"`
	RateLimitedClients    int   `json:"rateLimitedClients"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	writeJSON(w, http.StatusOK, metricsResponse{
		TotalRequests:         m.TotalRequests,
		AverageResponseTimeUs: m.AverageResponseTime,
		RateLimitedRequests:   rl.RejectedRequests,
		RateLimitedClients:    rl.TrackedClients,
	})
}

// ownedHandler is an API handler that runs on behalf of a single owner.
type ownedHandler func(w http.ResponseWriter, r *http.Request, ownerID string)

// owned rejects requests that carry no X-User-ID header.
func (s *Server) owned(h ownedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		if owner == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		h(w, r, owner)
	})
}
