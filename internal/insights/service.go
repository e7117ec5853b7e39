package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// defaultWindowMonths is the trailing window used when the caller gives no
// explicit date range.
const defaultWindowMonths = 6

// Query carries the raw, caller-supplied insights parameters. Fields are
// strings on purpose: validation happens here, before any aggregation runs.
type Query struct {
	Granularity string
	StartDate   string
	EndDate     string
}

// ValidationError reports a rejected query parameter by name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsightsResponse is the assembled aggregate view for one request.
type InsightsResponse struct {
	PeriodBuckets        []PeriodBucket   `json:"periodBuckets"`
	CategoryTrends       []CategoryTrend  `json:"categoryTrends"`
	TotalCurrentPeriod   int64            `json:"totalCurrentPeriod"`
	TotalPreviousPeriod  int64            `json:"totalPreviousPeriod"`
	OverallChange        int64            `json:"overallChange"`
	OverallChangePercent float64          `json:"overallChangePercent"`
	OverallTrend         core.Trend       `json:"overallTrend"`
	FinancialPattern     FinancialPattern `json:"financialPattern"`
}

// Service orchestrates the aggregation pipeline. It holds no state between
// requests; every response is recomputed from the ledger.
type Service struct {
	ledger TransactionReader
	snaps  SnapshotReader
	now    func() time.Time
}

func NewService(ledger TransactionReader, snaps SnapshotReader) *Service {
	return &Service{
		ledger: ledger,
		snaps:  snaps,
		now:    time.Now,
	}
}

// ComputeInsights resolves the requested window, fetches both windows of the
// ledger, and runs bucketing, trend analysis and pattern summarization.
func (s *Service) ComputeInsights(ctx context.Context, ownerID string, q Query) (*InsightsResponse, error) {
	granularity, err := core.ParseGranularity(q.Granularity)
	if err != nil {
		return nil, &ValidationError{Field: "granularity", Message: "must be one of month, quarter, year"}
	}

	current, previous, err := s.resolveWindows(q)
	if err != nil {
		return nil, err
	}

	// The two window reads are independent; fetch them concurrently.
	var currentTxs, previousTxs []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentTxs, err = s.ledger.ListTransactionsInRange(gctx, ownerID, current)
		if err != nil {
			return fmt.Errorf("list current window: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previousTxs, err = s.ledger.ListTransactionsInRange(gctx, ownerID, previous)
		if err != nil {
			return fmt.Errorf("list previous window: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buckets := BucketTransactions(current, granularity, currentTxs)
	trends := AnalyzeCategoryTrends(currentTxs, previousTxs, buckets)

	var totalCurrent, totalPrevious int64
	for _, tx := range currentTxs {
		totalCurrent += tx.Amount.Cents
	}
	for _, tx := range previousTxs {
		totalPrevious += tx.Amount.Cents
	}
	overallPct := changePercent(totalCurrent, totalPrevious)

	slog.DebugContext(ctx, "Computed insights",
		"owner_id", ownerID,
		"granularity", granularity,
		"buckets", len(buckets),
		"categories", len(trends),
		"current_total_cents", totalCurrent)

	return &InsightsResponse{
		PeriodBuckets:        buckets,
		CategoryTrends:       trends,
		TotalCurrentPeriod:   totalCurrent,
		TotalPreviousPeriod:  totalPrevious,
		OverallChange:        totalCurrent - totalPrevious,
		OverallChangePercent: overallPct,
		OverallTrend:         classifyTrend(overallPct),
		FinancialPattern:     SummarizePattern(totalCurrent, totalPrevious, trends, monthsSpanned(current)),
	}, nil
}

// ComputeFinancialHealth assembles the current snapshot and scores it.
func (s *Service) ComputeFinancialHealth(ctx context.Context, ownerID string) (*FinancialHealthScore, error) {
	now := s.now()
	month := calendarMonth(now, 0)
	previousMonth := calendarMonth(now, -1)

	var (
		monthTxs []core.Transaction
		prevTxs  []core.Transaction
		budgets  []core.BudgetWithSpending
		goals    []core.SavingsGoal
		bills    []core.BillReminder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		monthTxs, err = s.ledger.ListTransactionsInRange(gctx, ownerID, month)
		if err != nil {
			return fmt.Errorf("list current month: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prevTxs, err = s.ledger.ListTransactionsInRange(gctx, ownerID, previousMonth)
		if err != nil {
			return fmt.Errorf("list previous month: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.snaps.ListBudgetsWithSpending(gctx, ownerID, month)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goals, err = s.snaps.ListSavingsGoals(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("list savings goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bills, err = s.snaps.ListActiveBillReminders(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("list bill reminders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var prevTotal int64
	for _, tx := range prevTxs {
		prevTotal += tx.Amount.Cents
	}

	score := ScoreFinancialHealth(HealthSnapshot{
		MonthTransactions:  monthTxs,
		PreviousMonthTotal: prevTotal,
		Budgets:            budgets,
		Goals:              goals,
		Bills:              bills,
		Now:                now,
	})
	return &score, nil
}

// resolveWindows turns the query into the current window and the window of
// equal duration immediately preceding it. With no explicit dates the current
// window is the trailing six full calendar months ending now.
func (s *Service) resolveWindows(q Query) (current, previous core.DateRange, err error) {
	if q.StartDate != "" && q.EndDate != "" {
		start, perr := time.Parse("2006-01-02", q.StartDate)
		if perr != nil {
			return current, previous, &ValidationError{Field: "startDate", Message: "must be a YYYY-MM-DD date"}
		}
		end, perr := time.Parse("2006-01-02", q.EndDate)
		if perr != nil {
			return current, previous, &ValidationError{Field: "endDate", Message: "must be a YYYY-MM-DD date"}
		}
		// Inclusive range: extend the end date to the last second of its day.
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
		current = core.DateRange{Start: start, End: end}
		if verr := current.Validate(); verr != nil {
			return current, previous, &ValidationError{Field: "endDate", Message: "must not be before startDate"}
		}
	} else {
		now := s.now()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
			AddDate(0, -(defaultWindowMonths - 1), 0)
		current = core.DateRange{Start: start, End: now}
	}

	duration := current.Duration()
	previousEnd := current.Start.Add(-time.Second)
	previous = core.DateRange{Start: previousEnd.Add(-duration), End: previousEnd}
	return current, previous, nil
}

// calendarMonth returns the full calendar month offset months away from now.
func calendarMonth(now time.Time, offset int) core.DateRange {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, offset, 0)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return core.DateRange{Start: start, End: end}
}
