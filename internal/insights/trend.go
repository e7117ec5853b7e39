package insights

import (
	"sort"

	"fintrack/internal/core"
)

// trendThresholdPercent is the band around zero inside which a change counts
// as stable. Strict comparisons: exactly +/-5% is still stable.
const trendThresholdPercent = 5.0

// PeriodTotal is a category's total within one period bucket.
type PeriodTotal struct {
	Period string `json:"period"`
	Total  int64  `json:"total"`
}

// CategoryTrend compares one category's spend between the current and the
// previous window, with a per-bucket breakdown of the current window.
type CategoryTrend struct {
	Category      string        `json:"category"`
	CurrentTotal  int64         `json:"currentTotal"`
	PreviousTotal int64         `json:"previousTotal"`
	Change        int64         `json:"change"`
	ChangePercent float64       `json:"changePercent"`
	Trend         core.Trend    `json:"trend"`
	PeriodData    []PeriodTotal `json:"periodData"`
}

// AnalyzeCategoryTrends builds one CategoryTrend per distinct category seen in
// the current window. Categories that only appear in the previous window are
// not reported; the view answers "what am I spending on now". Results are
// ordered by current total descending.
func AnalyzeCategoryTrends(current, previous []core.Transaction, buckets []PeriodBucket) []CategoryTrend {
	currentByCategory := make(map[string]int64)
	previousByCategory := make(map[string]int64)

	for _, tx := range current {
		currentByCategory[tx.Category] += tx.Amount.Cents
	}
	for _, tx := range previous {
		previousByCategory[tx.Category] += tx.Amount.Cents
	}

	trends := make([]CategoryTrend, 0, len(currentByCategory))
	for category, currentTotal := range currentByCategory {
		previousTotal := previousByCategory[category]
		change := currentTotal - previousTotal
		pct := changePercent(currentTotal, previousTotal)

		trend := CategoryTrend{
			Category:      category,
			CurrentTotal:  currentTotal,
			PreviousTotal: previousTotal,
			Change:        change,
			ChangePercent: pct,
			Trend:         classifyTrend(pct),
			PeriodData:    make([]PeriodTotal, 0, len(buckets)),
		}

		for _, bucket := range buckets {
			var total int64
			for _, tx := range current {
				if tx.Category == category && bucket.Range.Contains(tx.OccurredAt) {
					total += tx.Amount.Cents
				}
			}
			trend.PeriodData = append(trend.PeriodData, PeriodTotal{
				Period: bucket.Label,
				Total:  total,
			})
		}

		trends = append(trends, trend)
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].CurrentTotal != trends[j].CurrentTotal {
			return trends[i].CurrentTotal > trends[j].CurrentTotal
		}
		return trends[i].Category < trends[j].Category
	})

	return trends
}

// changePercent computes the period-over-period percent change with explicit
// zero-denominator branches: a category appearing from nothing counts as
// +100%, and no activity in either window counts as 0.
func changePercent(current, previous int64) float64 {
	switch {
	case previous > 0:
		return float64(current-previous) / float64(previous) * 100
	case current > 0:
		return 100
	default:
		return 0
	}
}

func classifyTrend(pct float64) core.Trend {
	switch {
	case pct > trendThresholdPercent:
		return core.TrendUp
	case pct < -trendThresholdPercent:
		return core.TrendDown
	default:
		return core.TrendStable
	}
}
