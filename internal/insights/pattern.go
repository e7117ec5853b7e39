package insights

import (
	"fintrack/internal/core"
)

// noCategory is the placeholder reported when no category qualifies.
const noCategory = "N/A"

// CategoryChange names a category together with its percent change, used for
// the fastest growing/shrinking slots of a pattern summary.
type CategoryChange struct {
	Category      string  `json:"category"`
	ChangePercent float64 `json:"changePercent"`
}

// FinancialPattern is the aggregate description of one insights response.
type FinancialPattern struct {
	AvgMonthlySpend      int64           `json:"avgMonthlySpend"`
	HighestSpendCategory string          `json:"highestSpendCategory"`
	HighestSpendAmount   int64           `json:"highestSpendAmount"`
	LowestSpendCategory  string          `json:"lowestSpendCategory"`
	LowestSpendAmount    int64           `json:"lowestSpendAmount"`
	SpendingTrend        core.Trend      `json:"spendingTrend"`
	SpendingTrendPercent float64         `json:"spendingTrendPercent"`
	TopGrowingCategory   *CategoryChange `json:"topGrowingCategory"`
	TopShrinkingCategory *CategoryChange `json:"topShrinkingCategory"`
}

// SummarizePattern derives the aggregate descriptors from the window totals
// and the per-category trends. monthCount is the number of calendar months
// spanned by the current window (min 1, to keep the average defined).
func SummarizePattern(totalCurrent, totalPrevious int64, trends []CategoryTrend, monthCount int) FinancialPattern {
	if monthCount < 1 {
		monthCount = 1
	}

	overallPct := changePercent(totalCurrent, totalPrevious)
	pattern := FinancialPattern{
		AvgMonthlySpend:      totalCurrent / int64(monthCount),
		HighestSpendCategory: noCategory,
		LowestSpendCategory:  noCategory,
		SpendingTrend:        classifyTrend(overallPct),
		SpendingTrendPercent: overallPct,
	}

	for _, t := range trends {
		if t.CurrentTotal > pattern.HighestSpendAmount {
			pattern.HighestSpendCategory = t.Category
			pattern.HighestSpendAmount = t.CurrentTotal
		}
		// Lowest considers only categories with actual spend.
		if t.CurrentTotal > 0 && (pattern.LowestSpendAmount == 0 || t.CurrentTotal < pattern.LowestSpendAmount) {
			pattern.LowestSpendCategory = t.Category
			pattern.LowestSpendAmount = t.CurrentTotal
		}

		if t.Trend == core.TrendUp && t.PreviousTotal > 0 {
			if pattern.TopGrowingCategory == nil || t.ChangePercent > pattern.TopGrowingCategory.ChangePercent {
				pattern.TopGrowingCategory = &CategoryChange{Category: t.Category, ChangePercent: t.ChangePercent}
			}
		}
		if t.Trend == core.TrendDown {
			if pattern.TopShrinkingCategory == nil || t.ChangePercent < pattern.TopShrinkingCategory.ChangePercent {
				pattern.TopShrinkingCategory = &CategoryChange{Category: t.Category, ChangePercent: t.ChangePercent}
			}
		}
	}

	return pattern
}
