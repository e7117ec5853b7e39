package insights

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// PeriodBucket is one calendar-aligned slice of the requested range with the
// summed transaction amount for that slice, in minor units.
type PeriodBucket struct {
	Label string         `json:"label"`
	Range core.DateRange `json:"range"`
	Total int64          `json:"total"`
}

// BucketTransactions partitions [r.Start, r.End] into contiguous calendar
// buckets at the given granularity and sums transaction amounts per bucket.
// Buckets always cover the full calendar period containing the range
// boundaries, so a range starting mid-month still yields a whole first month.
// Every bucket is emitted even when no transaction falls inside it.
func BucketTransactions(r core.DateRange, g core.Granularity, txs []core.Transaction) []PeriodBucket {
	var buckets []PeriodBucket

	for start := periodStart(r.Start, g); !start.After(r.End); start = nextPeriodStart(start, g) {
		end := nextPeriodStart(start, g).Add(-time.Second)
		bucket := PeriodBucket{
			Label: periodLabel(start, g),
			Range: core.DateRange{Start: start, End: end},
		}
		for _, tx := range txs {
			if bucket.Range.Contains(tx.OccurredAt) {
				bucket.Total += tx.Amount.Cents
			}
		}
		buckets = append(buckets, bucket)
	}

	return buckets
}

// periodStart aligns t down to the start of its calendar period.
func periodStart(t time.Time, g core.Granularity) time.Time {
	switch g {
	case core.GranularityQuarter:
		quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
		return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
	case core.GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default: // month
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
}

func nextPeriodStart(start time.Time, g core.Granularity) time.Time {
	switch g {
	case core.GranularityQuarter:
		return start.AddDate(0, 3, 0)
	case core.GranularityYear:
		return start.AddDate(1, 0, 0)
	default: // month
		return start.AddDate(0, 1, 0)
	}
}

func periodLabel(start time.Time, g core.Granularity) string {
	switch g {
	case core.GranularityQuarter:
		q := (int(start.Month())-1)/3 + 1
		return fmt.Sprintf("Q%d %d", q, start.Year())
	case core.GranularityYear:
		return fmt.Sprintf("%d", start.Year())
	default: // month
		return start.Format("Jan 2006")
	}
}

// monthsSpanned counts the calendar months touched by the range, minimum 1.
func monthsSpanned(r core.DateRange) int {
	n := (r.End.Year()-r.Start.Year())*12 + int(r.End.Month()) - int(r.Start.Month()) + 1
	if n < 1 {
		return 1
	}
	return n
}
