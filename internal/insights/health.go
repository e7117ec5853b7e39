package insights

import (
	"math"
	"time"

	"fintrack/internal/core"
)

// Grade buckets an overall health score into a letter.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Sub-score weights. They sum to 1.
const (
	weightBudgetAdherence     = 0.30
	weightSavingsRate         = 0.25
	weightSpendingConsistency = 0.25
	weightBillPayment         = 0.20
)

// Defaults for sub-scores that cannot be computed from an empty snapshot.
const (
	defaultSavingsRate        = 50 // midpoint: no goals is neither good nor bad
	defaultConsistencyScore   = 80 // no previous-month spend to compare against
	perfectScore              = 100
)

// FinancialHealthScore is the weighted composite of four sub-scores, each
// 0-100, recomputed from the current snapshot on every request.
type FinancialHealthScore struct {
	Overall             int      `json:"overall"`
	BudgetAdherence     float64  `json:"budgetAdherence"`
	SavingsRate         float64  `json:"savingsRate"`
	SpendingConsistency float64  `json:"spendingConsistency"`
	BillPaymentScore    float64  `json:"billPaymentScore"`
	Grade               Grade    `json:"grade"`
	Insights            []string `json:"insights"`
}

// HealthSnapshot is everything the scorer reads: the current calendar month's
// transactions, the previous month's total spend, and the owner's budget,
// goal and bill state as of Now.
type HealthSnapshot struct {
	MonthTransactions  []core.Transaction
	PreviousMonthTotal int64
	Budgets            []core.BudgetWithSpending
	Goals              []core.SavingsGoal
	Bills              []core.BillReminder
	Now                time.Time
}

// ScoreFinancialHealth computes the composite health score. It is a pure
// function of the snapshot; nothing is persisted.
func ScoreFinancialHealth(snap HealthSnapshot) FinancialHealthScore {
	var monthTotal int64
	for _, tx := range snap.MonthTransactions {
		monthTotal += tx.Amount.Cents
	}

	score := FinancialHealthScore{
		BudgetAdherence:     scoreBudgetAdherence(snap.Budgets),
		SavingsRate:         scoreSavingsRate(snap.Goals),
		SpendingConsistency: scoreSpendingConsistency(monthTotal, snap.PreviousMonthTotal),
		BillPaymentScore:    scoreBillPunctuality(snap.Bills, snap.Now),
	}

	weighted := score.BudgetAdherence*weightBudgetAdherence +
		score.SavingsRate*weightSavingsRate +
		score.SpendingConsistency*weightSpendingConsistency +
		score.BillPaymentScore*weightBillPayment
	score.Overall = int(math.Round(weighted))
	score.Grade = gradeFor(score.Overall)
	score.Insights = healthInsights(score)

	return score
}

// scoreBudgetAdherence is the percentage of budgets at or under their limit.
func scoreBudgetAdherence(budgets []core.BudgetWithSpending) float64 {
	if len(budgets) == 0 {
		return perfectScore
	}
	within := 0
	for _, b := range budgets {
		if b.Utilization() <= 100 {
			within++
		}
	}
	return float64(within) / float64(len(budgets)) * 100
}

// scoreSavingsRate is overall goal progress, capped at 100.
func scoreSavingsRate(goals []core.SavingsGoal) float64 {
	if len(goals) == 0 {
		return defaultSavingsRate
	}
	var saved, target int64
	for _, g := range goals {
		saved += g.Current.Cents
		target += g.Target.Cents
	}
	if target <= 0 {
		return defaultSavingsRate
	}
	return math.Min(perfectScore, float64(saved)/float64(target)*100)
}

// scoreSpendingConsistency penalizes month-over-month spend variance.
func scoreSpendingConsistency(currentTotal, previousTotal int64) float64 {
	if previousTotal <= 0 {
		return defaultConsistencyScore
	}
	variance := math.Abs(float64(currentTotal-previousTotal)) / float64(previousTotal)
	return math.Max(0, 100-variance*100)
}

// scoreBillPunctuality is the percentage of active bills not currently overdue.
func scoreBillPunctuality(bills []core.BillReminder, now time.Time) float64 {
	if len(bills) == 0 {
		return perfectScore
	}
	onTime := 0
	for _, b := range bills {
		if !b.IsOverdue(now) {
			onTime++
		}
	}
	return float64(onTime) / float64(len(bills)) * 100
}

func gradeFor(overall int) Grade {
	switch {
	case overall >= 90:
		return GradeA
	case overall >= 80:
		return GradeB
	case overall >= 70:
		return GradeC
	case overall >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// healthInsights emits one message per sub-score below its attention
// threshold, plus a positive note for a strong overall score.
func healthInsights(s FinancialHealthScore) []string {
	insights := []string{}
	if s.BudgetAdherence < 80 {
		insights = append(insights, "Some budgets are over their limit. Review spending in over-budget categories.")
	}
	if s.SavingsRate < 50 {
		insights = append(insights, "Savings are behind target. Consider setting aside a fixed amount each month.")
	}
	if s.SpendingConsistency < 60 {
		insights = append(insights, "Spending varies a lot month to month. A steadier pattern makes budgets easier to keep.")
	}
	if s.BillPaymentScore < 100 {
		insights = append(insights, "There are overdue bills. Settle them soon to avoid late fees.")
	}
	if s.Overall >= 80 {
		insights = append(insights, "Finances are in good shape. Keep it up!")
	}
	return insights
}
