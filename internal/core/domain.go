package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly RepetitionType = "monthly"
	Yearly  RepetitionType = "yearly"
	Weekly  RepetitionType = "weekly"
	Daily   RepetitionType = "daily"
)

const (
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type (
	// RepetitionType is the frequency of a recurring transaction.
	RepetitionType string

	// Granularity is the bucketing resolution for insights queries.
	Granularity string

	// Trend is the direction of a period-over-period change.
	Trend string

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger entry. Amounts are integer cents;
	// the analytics layer only ever reads these records.
	Transaction struct {
		ID          string
		OwnerID     string
		Amount      Money
		Category    string
		Description string
		OccurredAt  time.Time
	}

	// DateRange is inclusive on both ends.
	DateRange struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	Budget struct {
		ID       string
		OwnerID  string
		Category string
		Limit    Money
	}

	// BudgetWithSpending pairs a budget with the spend accumulated in the
	// current calendar month.
	BudgetWithSpending struct {
		Budget
		Spent Money
	}

	BillReminder struct {
		ID      string
		OwnerID string
		Name    string
		Amount  Money
		DueDate time.Time
		IsPaid  bool
	}

	SavingsGoal struct {
		ID          string
		OwnerID     string
		Name        string
		Target      Money
		Current     Money
		IsCompleted bool
	}

	SavingsChallenge struct {
		ID          string
		OwnerID     string
		Name        string
		Target      Money
		Current     Money
		Progress    string
		IsCompleted bool
	}

	RecurringTransaction struct {
		ID             string
		OwnerID        string
		Description    string
		Amount         Money
		Category       string
		Every          RepetitionType
		StartDate      time.Time
		EndDate        time.Time // zero value means open-ended
		LastExecutedAt time.Time // zero value means never executed
	}

	// CategoryRule assigns a category to transactions whose description
	// contains Pattern. Higher Priority wins on multiple matches.
	CategoryRule struct {
		ID       string
		OwnerID  string
		Pattern  string
		Category string
		Priority int
	}

	CustomCategory struct {
		ID      string
		OwnerID string
		Name    string
		Color   string
	}

	// CategoryTotal is one category's lifetime spend.
	CategoryTotal struct {
		Category string
		Total    Money
	}

	// MonthlyTotal is one calendar month's spend, keyed "2006-01".
	MonthlyTotal struct {
		Month string
		Total Money
	}

	// TransactionStats summarizes an owner's whole ledger.
	TransactionStats struct {
		Total      Money
		ByCategory []CategoryTotal
		Monthly    []MonthlyTotal
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRange       = errors.New("range start after end")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrEmptyOwner         = errors.New("empty owner id")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyPattern       = errors.New("empty rule pattern")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrDescriptionLength  = errors.New("description too long (max 200 characters)")
	ErrInvalidRepetition  = errors.New("invalid repetition type")
	ErrEndBeforeStart     = errors.New("end date must be after start date")
)

// ParseGranularity validates a granularity string from a query parameter.
// An empty string defaults to month.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.TrimSpace(s)) {
	case "":
		return GranularityMonth, nil
	case GranularityMonth:
		return GranularityMonth, nil
	case GranularityQuarter:
		return GranularityQuarter, nil
	case GranularityYear:
		return GranularityYear, nil
	default:
		return "", ErrInvalidGranularity
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrZeroDate
	}
	if r.Start.After(r.End) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Duration is the span of the range.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if t.OccurredAt.IsZero() {
		return ErrZeroDate
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLength
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Limit.Validate()
}

// Utilization returns spend as a percentage of the budget limit.
func (b BudgetWithSpending) Utilization() float64 {
	if b.Limit.Cents <= 0 {
		return 0
	}
	return float64(b.Spent.Cents) / float64(b.Limit.Cents) * 100
}

func (b BillReminder) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.DueDate.IsZero() {
		return ErrZeroDate
	}
	return b.Amount.Validate()
}

// IsOverdue reports whether an unpaid bill's due date has passed.
func (b BillReminder) IsOverdue(now time.Time) bool {
	return !b.IsPaid && b.DueDate.Before(now)
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c SavingsChallenge) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := c.Target.Validate(); err != nil {
		return err
	}
	if c.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if strings.TrimSpace(rt.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if rt.StartDate.IsZero() {
		return fmt.Errorf("invalid start date: %w", ErrZeroDate)
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate) {
		return ErrEndBeforeStart
	}
	switch rt.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidRepetition
	}
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return ErrDescriptionLength
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	return rt.Amount.Validate()
}

func (r CategoryRule) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return ErrEmptyPattern
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c CustomCategory) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
