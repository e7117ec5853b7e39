package core

import (
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestParseGranularity(t *testing.T) {
	cases := []struct {
		in   string
		want Granularity
		ok   bool
	}{
		{"", GranularityMonth, true},
		{"month", GranularityMonth, true},
		{"quarter", GranularityQuarter, true},
		{"year", GranularityYear, true},
		{"week", "", false},
		{"MONTH", "", false},
	}
	for i, tc := range cases {
		got, err := ParseGranularity(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: expected %q, got %q (err=%v)", i, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d: expected error for %q", i, tc.in)
		}
	}
}

func TestDateRangeValidate(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := (DateRange{Start: a, End: b}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (DateRange{Start: a, End: a}).Validate(); err != nil {
		t.Fatalf("single instant range should be valid, got %v", err)
	}
	if err := (DateRange{Start: b, End: a}).Validate(); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if err := (DateRange{End: b}).Validate(); err == nil {
		t.Fatalf("expected error for zero start")
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	if !r.Contains(r.Start) || !r.Contains(r.End) {
		t.Fatalf("range must include both endpoints")
	}
	if r.Contains(r.Start.Add(-time.Second)) {
		t.Fatalf("instant before start must be excluded")
	}
	if r.Contains(r.End.Add(time.Second)) {
		t.Fatalf("instant after end must be excluded")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		OwnerID:     "u1",
		Amount:      Money{Cents: 100},
		Category:    "Food",
		Description: "coffee",
		OccurredAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Cents: 1}, Category: "c", Description: "d", OccurredAt: good.OccurredAt},
		{OwnerID: "u1", Amount: Money{Cents: 1}, Category: "c", Description: "d"},
		{OwnerID: "u1", Amount: Money{Cents: 0}, Category: "c", Description: "d", OccurredAt: good.OccurredAt},
		{OwnerID: "u1", Amount: Money{Cents: 1}, Category: "", Description: "d", OccurredAt: good.OccurredAt},
		{OwnerID: "u1", Amount: Money{Cents: 1}, Category: "c", Description: "", OccurredAt: good.OccurredAt},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetUtilization(t *testing.T) {
	b := BudgetWithSpending{
		Budget: Budget{Limit: Money{Cents: 10000}},
		Spent:  Money{Cents: 7500},
	}
	if got := b.Utilization(); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	zero := BudgetWithSpending{Budget: Budget{Limit: Money{Cents: 0}}}
	if got := zero.Utilization(); got != 0 {
		t.Fatalf("zero limit should yield 0, got %v", got)
	}
}

func TestBillIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		bill BillReminder
		want bool
	}{
		{BillReminder{DueDate: now.AddDate(0, 0, -1)}, true},
		{BillReminder{DueDate: now.AddDate(0, 0, 1)}, false},
		{BillReminder{DueDate: now.AddDate(0, 0, -1), IsPaid: true}, false},
	}
	for i, tc := range cases {
		if got := tc.bill.IsOverdue(now); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	good := RecurringTransaction{
		OwnerID:     "u1",
		Description: "rent",
		Amount:      Money{Cents: 80000},
		Category:    "Housing",
		Every:       Monthly,
		StartDate:   start,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Every = "fortnightly"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown repetition type")
	}

	bad = good
	bad.EndDate = start.AddDate(0, -1, 0)
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}
}
