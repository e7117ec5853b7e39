package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

type stubRuleReader struct {
	rules []core.CategoryRule
	calls int
	err   error
}

func (s *stubRuleReader) ListCategoryRules(_ context.Context, _ string) ([]core.CategoryRule, error) {
	s.calls++
	return s.rules, s.err
}

func TestRuleMatcherMatch(t *testing.T) {
	reader := &stubRuleReader{rules: []core.CategoryRule{
		{ID: "r1", OwnerID: "u1", Pattern: "uber eats", Category: "Food", Priority: 10},
		{ID: "r2", OwnerID: "u1", Pattern: "uber", Category: "Transport", Priority: 1},
	}}
	matcher, err := NewRuleMatcher(reader)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	defer matcher.Close()

	tests := []struct {
		name        string
		description string
		category    string
		matched     bool
	}{
		{"higher priority wins", "UBER EATS dinner", "Food", true},
		{"case insensitive substring", "my Uber ride home", "Transport", true},
		{"no match", "grocery run", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, matched, err := matcher.Match(context.Background(), "u1", tt.description)
			if err != nil {
				t.Fatalf("match: %v", err)
			}
			if matched != tt.matched || category != tt.category {
				t.Errorf("Match(%q) = %q/%v, want %q/%v", tt.description, category, matched, tt.category, tt.matched)
			}
		})
	}
}

func TestRuleMatcherCachesOwnerRules(t *testing.T) {
	reader := &stubRuleReader{rules: []core.CategoryRule{
		{ID: "r1", OwnerID: "u1", Pattern: "rent", Category: "Housing", Priority: 1},
	}}
	matcher, err := NewRuleMatcher(reader)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	defer matcher.Close()

	ctx := context.Background()
	if _, _, err := matcher.Match(ctx, "u1", "march rent"); err != nil {
		t.Fatalf("match: %v", err)
	}
	matcher.cache.Wait()
	if _, _, err := matcher.Match(ctx, "u1", "april rent"); err != nil {
		t.Fatalf("match: %v", err)
	}
	if reader.calls != 1 {
		t.Errorf("expected one storage read, got %d", reader.calls)
	}

	matcher.Invalidate("u1")
	matcher.cache.Wait()
	if _, _, err := matcher.Match(ctx, "u1", "may rent"); err != nil {
		t.Fatalf("match: %v", err)
	}
	if reader.calls != 2 {
		t.Errorf("expected invalidation to force a re-read, got %d calls", reader.calls)
	}
}

func TestRuleMatcherReaderError(t *testing.T) {
	reader := &stubRuleReader{err: errors.New("db down")}
	matcher, err := NewRuleMatcher(reader)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	defer matcher.Close()

	if _, _, err := matcher.Match(context.Background(), "u1", "anything"); err == nil {
		t.Error("expected reader error to surface")
	}
}
