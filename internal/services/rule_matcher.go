package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"fintrack/internal/core"
)

// RuleReader lists an owner's category rules, highest priority first.
type RuleReader interface {
	ListCategoryRules(ctx context.Context, ownerID string) ([]core.CategoryRule, error)
}

const ruleCacheTTL = 5 * time.Minute

// RuleMatcher categorizes transactions by matching their description against
// the owner's rules. Rule lists are cached per owner to keep the hot path of
// transaction creation off the database.
type RuleMatcher struct {
	rules RuleReader
	cache *ristretto.Cache
}

func NewRuleMatcher(rules RuleReader) (*RuleMatcher, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create rule cache: %w", err)
	}
	return &RuleMatcher{rules: rules, cache: cache}, nil
}

// Match returns the category of the first rule whose pattern occurs in the
// description, case-insensitively. Rules are ordered by priority, so the
// first hit wins.
func (m *RuleMatcher) Match(ctx context.Context, ownerID, description string) (string, bool, error) {
	rules, err := m.ownerRules(ctx, ownerID)
	if err != nil {
		return "", false, err
	}

	haystack := strings.ToLower(description)
	for _, rule := range rules {
		if strings.Contains(haystack, strings.ToLower(rule.Pattern)) {
			slog.DebugContext(ctx, "Category rule matched",
				"owner_id", ownerID,
				"rule_id", rule.ID,
				"category", rule.Category)
			return rule.Category, true, nil
		}
	}
	return "", false, nil
}

// Invalidate drops the owner's cached rules. Call after rule mutations.
func (m *RuleMatcher) Invalidate(ownerID string) {
	m.cache.Del(ownerID)
}

func (m *RuleMatcher) ownerRules(ctx context.Context, ownerID string) ([]core.CategoryRule, error) {
	if cached, ok := m.cache.Get(ownerID); ok {
		if rules, ok := cached.([]core.CategoryRule); ok {
			return rules, nil
		}
	}

	rules, err := m.rules.ListCategoryRules(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list category rules: %w", err)
	}
	m.cache.SetWithTTL(ownerID, rules, int64(len(rules)+1), ruleCacheTTL)
	return rules, nil
}

func (m *RuleMatcher) Close() {
	m.cache.Close()
}
