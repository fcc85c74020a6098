// Package categorize assigns a spending category to a transaction through a
// strict priority cascade: user override, aggregator detailed code, aggregator
// primary code, merchant keywords, description keywords, then the designated
// fallback category. Classification is a pure read; persisting the result is
// the caller's responsibility.
package categorize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"BudgetHero/pkg/ledger"
)

// ErrFallbackCategoryMissing is returned when the category table has no
// "Uncategorized" entry. Every fallback path depends on it existing, so its
// absence is a configuration error and must fail loudly.
var ErrFallbackCategoryMissing = errors.New("category table has no Uncategorized category")

// RuleSet is a compiled, immutable view of the category table and its
// matching rules. Built once, cached, and explicitly invalidated on
// administrative change; never mutated in place.
type RuleSet struct {
	categories   map[string]ledger.Category
	byAggregator map[string]ledger.CategoryRule
	keywordRules []ledger.CategoryRule // priority order, lowest first
	fallback     ledger.Category
}

// NewRuleSet compiles categories and rules into a RuleSet. Rules with an
// aggregator code go into the code lookup; rules with keywords go into the
// ordered keyword list. A rule may carry both.
func NewRuleSet(categories []ledger.Category, rules []ledger.CategoryRule) (*RuleSet, error) {
	rs := &RuleSet{
		categories:   make(map[string]ledger.Category, len(categories)),
		byAggregator: make(map[string]ledger.CategoryRule),
	}
	for _, c := range categories {
		rs.categories[c.ID] = c
		if strings.EqualFold(c.Name, ledger.UncategorizedCategoryName) {
			rs.fallback = c
		}
	}
	if rs.fallback.ID == "" {
		return nil, ErrFallbackCategoryMissing
	}

	ordered := make([]ledger.CategoryRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, r := range ordered {
		if _, ok := rs.categories[r.CategoryID]; !ok {
			return nil, fmt.Errorf("rule %d references unknown category %s", r.ID, r.CategoryID)
		}
		if r.AggregatorCode != "" {
			code := strings.ToUpper(r.AggregatorCode)
			if _, dup := rs.byAggregator[code]; !dup {
				rs.byAggregator[code] = r
			}
		}
		if len(r.Keywords) > 0 {
			kw := make([]string, len(r.Keywords))
			for i, k := range r.Keywords {
				kw[i] = strings.ToLower(k)
			}
			r.Keywords = kw
			rs.keywordRules = append(rs.keywordRules, r)
		}
	}
	return rs, nil
}

// Fallback returns the designated Uncategorized category.
func (rs *RuleSet) Fallback() ledger.Category {
	return rs.fallback
}

// Category looks up a category by id.
func (rs *RuleSet) Category(id string) (ledger.Category, bool) {
	c, ok := rs.categories[id]
	return c, ok
}

// CategoryExists implements override.CategoryChecker against the compiled
// table, so the override store can validate writes without a second source.
func (rs *RuleSet) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	_, ok := rs.categories[categoryID]
	return ok, nil
}

// MatchAggregator resolves an aggregator-provided category code.
func (rs *RuleSet) MatchAggregator(code string) (ledger.CategoryRule, bool) {
	if code == "" {
		return ledger.CategoryRule{}, false
	}
	r, ok := rs.byAggregator[strings.ToUpper(code)]
	return r, ok
}

// MatchKeywords returns the first rule, in priority order, with a keyword
// contained in text. text is expected lowercase.
func (rs *RuleSet) MatchKeywords(text string) (ledger.CategoryRule, bool) {
	if text == "" {
		return ledger.CategoryRule{}, false
	}
	for _, r := range rs.keywordRules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r, true
			}
		}
	}
	return ledger.CategoryRule{}, false
}

// IsGeneric reports whether the category carries no real signal ("Other",
// "Uncategorized"). Transactions holding a generic category are always
// eligible for re-classification.
func (rs *RuleSet) IsGeneric(categoryID string) bool {
	c, ok := rs.categories[categoryID]
	if !ok {
		return true
	}
	return strings.EqualFold(c.Name, ledger.UncategorizedCategoryName) || strings.EqualFold(c.Name, "Other")
}
