package categorize

import (
	"context"
	"fmt"
	"sync"

	"BudgetHero/pkg/ledger"

	gocache "github.com/patrickmn/go-cache"
)

const ruleSetCacheKey = "category_ruleset"

// RuleSource supplies the category table and its matching rules.
type RuleSource interface {
	LoadCategories(ctx context.Context) ([]ledger.Category, error)
	LoadRules(ctx context.Context) ([]ledger.CategoryRule, error)
}

// StaticRuleSource serves the built-in defaults.
type StaticRuleSource struct{}

func (StaticRuleSource) LoadCategories(ctx context.Context) ([]ledger.Category, error) {
	return DefaultCategories(), nil
}

func (StaticRuleSource) LoadRules(ctx context.Context) ([]ledger.CategoryRule, error) {
	return DefaultRules(), nil
}

// RuleCache holds the compiled RuleSet: loaded once per process, never
// expired, and invalidated only by an explicit administrative call. Loading
// failures are returned to the caller instead of poisoning the cache, so a
// failed refresh leaves the previous entry untouched.
type RuleCache struct {
	src RuleSource
	c   *gocache.Cache
	mu  sync.Mutex // serializes loads on a cold cache
}

func NewRuleCache(src RuleSource) *RuleCache {
	return &RuleCache{
		src: src,
		c:   gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the cached RuleSet, loading it from the source on first use.
func (rc *RuleCache) Get(ctx context.Context) (*RuleSet, error) {
	if v, found := rc.c.Get(ruleSetCacheKey); found {
		return v.(*RuleSet), nil
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if v, found := rc.c.Get(ruleSetCacheKey); found {
		return v.(*RuleSet), nil
	}

	categories, err := rc.src.LoadCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	rules, err := rc.src.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category rules: %w", err)
	}
	rs, err := NewRuleSet(categories, rules)
	if err != nil {
		return nil, err
	}
	rc.c.Set(ruleSetCacheKey, rs, gocache.NoExpiration)
	return rs, nil
}

// Invalidate drops the cached RuleSet. The next Get reloads from the source.
// Called on administrative change only; the cache never expires on its own.
func (rc *RuleCache) Invalidate() {
	rc.c.Delete(ruleSetCacheKey)
}
