package categorize

import (
	"context"
	"errors"
	"math"
	"testing"

	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/override"
)

func testRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet(DefaultCategories(), DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleSet failed: %v", err)
	}
	return rs
}

func TestNewRuleSetRequiresFallbackCategory(t *testing.T) {
	var withoutFallback []ledger.Category
	for _, c := range DefaultCategories() {
		if c.Name != ledger.UncategorizedCategoryName {
			withoutFallback = append(withoutFallback, c)
		}
	}
	_, err := NewRuleSet(withoutFallback, nil)
	if !errors.Is(err, ErrFallbackCategoryMissing) {
		t.Fatalf("err = %v, want ErrFallbackCategoryMissing", err)
	}
}

func TestCascadePriority(t *testing.T) {
	rs := testRuleSet(t)

	overrides := override.NewUserOverrides([]override.CategoryOverride{
		{UserID: "u1", MerchantKey: "netflix", CategoryID: "cat-entertainment", Confidence: 1.0},
	}, nil)

	testCases := []struct {
		name           string
		tx             ledger.Transaction
		overrides      *override.UserOverrides
		wantCategory   string
		wantSource     Source
		wantConfidence float64
	}{
		{
			name: "user override beats aggregator and keywords",
			tx: ledger.Transaction{
				Merchant:           "NETFLIX.COM 4498",
				AggregatorDetailed: "ENTERTAINMENT_TV_AND_MOVIES",
			},
			overrides:      overrides,
			wantCategory:   "cat-entertainment",
			wantSource:     SourceUserOverride,
			wantConfidence: 1.0,
		},
		{
			name: "aggregator detailed beats primary and keywords",
			tx: ledger.Transaction{
				Merchant:           "NETFLIX.COM 4498",
				AggregatorDetailed: "ENTERTAINMENT_TV_AND_MOVIES",
				AggregatorPrimary:  "ENTERTAINMENT",
			},
			wantCategory:   "cat-subscriptions",
			wantSource:     SourceAggregatorDetailed,
			wantConfidence: 0.90,
		},
		{
			name: "aggregator primary discounted",
			tx: ledger.Transaction{
				Description:       "SOME NEW RESTAURANT",
				AggregatorPrimary: "FOOD_AND_DRINK",
			},
			wantCategory:   "cat-food",
			wantSource:     SourceAggregatorPrimary,
			wantConfidence: 0.90 * primaryCodePenalty,
		},
		{
			name:           "merchant keyword match",
			tx:             ledger.Transaction{Merchant: "STARBUCKS STORE 20571"},
			wantCategory:   "cat-food",
			wantSource:     SourceMerchantKeyword,
			wantConfidence: 0.85,
		},
		{
			name:           "description keyword when no merchant",
			tx:             ledger.Transaction{Description: "POS DEBIT GEICO INSURANCE"},
			wantCategory:   "cat-insurance",
			wantSource:     SourceDescriptionKeyword,
			wantConfidence: 0.90,
		},
		{
			name:           "empty description and merchant fall through",
			tx:             ledger.Transaction{},
			wantCategory:   "cat-uncategorized",
			wantSource:     SourceFallback,
			wantConfidence: 0,
		},
		{
			name:           "unmatched text falls through",
			tx:             ledger.Transaction{Description: "XQZV 1209"},
			wantCategory:   "cat-uncategorized",
			wantSource:     SourceFallback,
			wantConfidence: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := ClassifyWith(rs, tc.tx, tc.overrides)
			if m.CategoryID != tc.wantCategory {
				t.Errorf("category = %s, want %s", m.CategoryID, tc.wantCategory)
			}
			if m.Source != tc.wantSource {
				t.Errorf("source = %s, want %s", m.Source, tc.wantSource)
			}
			if math.Abs(m.Confidence-tc.wantConfidence) > 1e-9 {
				t.Errorf("confidence = %v, want %v", m.Confidence, tc.wantConfidence)
			}
		})
	}
}

func TestKeywordSpecificityOrder(t *testing.T) {
	rs := testRuleSet(t)

	// "amazon prime" must hit the streaming group, not the shopping group.
	prime := ClassifyWith(rs, ledger.Transaction{Merchant: "AMZN PRIME*2W4HL"}, nil)
	if prime.CategoryID != "cat-subscriptions" {
		t.Errorf("amazon prime -> %s, want cat-subscriptions", prime.CategoryID)
	}
	retail := ClassifyWith(rs, ledger.Transaction{Merchant: "AMAZON.COM*MK12Q"}, nil)
	if retail.CategoryID != "cat-shopping" {
		t.Errorf("amazon retail -> %s, want cat-shopping", retail.CategoryID)
	}
}

func TestShouldReplace(t *testing.T) {
	rs := testRuleSet(t)

	testCases := []struct {
		name  string
		tx    ledger.Transaction
		match Match
		want  bool
	}{
		{
			name:  "no current category",
			tx:    ledger.Transaction{},
			match: Match{CategoryID: "cat-food", Confidence: 0.85},
			want:  true,
		},
		{
			name:  "generic current category is always eligible",
			tx:    ledger.Transaction{CategoryID: "cat-uncategorized", CategoryConfidence: 0},
			match: Match{CategoryID: "cat-food", Confidence: 0.2, Source: SourceMerchantKeyword},
			want:  true,
		},
		{
			name:  "generic current category not replaced by fallback",
			tx:    ledger.Transaction{CategoryID: "cat-other"},
			match: Match{CategoryID: "cat-uncategorized", Confidence: 0, Source: SourceFallback},
			want:  false,
		},
		{
			name:  "confident prior beaten only by strictly higher confidence",
			tx:    ledger.Transaction{CategoryID: "cat-food", CategoryConfidence: 0.85},
			match: Match{CategoryID: "cat-groceries", Confidence: 0.85, Source: SourceMerchantKeyword},
			want:  false,
		},
		{
			name:  "strictly higher confidence wins",
			tx:    ledger.Transaction{CategoryID: "cat-food", CategoryConfidence: 0.85},
			match: Match{CategoryID: "cat-groceries", Confidence: 0.95, Source: SourceAggregatorDetailed},
			want:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldReplace(rs, tc.tx, tc.match); got != tc.want {
				t.Errorf("ShouldReplace = %v, want %v", got, tc.want)
			}
		})
	}
}

type countingSource struct {
	loads int
}

func (s *countingSource) LoadCategories(ctx context.Context) ([]ledger.Category, error) {
	s.loads++
	return DefaultCategories(), nil
}

func (s *countingSource) LoadRules(ctx context.Context) ([]ledger.CategoryRule, error) {
	return DefaultRules(), nil
}

func TestRuleCacheLoadsOnceUntilInvalidated(t *testing.T) {
	src := &countingSource{}
	cache := NewRuleCache(src)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if src.loads != 1 {
		t.Errorf("source loaded %d times, want 1", src.loads)
	}

	cache.Invalidate()
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get after invalidate failed: %v", err)
	}
	if src.loads != 2 {
		t.Errorf("source loaded %d times after invalidate, want 2", src.loads)
	}
}

func TestClassifierUsesCache(t *testing.T) {
	classifier := NewClassifier(NewRuleCache(StaticRuleSource{}))
	m, err := classifier.Classify(context.Background(), ledger.Transaction{Merchant: "NETFLIX"}, nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if m.CategoryID != "cat-subscriptions" {
		t.Errorf("category = %s, want cat-subscriptions", m.CategoryID)
	}
}
