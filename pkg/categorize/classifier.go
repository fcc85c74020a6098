package categorize

import (
	"context"

	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/merchant"
	"BudgetHero/pkg/override"
)

// Source identifies which cascade step produced a match, surfaced to the UI
// as a classification badge.
type Source string

const (
	SourceUserOverride       Source = "user_override"
	SourceAggregatorDetailed Source = "aggregator_detailed"
	SourceAggregatorPrimary  Source = "aggregator_primary"
	SourceMerchantKeyword    Source = "merchant_keyword"
	SourceDescriptionKeyword Source = "description_keyword"
	SourceFallback           Source = "fallback"
)

// primaryCodePenalty discounts matches on the coarse aggregator primary code
// relative to the detailed one.
const primaryCodePenalty = 0.9

// Match is the result of classifying one transaction.
type Match struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Confidence   float64 `json:"confidence"`
	Source       Source  `json:"source"`
}

// Classifier runs the category cascade against the cached rule table.
type Classifier struct {
	cache *RuleCache
}

func NewClassifier(cache *RuleCache) *Classifier {
	return &Classifier{cache: cache}
}

// Classify resolves a category for the transaction. overrides is the caller's
// pre-loaded snapshot for the transaction's user; nil means no overrides.
// The only error condition is a broken rule table (missing fallback category
// or an unloadable source).
func (c *Classifier) Classify(ctx context.Context, tx ledger.Transaction, overrides *override.UserOverrides) (Match, error) {
	rs, err := c.cache.Get(ctx)
	if err != nil {
		return Match{}, err
	}
	return ClassifyWith(rs, tx, overrides), nil
}

// ClassifyWith is the pure cascade, evaluated in strict priority order with
// the first applicable step winning.
func ClassifyWith(rs *RuleSet, tx ledger.Transaction, overrides *override.UserOverrides) Match {
	merchantKey := merchant.Key(tx.Merchant)
	if merchantKey == "" {
		merchantKey = merchant.Key(tx.Description)
	}

	// 1. User override: exact normalized-merchant match, confidence 1.0.
	if ov, ok := overrides.Category(merchantKey); ok {
		if cat, found := rs.Category(ov.CategoryID); found {
			return Match{CategoryID: cat.ID, CategoryName: cat.Name, Confidence: ov.Confidence, Source: SourceUserOverride}
		}
	}

	// 2. Aggregator detailed code.
	if r, ok := rs.MatchAggregator(tx.AggregatorDetailed); ok {
		return Match{CategoryID: r.CategoryID, CategoryName: r.CategoryName, Confidence: r.Confidence, Source: SourceAggregatorDetailed}
	}

	// 3. Aggregator primary code, discounted for its coarser precision.
	if r, ok := rs.MatchAggregator(tx.AggregatorPrimary); ok {
		return Match{CategoryID: r.CategoryID, CategoryName: r.CategoryName, Confidence: r.Confidence * primaryCodePenalty, Source: SourceAggregatorPrimary}
	}

	// 4. Merchant keyword match on the normalized merchant field.
	if tx.Merchant != "" {
		if r, ok := rs.MatchKeywords(merchant.Key(tx.Merchant)); ok {
			return Match{CategoryID: r.CategoryID, CategoryName: r.CategoryName, Confidence: r.Confidence, Source: SourceMerchantKeyword}
		}
	}

	// 5. Description keyword match when no merchant field exists.
	if tx.Merchant == "" {
		if r, ok := rs.MatchKeywords(merchant.Key(tx.Description)); ok {
			return Match{CategoryID: r.CategoryID, CategoryName: r.CategoryName, Confidence: r.Confidence, Source: SourceDescriptionKeyword}
		}
	}

	// 6. Fallback. Empty description and merchant resolve here too, at zero
	// confidence, rather than raising.
	fb := rs.Fallback()
	return Match{CategoryID: fb.ID, CategoryName: fb.Name, Confidence: 0, Source: SourceFallback}
}

// ShouldReplace decides whether a fresh match may overwrite the transaction's
// stored category. A generic current category is always eligible; a confident
// prior is only beaten by a strictly higher-confidence match.
func ShouldReplace(rs *RuleSet, tx ledger.Transaction, m Match) bool {
	if tx.CategoryID == "" {
		return true
	}
	if rs.IsGeneric(tx.CategoryID) {
		return m.Source != SourceFallback
	}
	return m.Confidence > tx.CategoryConfidence
}
