package recurring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/merchant"
	"BudgetHero/pkg/override"
)

const (
	// minKeyLength discards merchants whose normalized text is too short to
	// classify.
	minKeyLength = 3

	// confidenceThreshold is the emission floor: weaker candidates produce
	// no series.
	confidenceThreshold = 0.6

	// overrideBonus is the flat confidence boost for a user's explicit
	// "recurring" declaration.
	overrideBonus = 0.3

	// occurrenceSaturation: occurrences beyond this add no more evidence.
	occurrenceSaturation = 6

	occurrenceWeight = 0.25
	amountWeight     = 0.25
	timingDayWeight  = 0.12
	timingFreqWeight = 0.08
)

// Detector finds recurring series in a user's pre-loaded transaction
// snapshot. It performs no I/O; callers load transactions and overrides
// first.
type Detector struct {
	// CategoryName optionally resolves a category id to its display name
	// for the category-name typing heuristics. Nil disables them.
	CategoryName func(categoryID string) string

	now func() time.Time
}

func NewDetector() *Detector {
	return &Detector{now: time.Now}
}

// Detect recomputes the user's recurring series from scratch and returns them
// ordered by descending confidence. Income transactions, unparsable dates and
// merchants with an active non-recurring override are excluded.
func (d *Detector) Detect(userID string, txs []ledger.Transaction, overrides *override.UserOverrides) []Series {
	groups := d.groupByMerchant(txs)

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var series []Series
	for _, key := range keys {
		if s, ok := d.analyzeGroup(userID, key, groups[key], overrides); ok {
			series = append(series, s)
		}
	}

	sort.SliceStable(series, func(i, j int) bool {
		if series[i].Confidence != series[j].Confidence {
			return series[i].Confidence > series[j].Confidence
		}
		return series[i].MerchantKey < series[j].MerchantKey
	})
	return series
}

// groupByMerchant partitions non-income transactions by normalized merchant
// key, dropping rows the statistics cannot use.
func (d *Detector) groupByMerchant(txs []ledger.Transaction) map[string][]ledger.Transaction {
	groups := make(map[string][]ledger.Transaction)
	for _, tx := range txs {
		if tx.IsIncome() {
			continue
		}
		if tx.Date.IsZero() {
			continue // unparsable date, excluded from aggregation
		}
		source := tx.Merchant
		if source == "" {
			source = tx.Description
		}
		key := merchant.Key(source)
		if len(key) < minKeyLength {
			continue
		}
		groups[key] = append(groups[key], tx)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool {
			if !g[i].Date.Equal(g[j].Date) {
				return g[i].Date.Before(g[j].Date)
			}
			return g[i].ID < g[j].ID
		})
	}
	return groups
}

func (d *Detector) analyzeGroup(userID, key string, txs []ledger.Transaction, overrides *override.UserOverrides) (Series, bool) {
	recOverride, hasOverride := overrides.Recurring(key)

	// An explicit non-recurring decision covering all transactions is a
	// hard exclusion, regardless of how strong the statistical signal is.
	if hasOverride && !recOverride.Recurring && recOverride.Scope == override.ScopeAllTransactions {
		return Series{}, false
	}

	mType := classifyMerchantType(key, d.categoryNameFor(txs))

	// Discretionary spend repeats without being a bill; it never forms a
	// series.
	if mType == MerchantTypeDiscretionary {
		return Series{}, false
	}

	params := paramsByType[mType]
	if len(txs) < params.minOccurrences {
		return Series{}, false
	}

	fp := computeFingerprint(txs)
	freq := inferFrequency(fp.avgGapDays)

	// Variance gate. Utilities keep looser amounts because usage-based
	// billing is expected.
	if fp.variation > params.maxVariation && mType != MerchantTypeUtility {
		return Series{}, false
	}

	factors := d.scoreFactors(mType, params, len(txs), fp, freq)
	if hasOverride && recOverride.Recurring {
		factors.OverrideBonus = overrideBonus
	}
	confidence := clamp01(factors.MerchantType + factors.Occurrence + factors.AmountConsistency + factors.TimingConsistency + factors.OverrideBonus)
	if confidence < confidenceThreshold {
		return Series{}, false
	}

	last := txs[len(txs)-1].Date
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}

	s := Series{
		ID:                    seriesID(userID, key),
		UserID:                userID,
		MerchantKey:           key,
		MerchantType:          mType,
		Frequency:             freq,
		AverageAmount:         fp.avgAmount,
		AmountVariation:       fp.variation,
		DayOfMonthConsistency: fp.domConsistency,
		Confidence:            confidence,
		Factors:               factors,
		NextDueDate:           projectNextDue(last, freq, fp.avgGapDays, fp.domConsistency, fp.domDay),
		LastObserved:          last,
		Occurrences:           len(txs),
		TransactionIDs:        ids,
	}
	s.DetectionReason = detectionReason(s, params, hasOverride && recOverride.Recurring)
	return s, true
}

func (d *Detector) scoreFactors(mType MerchantType, params typeParams, occurrences int, fp fingerprint, freq Frequency) ConfidenceFactors {
	factors := ConfidenceFactors{MerchantType: params.recognitionWeight}

	n := occurrences
	if n > occurrenceSaturation {
		n = occurrenceSaturation
	}
	factors.Occurrence = float64(n) / float64(occurrenceSaturation) * occurrenceWeight

	relVariation := fp.variation / params.maxVariation
	if relVariation > 1 {
		relVariation = 1
	}
	factors.AmountConsistency = (1 - relVariation) * amountWeight

	factors.TimingConsistency = fp.domConsistency * timingDayWeight
	if freq != FrequencyIrregular {
		factors.TimingConsistency += timingFreqWeight
	}
	return factors
}

func (d *Detector) categoryNameFor(txs []ledger.Transaction) string {
	if d.CategoryName == nil {
		return ""
	}
	for _, tx := range txs {
		if tx.CategoryID != "" {
			return d.CategoryName(tx.CategoryID)
		}
	}
	return ""
}

// detectionReason assembles the human-readable explanation shown in the
// transparency UI. Diagnostic only.
func detectionReason(s Series, params typeParams, userMarked bool) string {
	parts := []string{
		fmt.Sprintf("recognized %s merchant", s.MerchantType),
		fmt.Sprintf("%d occurrences", s.Occurrences),
		fmt.Sprintf("amount variation %.1f%% (tolerance %.0f%%)", s.AmountVariation*100, params.maxVariation*100),
	}
	if s.Frequency != FrequencyIrregular {
		parts = append(parts, fmt.Sprintf("%s cadence with day-of-month consistency %.2f", s.Frequency, s.DayOfMonthConsistency))
	} else {
		parts = append(parts, "no regular cadence")
	}
	if userMarked {
		parts = append(parts, "user marked recurring")
	}
	return strings.Join(parts, "; ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
