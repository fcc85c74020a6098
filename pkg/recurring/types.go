// Package recurring detects recurring payment series (subscriptions, bills,
// loan payments) in a user's transaction history and flags series whose next
// expected payment is overdue. Detection is a full recompute over an
// in-memory snapshot: no incremental merging, so two runs over unchanged data
// produce identical series.
package recurring

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency is the inferred cadence of a series.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyIrregular Frequency = "irregular"
)

// MerchantType classifies what kind of biller a merchant looks like. The type
// sets the minimum evidence and the tolerated amount variance for a series.
type MerchantType string

const (
	MerchantTypeSubscription  MerchantType = "subscription"
	MerchantTypeUtility       MerchantType = "utility"
	MerchantTypeInsurance     MerchantType = "insurance"
	MerchantTypeLoan          MerchantType = "loan"
	MerchantTypeDiscretionary MerchantType = "discretionary"
	MerchantTypeUnknown       MerchantType = "unknown"
)

// ConfidenceFactors are the bounded components of a series' confidence score,
// kept on the series for transparency.
type ConfidenceFactors struct {
	MerchantType      float64 `json:"merchant_type"`
	Occurrence        float64 `json:"occurrence"`
	AmountConsistency float64 `json:"amount_consistency"`
	TimingConsistency float64 `json:"timing_consistency"`
	OverrideBonus     float64 `json:"override_bonus"`
}

// Series is one detected recurring payment series. It is a derived,
// recomputable aggregate: regenerated wholesale per user on each detection
// run, never patched incrementally.
type Series struct {
	ID                    string            `json:"id"`
	UserID                string            `json:"user_id"`
	MerchantKey           string            `json:"merchant_key"`
	MerchantType          MerchantType      `json:"merchant_type"`
	Frequency             Frequency         `json:"frequency"`
	AverageAmount         decimal.Decimal   `json:"average_amount"`
	AmountVariation       float64           `json:"amount_variation"` // coefficient of variation
	DayOfMonthConsistency float64           `json:"day_of_month_consistency"`
	Confidence            float64           `json:"confidence"`
	Factors               ConfidenceFactors `json:"factors"`
	NextDueDate           time.Time         `json:"next_due_date"`
	LastObserved          time.Time         `json:"last_observed"`
	Occurrences           int               `json:"occurrences"`
	TransactionIDs        []string          `json:"transaction_ids"`
	DetectionReason       string            `json:"detection_reason"` // diagnostic only, not used in logic
}

// Urgency tiers a missed payment by how overdue it is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"    // 1-7 days past due
	UrgencyMedium Urgency = "medium" // 8-14 days past due
	UrgencyHigh   Urgency = "high"   // 15-30 days past due
)

// MissedPayment is a recurring series whose next expected date has passed
// without a matching transaction.
type MissedPayment struct {
	Series      Series  `json:"series"`
	DaysPastDue int     `json:"days_past_due"`
	Urgency     Urgency `json:"urgency"`
}

// seriesID derives a stable id from the series identity, so re-running
// detection on unchanged data reproduces the same rows.
func seriesID(userID, merchantKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("recurring-series:"+userID+":"+merchantKey)).String()
}
