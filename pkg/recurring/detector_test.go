package recurring

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/override"

	"github.com/shopspring/decimal"
)

func expenseTx(id, merchant string, amount float64, date time.Time) ledger.Transaction {
	return ledger.Transaction{
		ID:       id,
		UserID:   "user-1",
		Date:     date,
		Merchant: merchant,
		Amount:   decimal.NewFromFloat(-amount),
	}
}

func monthlySeries(merchant string, amount float64, months int, day int) []ledger.Transaction {
	txs := make([]ledger.Transaction, 0, months)
	for i := 0; i < months; i++ {
		date := time.Date(2026, time.Month(1+i), day, 0, 0, 0, 0, time.UTC)
		txs = append(txs, expenseTx(fmt.Sprintf("%s-%d", merchant, i), merchant, amount, date))
	}
	return txs
}

func TestDetectMonthlySubscription(t *testing.T) {
	txs := monthlySeries("Netflix", 15.99, 6, 15)

	series := NewDetector().Detect("user-1", txs, nil)
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}

	s := series[0]
	if s.MerchantKey != "netflix" {
		t.Errorf("merchant key = %q, want netflix", s.MerchantKey)
	}
	if s.MerchantType != MerchantTypeSubscription {
		t.Errorf("merchant type = %s, want subscription", s.MerchantType)
	}
	if s.Frequency != FrequencyMonthly {
		t.Errorf("frequency = %s, want monthly", s.Frequency)
	}
	if s.Confidence < 0.85 {
		t.Errorf("confidence = %.2f, want >= 0.85", s.Confidence)
	}
	if want := decimal.NewFromFloat(15.99); !s.AverageAmount.Equal(want) {
		t.Errorf("average amount = %s, want %s", s.AverageAmount, want)
	}
	wantDue := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)
	if !s.NextDueDate.Equal(wantDue) {
		t.Errorf("next due = %s, want %s", s.NextDueDate.Format("2006-01-02"), wantDue.Format("2006-01-02"))
	}
	if s.Occurrences != 6 || len(s.TransactionIDs) != 6 {
		t.Errorf("occurrences = %d with %d transaction ids, want 6/6", s.Occurrences, len(s.TransactionIDs))
	}
	if s.DetectionReason == "" {
		t.Error("expected a detection reason")
	}
}

func TestDetectExcludesDiscretionary(t *testing.T) {
	var txs []ledger.Transaction
	for i := 0; i < 8; i++ {
		date := time.Date(2026, time.March, 1+i*3, 0, 0, 0, 0, time.UTC)
		txs = append(txs, expenseTx(fmt.Sprintf("uber-%d", i), "Uber", 23.50, date))
	}

	if series := NewDetector().Detect("user-1", txs, nil); len(series) != 0 {
		t.Fatalf("expected no series for discretionary merchant, got %d", len(series))
	}
}

func TestDetectExcludesIncomeAndZeroDates(t *testing.T) {
	txs := monthlySeries("Spotify", 9.99, 4, 10)
	// Refund and unparsable-date rows must not disturb the series.
	refund := expenseTx("spotify-refund", "Spotify", 9.99, time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC))
	refund.Amount = refund.Amount.Neg()
	noDate := expenseTx("spotify-nodate", "Spotify", 9.99, time.Time{})
	txs = append(txs, refund, noDate)

	series := NewDetector().Detect("user-1", txs, nil)
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	if series[0].Occurrences != 4 {
		t.Errorf("occurrences = %d, want 4 (refund and undated rows excluded)", series[0].Occurrences)
	}
}

func TestDetectVarianceGate(t *testing.T) {
	var txs []ledger.Transaction
	amounts := []float64{40, 95, 12, 230}
	for i, amt := range amounts {
		date := time.Date(2026, time.Month(1+i), 5, 0, 0, 0, 0, time.UTC)
		txs = append(txs, expenseTx(fmt.Sprintf("acme-%d", i), "Acme Widgets", amt, date))
	}

	if series := NewDetector().Detect("user-1", txs, nil); len(series) != 0 {
		t.Fatalf("expected erratic amounts to be rejected, got %d series", len(series))
	}
}

func TestDetectUtilityToleratesVariableAmounts(t *testing.T) {
	var txs []ledger.Transaction
	amounts := []float64{84.20, 91.05, 78.33, 96.80, 88.10}
	for i, amt := range amounts {
		date := time.Date(2026, time.Month(1+i), 20, 0, 0, 0, 0, time.UTC)
		txs = append(txs, expenseTx(fmt.Sprintf("pge-%d", i), "PG&E", amt, date))
	}

	series := NewDetector().Detect("user-1", txs, nil)
	if len(series) != 1 {
		t.Fatalf("expected 1 utility series, got %d", len(series))
	}
	if series[0].MerchantType != MerchantTypeUtility {
		t.Errorf("merchant type = %s, want utility", series[0].MerchantType)
	}
}

func TestDetectNonRecurringOverrideExcludes(t *testing.T) {
	txs := monthlySeries("Planet Fitness", 24.99, 6, 3)
	overrides := override.NewUserOverrides(nil, []override.RecurringOverride{{
		UserID:      "user-1",
		MerchantKey: "planet fitness",
		Recurring:   false,
		Scope:       override.ScopeAllTransactions,
		Active:      true,
	}})

	if series := NewDetector().Detect("user-1", txs, overrides); len(series) != 0 {
		t.Fatalf("expected non-recurring override to exclude series, got %d", len(series))
	}

	// A narrow one-off correction does not suppress the series.
	narrow := override.NewUserOverrides(nil, []override.RecurringOverride{{
		UserID:      "user-1",
		MerchantKey: "planet fitness",
		Recurring:   false,
		Scope:       override.ScopeThisInstance,
		Active:      true,
	}})
	if series := NewDetector().Detect("user-1", txs, narrow); len(series) != 1 {
		t.Fatalf("expected instance-scoped override to keep series, got %d", len(series))
	}
}

func TestDetectRecurringOverrideBoostsConfidence(t *testing.T) {
	// Two occurrences of an unknown merchant: below the evidence floor on
	// their own.
	txs := monthlySeries("Riverside HOA", 120.00, 2, 1)

	if series := NewDetector().Detect("user-1", txs, nil); len(series) != 0 {
		t.Fatalf("expected weak unknown merchant to be excluded, got %d series", len(series))
	}

	overrides := override.NewUserOverrides(nil, []override.RecurringOverride{{
		UserID:      "user-1",
		MerchantKey: "riverside hoa",
		Recurring:   true,
		Scope:       override.ScopeAllTransactions,
		Active:      true,
	}})
	// Still gated by minimum occurrences for unknown merchants.
	if series := NewDetector().Detect("user-1", txs, overrides); len(series) != 0 {
		t.Fatalf("override must not bypass the occurrence gate, got %d series", len(series))
	}

	txs = monthlySeries("Riverside HOA", 120.00, 3, 1)
	base := NewDetector().Detect("user-1", txs, nil)
	boosted := NewDetector().Detect("user-1", txs, overrides)
	if len(boosted) != 1 {
		t.Fatalf("expected boosted series, got %d", len(boosted))
	}
	if boosted[0].Factors.OverrideBonus != overrideBonus {
		t.Errorf("override bonus = %.2f, want %.2f", boosted[0].Factors.OverrideBonus, overrideBonus)
	}
	if len(base) == 1 && boosted[0].Confidence <= base[0].Confidence {
		t.Errorf("boosted confidence %.2f not above base %.2f", boosted[0].Confidence, base[0].Confidence)
	}
}

func TestDetectConfidenceGrowsWithOccurrences(t *testing.T) {
	detect := func(months int) float64 {
		series := NewDetector().Detect("user-1", monthlySeries("Hulu", 12.99, months, 8), nil)
		if len(series) != 1 {
			t.Fatalf("expected 1 series at %d months, got %d", months, len(series))
		}
		return series[0].Confidence
	}

	prev := detect(2)
	for months := 3; months <= 6; months++ {
		cur := detect(months)
		if cur < prev {
			t.Errorf("confidence fell from %.3f to %.3f at %d months", prev, cur, months)
		}
		prev = cur
	}
}

func TestDetectDeterministic(t *testing.T) {
	txs := monthlySeries("Netflix", 15.99, 5, 15)
	txs = append(txs, monthlySeries("GEICO", 88.40, 4, 2)...)

	first := NewDetector().Detect("user-1", txs, nil)
	second := NewDetector().Detect("user-1", txs, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("detection over unchanged data produced different series")
	}
	if len(first) < 2 {
		t.Fatalf("expected at least 2 series, got %d", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i].Confidence > first[i-1].Confidence {
			t.Errorf("series not ordered by confidence at index %d", i)
		}
	}
}

func TestInferFrequency(t *testing.T) {
	cases := []struct {
		gap  float64
		want Frequency
	}{
		{7, FrequencyWeekly},
		{9, FrequencyWeekly},
		{14, FrequencyBiweekly},
		{17, FrequencyBiweekly},
		{29, FrequencyMonthly},
		{30, FrequencyMonthly},
		{31, FrequencyMonthly},
		{37, FrequencyMonthly},
		{45, FrequencyIrregular},
		{90, FrequencyQuarterly},
		{365, FrequencyYearly},
		{200, FrequencyIrregular},
	}
	for _, tc := range cases {
		if got := inferFrequency(tc.gap); got != tc.want {
			t.Errorf("inferFrequency(%.0f) = %s, want %s", tc.gap, got, tc.want)
		}
	}
}

func TestProjectNextDuePinsBillingDay(t *testing.T) {
	// Mid-month billers pin to their usual day in the following month.
	last := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	next := projectNextDue(last, FrequencyMonthly, 30, 0.9, 15)
	want := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next due = %s, want %s", next.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	// Low consistency leaves the calendar arithmetic alone.
	last = time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	next = projectNextDue(last, FrequencyMonthly, 30, 0.4, 31)
	want = time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("unpinned next due = %s, want %s", next.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestProjectNextDueEndOfMonthStaysMonthly(t *testing.T) {
	// A biller on the 31st is due the very next month, clamped to day 28.
	// Calendar normalization of Jan 31 + 1 month lands in March; pinning
	// must not inherit that and skip February.
	last := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	next := projectNextDue(last, FrequencyMonthly, 30, 0.9, 31)
	want := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next due = %s, want %s", next.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if gap := next.Sub(last).Hours() / 24; gap > 31 {
		t.Errorf("monthly gap = %.0f days, want at most 31", gap)
	}

	// Quarterly end-of-month billers advance exactly three months.
	next = projectNextDue(last, FrequencyQuarterly, 90, 0.9, 31)
	want = time.Date(2026, time.April, 28, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("quarterly next due = %s, want %s", next.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}
