package recurring

import (
	"math"
	"time"

	"BudgetHero/pkg/ledger"

	"github.com/shopspring/decimal"
)

// dayTolerance is the clustering window for day-of-month consistency:
// occurrences within ±3 days of an anchor day count as the same billing day.
const dayTolerance = 3

// fingerprint is the statistical summary of one merchant's transactions.
type fingerprint struct {
	avgAmount      decimal.Decimal
	variation      float64 // coefficient of variation of the absolute amounts
	avgGapDays     float64 // mean gap between consecutive transactions
	domConsistency float64 // share of occurrences inside the best day cluster
	domDay         int     // anchor day of that cluster
}

// computeFingerprint expects txs sorted by date ascending.
func computeFingerprint(txs []ledger.Transaction) fingerprint {
	amounts := make([]float64, len(txs))
	sum := decimal.Zero
	for i, tx := range txs {
		abs := tx.Amount.Abs()
		amounts[i] = abs.InexactFloat64()
		sum = sum.Add(abs)
	}
	fp := fingerprint{
		avgAmount: sum.Div(decimal.NewFromInt(int64(len(txs)))).Round(2),
	}

	mean := meanOf(amounts)
	if mean > 0 {
		fp.variation = stddevOf(amounts, mean) / mean
	}

	if len(txs) > 1 {
		var gapSum float64
		for i := 1; i < len(txs); i++ {
			gapSum += float64(daysBetween(txs[i-1].Date, txs[i].Date))
		}
		fp.avgGapDays = gapSum / float64(len(txs)-1)
	}

	fp.domDay, fp.domConsistency = bestDayCluster(txs)
	return fp
}

// bestDayCluster finds the day-of-month anchor whose ±dayTolerance window
// covers the most occurrences. Ties resolve to the earliest day so the result
// is deterministic. Month-end wrap (day 31 vs day 1) is deliberately not
// special-cased; the due-date projection clamps to day 28 anyway.
func bestDayCluster(txs []ledger.Transaction) (int, float64) {
	if len(txs) == 0 {
		return 0, 0
	}
	days := make([]int, len(txs))
	for i, tx := range txs {
		days[i] = tx.Date.Day()
	}

	bestDay, bestCount := 0, 0
	for _, anchor := range days {
		count := 0
		for _, d := range days {
			if abs(d-anchor) <= dayTolerance {
				count++
			}
		}
		if count > bestCount || (count == bestCount && anchor < bestDay) {
			bestDay = anchor
			bestCount = count
		}
	}
	return bestDay, float64(bestCount) / float64(len(days))
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
