package recurring

import (
	"math"
	"time"
)

// frequencyBands are fixed cadence bands with tolerance, checked ascending.
// An average gap outside every band is irregular.
var frequencyBands = []struct {
	freq      Frequency
	center    float64
	tolerance float64
}{
	{FrequencyWeekly, 7, 2},
	{FrequencyBiweekly, 14, 3},
	{FrequencyMonthly, 30, 7},
	{FrequencyQuarterly, 90, 14},
	{FrequencyYearly, 365, 30},
}

// inferFrequency matches the average inter-transaction gap against the bands.
func inferFrequency(avgGapDays float64) Frequency {
	for _, b := range frequencyBands {
		if avgGapDays >= b.center-b.tolerance && avgGapDays <= b.center+b.tolerance {
			return b.freq
		}
	}
	return FrequencyIrregular
}

// dayPinThreshold: above this day-of-month consistency the projected due date
// is pinned to the dominant billing day.
const dayPinThreshold = 0.7

// maxPinnedDay clamps the pinned day to dodge short-month overflow. True
// end-of-month billers (day 29-31) shift a few days early; known
// approximation.
const maxPinnedDay = 28

// projectNextDue advances the last observed date by the inferred frequency.
// Irregular series advance by their own average gap.
func projectNextDue(last time.Time, freq Frequency, avgGapDays, domConsistency float64, domDay int) time.Time {
	var next time.Time
	switch freq {
	case FrequencyWeekly:
		next = last.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		next = last.AddDate(0, 0, 14)
	case FrequencyMonthly:
		next = last.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		next = last.AddDate(0, 3, 0)
	case FrequencyYearly:
		next = last.AddDate(1, 0, 0)
	default:
		gap := int(math.Round(avgGapDays))
		if gap < 1 {
			gap = 30
		}
		next = last.AddDate(0, 0, gap)
	}

	if domConsistency > dayPinThreshold && monthAligned(freq) {
		day := domDay
		if day > maxPinnedDay {
			day = maxPinnedDay
		}
		if day > 0 {
			// Pin relative to the observed month, not the AddDate result:
			// Jan 31 plus one month normalizes into March, and pinning that
			// would skip February outright. Clamped to day 28 the pinned
			// date never overflows.
			next = time.Date(last.Year(), last.Month()+monthStep(freq), day, 0, 0, 0, 0, last.Location())
		}
	}
	return next
}

func monthAligned(freq Frequency) bool {
	switch freq {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

func monthStep(freq Frequency) time.Month {
	switch freq {
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	default:
		return 1
	}
}
