package recurring

import "time"

const missedWindowDays = 30

// FindMissed scans detected series for bills that are past due as of now.
func (d *Detector) FindMissed(series []Series) []MissedPayment {
	return FindMissedAsOf(series, d.now())
}

// FindMissedAsOf reports series whose projected due date has passed without a
// matching transaction. Series more than 30 days overdue are dropped on the
// assumption the bill was cancelled rather than missed.
func FindMissedAsOf(series []Series, today time.Time) []MissedPayment {
	var missed []MissedPayment
	for _, s := range series {
		if s.NextDueDate.IsZero() {
			continue
		}
		past := daysBetween(s.NextDueDate, today)
		if past <= 0 || past > missedWindowDays {
			continue
		}
		missed = append(missed, MissedPayment{
			Series:      s,
			DaysPastDue: past,
			Urgency:     urgencyFor(past),
		})
	}
	return missed
}

func urgencyFor(daysPastDue int) Urgency {
	switch {
	case daysPastDue <= 7:
		return UrgencyLow
	case daysPastDue <= 14:
		return UrgencyMedium
	default:
		return UrgencyHigh
	}
}
