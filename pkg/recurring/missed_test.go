package recurring

import (
	"testing"
	"time"
)

func TestFindMissedAsOf(t *testing.T) {
	today := time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)
	due := func(daysAgo int) time.Time { return today.AddDate(0, 0, -daysAgo) }

	cases := []struct {
		name        string
		dueDaysAgo  int
		wantMissed  bool
		wantUrgency Urgency
	}{
		{name: "due today is not missed", dueDaysAgo: 0, wantMissed: false},
		{name: "due tomorrow is not missed", dueDaysAgo: -1, wantMissed: false},
		{name: "one day past due is low", dueDaysAgo: 1, wantMissed: true, wantUrgency: UrgencyLow},
		{name: "seven days past due is low", dueDaysAgo: 7, wantMissed: true, wantUrgency: UrgencyLow},
		{name: "eight days past due is medium", dueDaysAgo: 8, wantMissed: true, wantUrgency: UrgencyMedium},
		{name: "ten days past due is medium", dueDaysAgo: 10, wantMissed: true, wantUrgency: UrgencyMedium},
		{name: "fifteen days past due is high", dueDaysAgo: 15, wantMissed: true, wantUrgency: UrgencyHigh},
		{name: "thirty days past due is high", dueDaysAgo: 30, wantMissed: true, wantUrgency: UrgencyHigh},
		{name: "over thirty days is assumed cancelled", dueDaysAgo: 31, wantMissed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			series := []Series{{MerchantKey: "netflix", NextDueDate: due(tc.dueDaysAgo)}}
			missed := FindMissedAsOf(series, today)

			if !tc.wantMissed {
				if len(missed) != 0 {
					t.Fatalf("expected no missed payments, got %d", len(missed))
				}
				return
			}
			if len(missed) != 1 {
				t.Fatalf("expected 1 missed payment, got %d", len(missed))
			}
			if missed[0].DaysPastDue != tc.dueDaysAgo {
				t.Errorf("days past due = %d, want %d", missed[0].DaysPastDue, tc.dueDaysAgo)
			}
			if missed[0].Urgency != tc.wantUrgency {
				t.Errorf("urgency = %s, want %s", missed[0].Urgency, tc.wantUrgency)
			}
		})
	}
}

func TestFindMissedSkipsSeriesWithoutDueDate(t *testing.T) {
	today := time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)
	series := []Series{{MerchantKey: "unknown biller"}}
	if missed := FindMissedAsOf(series, today); len(missed) != 0 {
		t.Fatalf("expected zero missed payments for series without a due date, got %d", len(missed))
	}
}
