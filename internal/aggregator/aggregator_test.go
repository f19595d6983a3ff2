package aggregator

import (
	"testing"
	"time"

	"cendeu-features-go/internal/types"
	"cendeu-features-go/internal/window"
)

var now = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func monthsAgo(n int) time.Time {
	return time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC).AddDate(0, -n, 0)
}

func windows(t *testing.T) window.Set {
	t.Helper()
	set, err := window.Compute(now, window.DefaultConfig())
	if err != nil {
		t.Fatalf("compute windows: %v", err)
	}
	return set
}

func rec(d time.Time, s int) types.DebtRecord {
	return types.DebtRecord{InformationDate: d, Situation: s}
}

func expectWorst(t *testing.T, got Situations, name string, want int, present bool) {
	t.Helper()
	v, ok := got.Worst[name]
	if ok != present {
		t.Fatalf("%s present = %v, want %v", name, ok, present)
	}
	if present && v != want {
		t.Fatalf("%s = %d, want %d", name, v, want)
	}
}

func TestAggregateNoRecords(t *testing.T) {
	got := Aggregate(nil, windows(t))
	if got.Current != nil {
		t.Fatalf("expected no current situation, got %d", *got.Current)
	}
	if len(got.Worst) != 0 {
		t.Fatalf("expected no worst values, got %v", got.Worst)
	}
}

func TestAggregateScenarios(t *testing.T) {
	cases := []struct {
		name    string
		records []types.DebtRecord
		current int
		last12  int
		has12   bool
		last24  int
		has24   bool
	}{
		{
			name:    "single record this month",
			records: []types.DebtRecord{rec(monthsAgo(0), 3)},
			current: 3, last12: 3, has12: true, last24: 3, has24: true,
		},
		{
			name:    "only thirteen months ago",
			records: []types.DebtRecord{rec(monthsAgo(13), 5)},
			current: 0, has12: false, last24: 5, has24: true,
		},
		{
			name:    "recent and twenty months ago",
			records: []types.DebtRecord{rec(monthsAgo(0), 2), rec(monthsAgo(20), 7)},
			current: 2, last12: 2, has12: true, last24: 7, has24: true,
		},
		{
			name:    "two months ago still current",
			records: []types.DebtRecord{rec(monthsAgo(2), 4), rec(monthsAgo(3), 5)},
			current: 4, last12: 5, has12: true, last24: 5, has24: true,
		},
		{
			name:    "older than every horizon",
			records: []types.DebtRecord{rec(monthsAgo(25), 5), rec(monthsAgo(40), 6)},
			current: 0, has12: false, has24: false,
		},
		{
			name:    "future dated",
			records: []types.DebtRecord{rec(now.AddDate(0, 2, 0), 6), rec(monthsAgo(1), 1)},
			current: 6, last12: 6, has12: true, last24: 6, has24: true,
		},
		{
			name:    "ties",
			records: []types.DebtRecord{rec(monthsAgo(0), 3), rec(monthsAgo(1), 3), rec(monthsAgo(5), 3)},
			current: 3, last12: 3, has12: true, last24: 3, has24: true,
		},
	}
	set := windows(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Aggregate(tc.records, set)
			if got.Current == nil {
				t.Fatalf("expected current situation")
			}
			if *got.Current != tc.current {
				t.Fatalf("current = %d, want %d", *got.Current, tc.current)
			}
			expectWorst(t, got, "last_12_months", tc.last12, tc.has12)
			expectWorst(t, got, "last_24_months", tc.last24, tc.has24)
		})
	}
}

func TestAggregateCutoffBoundaries(t *testing.T) {
	set := windows(t)
	got := Aggregate([]types.DebtRecord{
		rec(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), 4),
		rec(time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), 6),
		rec(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), 8),
		rec(time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), 9),
	}, set)
	expectWorst(t, got, "last_12_months", 4, true)
	expectWorst(t, got, "last_24_months", 8, true)
	if *got.Current != 0 {
		t.Fatalf("current = %d, want 0", *got.Current)
	}

	got = Aggregate([]types.DebtRecord{
		rec(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 2),
		rec(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), 5),
	}, set)
	if *got.Current != 2 {
		t.Fatalf("current = %d, want 2", *got.Current)
	}
}

func TestAggregateOldRecordsScoreZeroInCurrent(t *testing.T) {
	// a negative in-window code loses to the 0 an old record contributes
	got := Aggregate([]types.DebtRecord{rec(monthsAgo(0), -1), rec(monthsAgo(6), 5)}, windows(t))
	if *got.Current != 0 {
		t.Fatalf("current = %d, want 0", *got.Current)
	}
	got = Aggregate([]types.DebtRecord{rec(monthsAgo(0), -1)}, windows(t))
	if *got.Current != -1 {
		t.Fatalf("current = %d, want -1", *got.Current)
	}
}

func TestAggregateProperties(t *testing.T) {
	set := windows(t)
	records := []types.DebtRecord{
		rec(monthsAgo(0), 1), rec(monthsAgo(4), 2), rec(monthsAgo(11), 3),
		rec(monthsAgo(12), 6), rec(monthsAgo(18), 4), rec(monthsAgo(23), 5), rec(monthsAgo(30), 9),
	}
	first := Aggregate(records, set)
	second := Aggregate(records, set)
	if *first.Current != *second.Current || len(first.Worst) != len(second.Worst) {
		t.Fatalf("aggregate is not deterministic: %+v vs %+v", first, second)
	}
	for k, v := range first.Worst {
		if second.Worst[k] != v {
			t.Fatalf("%s differs between runs", k)
		}
	}

	w12, ok12 := first.Worst["last_12_months"]
	w24, ok24 := first.Worst["last_24_months"]
	if !ok12 || !ok24 {
		t.Fatalf("expected both windows present")
	}
	if w24 < w12 {
		t.Fatalf("24-month worst %d below 12-month worst %d", w24, w12)
	}
	if w12 != 6 || w24 != 6 {
		t.Fatalf("got 12m=%d 24m=%d, want 6 and 6", w12, w24)
	}
}

func TestAggregateCustomWindows(t *testing.T) {
	set, err := window.Compute(now, window.Config{
		CurrentMonths: 1,
		Windows:       []window.Spec{{Name: "last_6_months", Months: 6}},
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got := Aggregate([]types.DebtRecord{rec(monthsAgo(1), 3), rec(monthsAgo(6), 4)}, set)
	if *got.Current != 0 {
		t.Fatalf("current = %d, want 0", *got.Current)
	}
	expectWorst(t, got, "last_6_months", 4, true)
}
