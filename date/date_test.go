package date

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		in        string
		want      Date
		expectErr bool
	}{
		{"Standard format", "2025-07-01", New(2025, time.July, 1), false},
		{"Permissive format", "2025-7-1", New(2025, time.July, 1), false},
		{"Invalid month", "2025-13-01", Date{}, true},
		{"Garbage", "not-a-date", Date{}, true},
		{"Empty", "", Date{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			hasErr := err != nil
			if hasErr != tc.expectErr {
				t.Fatalf("Parse(%q) returned error: %v, want error: %v", tc.in, err, tc.expectErr)
			}
			if !tc.expectErr && got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestAddNormalizes(t *testing.T) {
	d := New(2025, time.January, 31).Add(1)
	if got, want := d.String(), "2025-02-01"; got != want {
		t.Errorf("Add(1) = %s, want %s", got, want)
	}
}

func TestIsTradingDay(t *testing.T) {
	testCases := []struct {
		name string
		day  Date
		want bool
	}{
		{"Friday", New(2025, time.August, 29), true},
		{"Saturday", New(2025, time.August, 30), false},
		{"Sunday", New(2025, time.August, 31), false},
		{"Monday", New(2025, time.September, 1), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.day.IsTradingDay(); got != tc.want {
				t.Errorf("IsTradingDay(%s) = %v, want %v", tc.day, got, tc.want)
			}
		})
	}
}

func TestPreviousTradingDay(t *testing.T) {
	// Monday 2025-09-01 -> Friday 2025-08-29, skipping the weekend.
	monday := New(2025, time.September, 1)
	if got, want := monday.PreviousTradingDay(), New(2025, time.August, 29); got != want {
		t.Errorf("PreviousTradingDay(%s) = %s, want %s", monday, got, want)
	}
}

func TestTradingDays(t *testing.T) {
	// 2025-08-28 (Thu) to 2025-09-02 (Tue) has 4 trading days.
	var days []Date
	for on := range TradingDays(New(2025, time.August, 28), New(2025, time.September, 2)) {
		days = append(days, on)
	}
	if len(days) != 4 {
		t.Fatalf("TradingDays returned %d days, want 4: %v", len(days), days)
	}
	for _, on := range days {
		if !on.IsTradingDay() {
			t.Errorf("TradingDays yielded non-trading day %s", on)
		}
	}
}

func TestHistoryAppendKeepsOrder(t *testing.T) {
	var h History[float64]
	h.Append(New(2025, time.March, 3), 3)
	h.Append(New(2025, time.March, 1), 1)
	h.Append(New(2025, time.March, 2), 2)

	var prev Date
	for on := range h.Values() {
		if !prev.IsZero() && !prev.Before(on) {
			t.Fatalf("history not chronological: %s then %s", prev, on)
		}
		prev = on
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestHistoryAppendOverwrites(t *testing.T) {
	var h History[float64]
	on := New(2025, time.March, 3)
	h.Append(on, 3).Append(on, 4)
	if v, ok := h.Get(on); !ok || v != 4 {
		t.Errorf("Get(%s) = %v, %v, want 4, true", on, v, ok)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestHistoryValueAsOf(t *testing.T) {
	var h History[float64]
	h.Append(New(2025, time.March, 3), 3)
	h.Append(New(2025, time.March, 7), 7)

	testCases := []struct {
		name   string
		on     Date
		want   float64
		wantOK bool
	}{
		{"Exact day", New(2025, time.March, 3), 3, true},
		{"Between days", New(2025, time.March, 5), 3, true},
		{"After last", New(2025, time.March, 10), 7, true},
		{"Before first", New(2025, time.March, 1), 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := h.ValueAsOf(tc.on)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ValueAsOf(%s) = %v, %v, want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestHistoryTail(t *testing.T) {
	var h History[float64]
	for i := 1; i <= 5; i++ {
		h.Append(New(2025, time.March, i), float64(i))
	}
	tail := h.Tail(3)
	if len(tail) != 3 || tail[0] != 3 || tail[2] != 5 {
		t.Errorf("Tail(3) = %v, want [3 4 5]", tail)
	}
	if got := h.Tail(10); len(got) != 5 {
		t.Errorf("Tail(10) returned %d values, want 5", len(got))
	}
}
