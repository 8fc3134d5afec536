package period

import (
	"testing"
	"time"
)

func TestMonthlyKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "mid month",
			in:   time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
			want: "202601",
		},
		{
			name: "single digit month zero padded",
			in:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			want: "202603",
		},
		{
			name: "non-UTC timestamp anchored to UTC",
			// 2026-01-31 23:30 at UTC-5 is already February in UTC.
			in:   time.Date(2026, 1, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)),
			want: "202602",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthlyKey(tt.in); got != tt.want {
				t.Errorf("MonthlyKey(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDailyKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "mid month",
			in:   time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
			want: "20260115",
		},
		{
			name: "day boundary in foreign zone",
			in:   time.Date(2026, 6, 1, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			want: "20260531",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyKey(tt.in); got != tt.want {
				t.Errorf("DailyKey(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeysAreDeterministic(t *testing.T) {
	at := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)
	if MonthlyKey(at) != MonthlyKey(at) || DailyKey(at) != DailyKey(at) {
		t.Error("period keys must be deterministic for the same instant")
	}
}

func TestPeriodIsolation(t *testing.T) {
	jan := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	if MonthlyKey(jan) == MonthlyKey(feb) {
		t.Error("adjacent months must produce distinct keys")
	}
	if DailyKey(jan) == DailyKey(feb) {
		t.Error("adjacent days must produce distinct keys")
	}
}
