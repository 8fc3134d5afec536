// Package period derives canonical counter-bucketing keys from timestamps.
//
// All keys are anchored to UTC so that a tenant's usage rolls over at the
// same instant regardless of server locale. Keys sort lexicographically in
// chronological order.
package period

import "time"

// Clock supplies the current time. Injected so that services and tests can
// freeze "now".
type Clock func() time.Time

// SystemClock returns the real current time.
func SystemClock() time.Time {
	return time.Now()
}

// MonthlyKey returns the month bucket for t, e.g. "202601".
func MonthlyKey(t time.Time) string {
	return t.UTC().Format("200601")
}

// DailyKey returns the day bucket for t, e.g. "20260115".
func DailyKey(t time.Time) string {
	return t.UTC().Format("20060102")
}
