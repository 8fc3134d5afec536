package repository

import (
	"strings"
	"testing"
)

// The counter statements are the storage layer's whole concurrency story:
// each must be a single conflict-aware upsert so that concurrent callers on
// the same (tenant, metric, period) key never read-then-write.
func TestCounterStatementsAreConflictAware(t *testing.T) {
	if !strings.Contains(ensureCounter, "ON CONFLICT (tenant_id, metric, period) DO NOTHING") {
		t.Errorf("ensureCounter is not idempotent:\n%s", ensureCounter)
	}
	if !strings.Contains(incrementCounter, "DO UPDATE SET value = usage_counters.value + EXCLUDED.value") {
		t.Errorf("incrementCounter does not accumulate atomically:\n%s", incrementCounter)
	}
	if strings.Contains(ensureCounter, "DO UPDATE") {
		t.Error("ensureCounter must never overwrite an existing value")
	}
}
