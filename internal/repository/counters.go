package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Counter operations.
//
// The usage_counters table holds one row per (tenant, metric, period)
// triple, enforced by the primary key. Concurrency control is the storage
// layer's atomic upsert: increments never read-then-write, so concurrent
// callers cannot lose updates.

const ensureCounter = `
INSERT INTO usage_counters (tenant_id, metric, period, value, updated_at)
VALUES ($1, $2, $3, 0, now())
ON CONFLICT (tenant_id, metric, period) DO NOTHING
`

// EnsureCounter idempotently creates a zero-valued counter row. A concurrent
// duplicate insert is silently absorbed by the conflict clause.
func (q *Queries) EnsureCounter(ctx context.Context, tenantID int64, metric, period string) error {
	_, err := q.db.ExecContext(ctx, ensureCounter, tenantID, metric, period)
	return err
}

const incrementCounter = `
INSERT INTO usage_counters (tenant_id, metric, period, value, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (tenant_id, metric, period)
DO UPDATE SET value = usage_counters.value + EXCLUDED.value, updated_at = now()
`

// IncrementCounter atomically adds amount to the counter, creating the row
// if absent. The upsert is a single statement: no lost updates under
// concurrent increments on the same key.
func (q *Queries) IncrementCounter(ctx context.Context, tenantID int64, metric, period string, amount int64) error {
	_, err := q.db.ExecContext(ctx, incrementCounter, tenantID, metric, period, amount)
	return err
}

const getCounterValue = `
SELECT value FROM usage_counters
WHERE tenant_id = $1 AND metric = $2 AND period = $3
`

// GetCounterValue returns the counter value, or 0 when no row exists.
func (q *Queries) GetCounterValue(ctx context.Context, tenantID int64, metric, period string) (int64, error) {
	var value int64
	err := q.db.QueryRowContext(ctx, getCounterValue, tenantID, metric, period).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return value, nil
}
