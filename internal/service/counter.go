// Package service contains the business logic layer.
//
// This file defines the CounterStore capability: durable, per-tenant,
// per-metric, per-period integer counters. Isolating it behind an interface
// keeps the quota engine's fail-open policy swappable and testable without
// touching quota logic.
package service

import (
	"context"

	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/repository"
)

// CounterStore provides idempotent creation and atomic increments of usage
// counters. Implementations must guarantee that concurrent increments on the
// same (tenant, metric, period) key never lose updates.
type CounterStore interface {
	// Ensure idempotently creates a zero-valued counter row if absent.
	// Safe under concurrent callers; the second writer silently no-ops.
	Ensure(ctx context.Context, tenantID int64, metric domain.Metric, period string) error

	// Increment atomically adds amount to the counter, creating it at zero
	// first if absent. Side effect only.
	Increment(ctx context.Context, tenantID int64, metric domain.Metric, period string, amount int) error

	// Read returns the current value, or 0 when the row does not exist.
	Read(ctx context.Context, tenantID int64, metric domain.Metric, period string) (int, error)
}

// dbCounterStore backs counters with the usage_counters table.
type dbCounterStore struct {
	queries *repository.Queries
}

// NewCounterStore creates a CounterStore over the database.
func NewCounterStore(queries *repository.Queries) CounterStore {
	return &dbCounterStore{queries: queries}
}

func (s *dbCounterStore) Ensure(ctx context.Context, tenantID int64, metric domain.Metric, period string) error {
	return s.queries.EnsureCounter(ctx, tenantID, string(metric), period)
}

func (s *dbCounterStore) Increment(ctx context.Context, tenantID int64, metric domain.Metric, period string, amount int) error {
	return s.queries.IncrementCounter(ctx, tenantID, string(metric), period, int64(amount))
}

func (s *dbCounterStore) Read(ctx context.Context, tenantID int64, metric domain.Metric, period string) (int, error) {
	value, err := s.queries.GetCounterValue(ctx, tenantID, string(metric), period)
	if err != nil {
		return 0, err
	}
	return int(value), nil
}
