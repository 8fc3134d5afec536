package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, EINVALID, ErrorCode(Invalid("op", "bad input")))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))

	// Wrapped application errors keep their code.
	wrapped := fmt.Errorf("saving leads: %w", Conflict("leads.save", "duplicate"))
	assert.Equal(t, ECONFLICT, ErrorCode(wrapped))

	denial := QuotaExceeded("quota.consume_search", MetricSearches, PlanFree, 4, 4)
	assert.Equal(t, ELIMIT, ErrorCode(denial))
	assert.Equal(t, ELIMIT, ErrorCode(fmt.Errorf("search: %w", denial)))
}

func TestErrorMessageMasksInternal(t *testing.T) {
	internal := Internal(errors.New("pq: connection refused"), "tenant.get_by_id", "failed to load tenant")
	msg := ErrorMessage(internal)
	assert.NotContains(t, msg, "connection refused")
	assert.NotContains(t, msg, "failed to load tenant")

	assert.Equal(t, "bad input", ErrorMessage(Invalid("op", "bad input")))
}

func TestQuotaExceeded(t *testing.T) {
	denial := QuotaExceeded("quota.consume_export", MetricCSVExports, PlanFree, 1, 1)

	require.NotNil(t, denial.Limit)
	assert.Equal(t, 1, *denial.Limit)
	require.NotNil(t, denial.Remaining)
	assert.Equal(t, 0, *denial.Remaining)
	assert.Contains(t, denial.Error(), "csv_exports")
	assert.Contains(t, denial.Error(), "free")

	// Overshoot never reports negative remaining.
	over := QuotaExceeded("op", MetricLeads, PlanStarter, 150, 153)
	assert.Equal(t, 0, *over.Remaining)
}

func TestIsQuotaExceeded(t *testing.T) {
	denial := QuotaExceeded("op", MetricTasks, PlanFree, 3, 3)

	got, ok := IsQuotaExceeded(fmt.Errorf("creating task: %w", denial))
	require.True(t, ok)
	assert.Equal(t, MetricTasks, got.Resource)

	_, ok = IsQuotaExceeded(Invalid("op", "nope"))
	assert.False(t, ok)
}
