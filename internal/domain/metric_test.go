package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want Metric
		ok   bool
	}{
		{"searches", MetricSearches, true},
		{"busquedas", MetricSearches, true},
		{"  Searches ", MetricSearches, true},
		{"creditos", MetricLeads, true},
		{"mensajes_ia", MetricAIMessages, true},
		{"exportaciones", MetricCSVExports, true},
		{"tareas", MetricTasks, true},
		{"widgets", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMetric(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestMetricGranularity(t *testing.T) {
	assert.Equal(t, GranularityDaily, MetricAIMessages.Granularity())
	assert.Equal(t, GranularityMonthly, MetricSearches.Granularity())
	assert.Equal(t, GranularityMonthly, MetricLeads.Granularity())
	assert.Equal(t, GranularityMonthly, MetricCSVExports.Granularity())
}
