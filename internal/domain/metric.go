// Package domain contains core business types and interfaces.
//
// This file defines the canonical metric enumeration used for usage metering.
// External inputs (API payloads, legacy counter rows) refer to metrics by a
// variety of synonyms; ParseMetric normalizes them at the boundary so the
// rest of the system only ever sees canonical values.
package domain

import "strings"

// Metric identifies a metered resource.
type Metric string

const (
	MetricLeads      Metric = "leads"
	MetricSearches   Metric = "searches"
	MetricAIMessages Metric = "ai_messages"
	MetricTasks      Metric = "tasks"
	MetricCSVExports Metric = "csv_exports"
)

// Granularity is the counter bucketing window for a metric.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// metricAliases maps every accepted synonym to its canonical metric.
// The legacy system accumulated Spanish and abbreviated spellings; they are
// accepted on input but never emitted.
var metricAliases = map[string]Metric{
	"leads":         MetricLeads,
	"lead_credits":  MetricLeads,
	"creditos":      MetricLeads,
	"searches":      MetricSearches,
	"busquedas":     MetricSearches,
	"search":        MetricSearches,
	"ai_messages":   MetricAIMessages,
	"ai_msgs":       MetricAIMessages,
	"ia_msgs":       MetricAIMessages,
	"mensajes_ia":   MetricAIMessages,
	"tasks":         MetricTasks,
	"tareas":        MetricTasks,
	"csv_exports":   MetricCSVExports,
	"exports":       MetricCSVExports,
	"exportaciones": MetricCSVExports,
}

// ParseMetric resolves a metric name or alias to its canonical value.
// Returns false for unknown names.
func ParseMetric(name string) (Metric, bool) {
	m, ok := metricAliases[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Valid reports whether m is one of the canonical metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricLeads, MetricSearches, MetricAIMessages, MetricTasks, MetricCSVExports:
		return true
	default:
		return false
	}
}

// Granularity returns the counter window for the metric.
// AI messages are throttled per day; everything else is bucketed monthly.
func (m Metric) Granularity() Granularity {
	if m == MetricAIMessages {
		return GranularityDaily
	}
	return GranularityMonthly
}
