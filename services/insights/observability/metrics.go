// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the insights
// pipeline.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "insights"
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for query processing.
//
// Initialize once at startup via InitMetrics().
type PipelineMetrics struct {
	// RequestsTotal counts process invocations.
	// Labels: status (success, validation_error), cache (hit, miss)
	RequestsTotal *prometheus.CounterVec

	// ProcessDurationSeconds measures end-to-end processing latency.
	// Labels: cache (hit, miss)
	ProcessDurationSeconds *prometheus.HistogramVec

	// StageDurationSeconds measures per-stage latency.
	// Labels: stage (intent, context, insights, visualizations, persist)
	StageDurationSeconds *prometheus.HistogramVec

	// LLMTokensTotal counts tokens reported by the provider.
	LLMTokensTotal prometheus.Counter

	// LLMCostUSDTotal accumulates the estimated LLM spend.
	LLMCostUSDTotal prometheus.Counter

	// FallbacksTotal counts degraded paths taken.
	// Labels: component (intent, insights, context, persistence, cache)
	FallbacksTotal *prometheus.CounterVec

	// CacheOpsTotal counts cache operations.
	// Labels: op (get, set), result (hit, miss, ok, error)
	CacheOpsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics creates and registers all pipeline metrics. Call once at
// application startup; a second call panics on duplicate registration.
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "requests_total",
				Help:      "Total process invocations by status and cache outcome",
			},
			[]string{"status", "cache"},
		),

		ProcessDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "process_duration_seconds",
				Help:      "End-to-end query processing duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"cache"},
		),

		StageDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Per-stage processing duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"stage"},
		),

		LLMTokensTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "llm_tokens_total",
				Help:      "Total tokens reported by the LLM provider",
			},
		),

		LLMCostUSDTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "llm_cost_usd_total",
				Help:      "Estimated cumulative LLM spend in USD",
			},
		),

		FallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "fallbacks_total",
				Help:      "Degraded paths taken by component",
			},
			[]string{"component"},
		),

		CacheOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "cache_ops_total",
				Help:      "Cache operations by op and result",
			},
			[]string{"op", "result"},
		),
	}

	return DefaultMetrics
}

// RecordRequest records a completed process invocation.
func (m *PipelineMetrics) RecordRequest(success, cacheHit bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "validation_error"
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.RequestsTotal.WithLabelValues(status, cache).Inc()
	m.ProcessDurationSeconds.WithLabelValues(cache).Observe(seconds)
}

// RecordStage records one pipeline stage's latency.
func (m *PipelineMetrics) RecordStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordFallback records a degraded path.
func (m *PipelineMetrics) RecordFallback(component string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(component).Inc()
}

// RecordLLMUsage records token and cost deltas from one provider call.
func (m *PipelineMetrics) RecordLLMUsage(tokens int, costUSD float64) {
	if m == nil {
		return
	}
	m.LLMTokensTotal.Add(float64(tokens))
	m.LLMCostUSDTotal.Add(costUSD)
}

// RecordCacheOp records a cache operation outcome.
func (m *PipelineMetrics) RecordCacheOp(op, result string) {
	if m == nil {
		return
	}
	m.CacheOpsTotal.WithLabelValues(op, result).Inc()
}
