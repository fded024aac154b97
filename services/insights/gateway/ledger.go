// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import "sync"

// CostSummary is a consistent snapshot of the process-wide LLM spend.
type CostSummary struct {
	TotalCost             float64 `json:"total_cost"`
	TotalTokens           int64   `json:"total_tokens"`
	RequestCount          int64   `json:"request_count"`
	AverageCostPerRequest float64 `json:"average_cost_per_request"`
}

// CostLedger accumulates cumulative cost, token usage, and request count
// for every successful LLM call. Counters are monotonically
// non-decreasing for the process lifetime.
//
// Safe for concurrent use.
type CostLedger struct {
	mu       sync.Mutex
	cost     float64
	tokens   int64
	requests int64
}

// Record adds one successful call's usage to the ledger.
func (l *CostLedger) Record(tokens int, cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cost += cost
	l.tokens += int64(tokens)
	l.requests++
}

// Snapshot returns a consistent view of the counters.
func (l *CostLedger) Snapshot() CostSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	avg := 0.0
	if l.requests > 0 {
		avg = l.cost / float64(l.requests)
	}
	return CostSummary{
		TotalCost:             l.cost,
		TotalTokens:           l.tokens,
		RequestCount:          l.requests,
		AverageCostPerRequest: avg,
	}
}
