// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"strings"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/cache"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

// fallbackConfidence is the fixed confidence of keyword-derived intents.
const fallbackConfidence = 0.6

// intentKeywords maps keyword sets to intent tags, evaluated in order;
// first match wins.
var intentKeywords = []struct {
	words  []string
	intent datatypes.IntentTag
}{
	{[]string{"trend", "pattern", "over time"}, datatypes.IntentTrendAnalysis},
	{[]string{"compare", "vs", "versus", "difference"}, datatypes.IntentComparison},
	{[]string{"predict", "forecast", "future"}, datatypes.IntentPrediction},
	{[]string{"why", "cause", "reason"}, datatypes.IntentRootCause},
	{[]string{"recommend", "suggest", "action"}, datatypes.IntentRecommendation},
}

// analyzeIntent classifies the question, preferring a cached result,
// then the LLM gateway, then the deterministic keyword rule. It never
// fails.
func (p *Processor) analyzeIntent(ctx context.Context, question, fingerprint string) datatypes.Intent {
	key := cache.IntentKey(fingerprint)

	var cached datatypes.Intent
	if p.cache.Get(key, &cached) {
		if cached.Validate() == nil {
			p.metrics.RecordCacheOp("get", "hit")
			return cached
		}
	}
	p.metrics.RecordCacheOp("get", "miss")

	intent, err := p.gateway.ClassifyIntent(ctx, question)
	if err != nil {
		p.logger.Warn("intent classification unavailable, using keyword fallback", "error", err)
		p.metrics.RecordFallback("intent")
		return FallbackIntent(question)
	}

	p.cache.Set(key, intent, cache.InsightsTTL)
	return intent
}

// FallbackIntent derives an intent from the question text alone using
// the keyword rule table. Confidence is fixed at 0.6 and the suggestion
// list is the full closed visualization set.
func FallbackIntent(question string) datatypes.Intent {
	text := strings.ToLower(question)

	intent := datatypes.IntentGeneralAnalysis
	for _, rule := range intentKeywords {
		if containsAny(text, rule.words) {
			intent = rule.intent
			break
		}
	}

	return datatypes.Intent{
		Intent:                  intent,
		Confidence:              fallbackConfidence,
		Categories:              []string{"sales", "performance"},
		DataSources:             []string{string(datatypes.SourceSalesData)},
		SuggestedVisualizations: datatypes.AllVizKinds(),
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
