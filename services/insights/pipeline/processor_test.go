// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

func rootCauseIntent() datatypes.Intent {
	return datatypes.Intent{
		Intent:                  datatypes.IntentRootCause,
		Confidence:              0.88,
		Categories:              []string{"sales", "store_performance"},
		DataSources:             []string{"sales_data"},
		SuggestedVisualizations: []datatypes.VizKind{datatypes.VizBarChart, datatypes.VizStackedBarChart},
	}
}

func twoInsights() []datatypes.Insight {
	return []datatypes.Insight{
		{
			Title:           "Paris revenue declined",
			Description:     "Paris stores generated $750.00 against stronger prior weeks.",
			Category:        datatypes.CategoryTrend,
			ConfidenceScore: 0.84,
			ActionItems:     []string{"Audit Paris staffing"},
			DataEvidence:    []string{"Paris: $750.00"},
		},
		{
			Title:           "Margin held steady",
			Description:     "Blended margin stayed near 25.8%.",
			Category:        datatypes.CategorySummary,
			ConfidenceScore: 0.76,
			ActionItems:     []string{"Protect current pricing"},
			DataEvidence:    []string{"Margin: 25.8%"},
		},
	}
}

func TestProcessSalesRootCauseWarmPath(t *testing.T) {
	gw := &fakeGateway{intent: rootCauseIntent(), insights: twoInsights()}
	store := newFakeStore()
	p := testProcessor(t, gw, &fakeWarehouse{sales: salesRows()}, store)

	envelope, perr := p.Process(context.Background(),
		"Why are shoe sales down in Paris stores this quarter?", "u1")
	require.Nil(t, perr)
	require.NotNil(t, envelope)

	assert.True(t, envelope.Success)
	assert.Equal(t, datatypes.IntentRootCause, envelope.Intent.Intent)
	assert.Contains(t, envelope.Intent.DataSources, "sales_data")

	require.True(t, len(envelope.Insights) >= 1 && len(envelope.Insights) <= 3)
	assert.Contains(t, envelope.Insights[0].DataEvidence[0], "$750.00")

	kinds := make([]datatypes.VizKind, 0, len(envelope.Visualizations))
	for _, v := range envelope.Visualizations {
		kinds = append(kinds, v.Type)
	}
	assert.Subset(t, kinds, []datatypes.VizKind{datatypes.VizBarChart})
	assert.LessOrEqual(t, len(envelope.Visualizations), 3)

	// Question was persisted and marked processed with the first
	// insight's title.
	stored, err := store.Get(context.Background(), envelope.Query.ID)
	require.NoError(t, err)
	assert.True(t, stored.Processed)
	assert.Equal(t, "Paris revenue declined", stored.Response)
	assert.NotEmpty(t, store.insights[envelope.Query.ID])
}

func TestProcessCacheHitIsIdempotent(t *testing.T) {
	gw := &fakeGateway{intent: rootCauseIntent(), insights: twoInsights()}
	p := testProcessor(t, gw, &fakeWarehouse{sales: salesRows()}, newFakeStore())

	first, perr := p.Process(context.Background(), "Why are sales down in Paris?", "u1")
	require.Nil(t, perr)
	second, perr := p.Process(context.Background(), "Why are sales down in Paris?", "u1")
	require.Nil(t, perr)

	// Second call came from the cache: no additional LLM traffic.
	intentCalls, insightCalls := gw.calls()
	assert.Equal(t, 1, intentCalls)
	assert.Equal(t, 1, insightCalls)
	require.NotNil(t, second.CachedAt)
	assert.Nil(t, first.CachedAt)

	// Intent, insights, and visualizations are byte-identical.
	for name, pair := range map[string][2]any{
		"intent":         {first.Intent, second.Intent},
		"insights":       {first.Insights, second.Insights},
		"visualizations": {first.Visualizations, second.Visualizations},
	} {
		a, err := json.Marshal(pair[0])
		require.NoError(t, err)
		b, err := json.Marshal(pair[1])
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}
}

func TestProcessCacheKeyIgnoresWhitespaceAndCase(t *testing.T) {
	gw := &fakeGateway{intent: rootCauseIntent(), insights: twoInsights()}
	p := testProcessor(t, gw, &fakeWarehouse{sales: salesRows()}, newFakeStore())

	_, perr := p.Process(context.Background(), "Why are sales   down?", "")
	require.Nil(t, perr)
	second, perr := p.Process(context.Background(), "  WHY ARE SALES DOWN? ", "")
	require.Nil(t, perr)

	assert.NotNil(t, second.CachedAt)
	intentCalls, _ := gw.calls()
	assert.Equal(t, 1, intentCalls)
}

func TestProcessLLMDisabledComparison(t *testing.T) {
	gw := &fakeGateway{intentErr: llmDown(), insightsErr: llmDown()}
	p := testProcessor(t, gw, &fakeWarehouse{sales: salesRows()}, newFakeStore())

	envelope, perr := p.Process(context.Background(), "Compare sales across regions", "")
	require.Nil(t, perr)

	assert.True(t, envelope.Success)
	assert.Equal(t, datatypes.IntentComparison, envelope.Intent.Intent)
	assert.InDelta(t, 0.6, envelope.Intent.Confidence, 0.001)

	require.Len(t, envelope.Insights, 1)
	assert.Equal(t, "General Business Analysis", envelope.Insights[0].Title)
	assert.InDelta(t, 0.6, envelope.Insights[0].ConfidenceScore, 0.001)
	assert.Equal(t, []string{"fallback"}, envelope.Insights[0].DataSources)
}

func TestProcessAllDependenciesDown(t *testing.T) {
	gw := &fakeGateway{intentErr: llmDown(), insightsErr: llmDown()}
	wh := &fakeWarehouse{err: warehouseDown()}
	store := newFakeStore()
	store.err = warehouseDown() // any error will do

	p := testProcessor(t, gw, wh, store)

	envelope, perr := p.Process(context.Background(), "Why are shoe sales down?", "u9")
	require.Nil(t, perr)

	assert.True(t, envelope.Success)
	assert.Equal(t, datatypes.IntentRootCause, envelope.Intent.Intent)
	require.Len(t, envelope.Insights, 1)
	assert.Equal(t, "General Business Analysis", envelope.Insights[0].Title)
	assert.Empty(t, envelope.Visualizations)
	assert.Equal(t, int64(0), envelope.Query.ID)
	assert.NotEmpty(t, envelope.Recommendations)
}

func TestProcessValidation(t *testing.T) {
	p := testProcessor(t, &fakeGateway{intentErr: llmDown(), insightsErr: llmDown()}, &fakeWarehouse{}, nil)

	t.Run("too short", func(t *testing.T) {
		envelope, perr := p.Process(context.Background(), "hi", "")
		assert.Nil(t, envelope)
		require.NotNil(t, perr)
		assert.Equal(t, datatypes.ErrKindValidation, perr.Kind)
	})

	t.Run("too long", func(t *testing.T) {
		_, perr := p.Process(context.Background(), strings.Repeat("a", 2001), "")
		require.NotNil(t, perr)
		assert.Equal(t, datatypes.ErrKindValidation, perr.Kind)
	})

	t.Run("oversized user tag", func(t *testing.T) {
		_, perr := p.Process(context.Background(), "valid question", strings.Repeat("u", 256))
		require.NotNil(t, perr)
		assert.Equal(t, datatypes.ErrKindValidation, perr.Kind)
	})

	t.Run("exactly three chars accepted", func(t *testing.T) {
		envelope, perr := p.Process(context.Background(), "abc", "")
		assert.Nil(t, perr)
		assert.NotNil(t, envelope)
	})
}

func TestProcessInventoryQuestion(t *testing.T) {
	gw := &fakeGateway{
		intent: datatypes.Intent{
			Intent:                  datatypes.IntentGeneralAnalysis,
			Confidence:              0.7,
			Categories:              []string{"inventory"},
			DataSources:             []string{"inventory_data"},
			SuggestedVisualizations: []datatypes.VizKind{datatypes.VizBarChart},
		},
		insights: twoInsights(),
	}
	wh := &fakeWarehouse{inventory: []datatypes.InventoryItem{
		{Product: "Runner X", Store: "Paris", CurrentStock: 400, ReorderLevel: 50},
		{Product: "Trail Pro", Store: "Lyon", CurrentStock: 12, ReorderLevel: 30},
	}}
	p := testProcessor(t, gw, wh, newFakeStore())

	envelope, perr := p.Process(context.Background(), "Which products are overstocked?", "")
	require.Nil(t, perr)

	require.True(t, len(envelope.Insights) >= 1 && len(envelope.Insights) <= 3)
	require.NotEmpty(t, envelope.Visualizations)
	assert.Equal(t, "inventory_data", envelope.Visualizations[0].DataSource)
}

func TestProcessRecommendationsHaveNoDuplicates(t *testing.T) {
	insights := twoInsights()
	insights[0].ActionItems = []string{"Audit staffing", "audit STAFFING", "Review pricing"}
	gw := &fakeGateway{intent: rootCauseIntent(), insights: insights}
	p := testProcessor(t, gw, &fakeWarehouse{sales: salesRows()}, nil)

	envelope, perr := p.Process(context.Background(), "Why are sales down?", "")
	require.Nil(t, perr)

	seen := make(map[string]bool)
	for _, rec := range envelope.Recommendations {
		key := strings.ToLower(rec)
		assert.False(t, seen[key], "duplicate recommendation %q", rec)
		seen[key] = true
	}
}

func TestProcessContinuesWhenStoreFails(t *testing.T) {
	gw := &fakeGateway{intent: rootCauseIntent(), insights: twoInsights()}
	store := newFakeStore()
	store.err = warehouseDown()
	p := testProcessor(t, gw, &fakeWarehouse{sales: salesRows()}, store)

	envelope, perr := p.Process(context.Background(), "Why are sales down?", "")
	require.Nil(t, perr)
	assert.True(t, envelope.Success)
	assert.Equal(t, int64(0), envelope.Query.ID)
	assert.True(t, envelope.Query.Processed)
}
