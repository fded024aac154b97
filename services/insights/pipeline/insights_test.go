// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

func TestRecommendationsDedupCaseInsensitive(t *testing.T) {
	insights := []datatypes.Insight{
		{ActionItems: []string{"Check staffing", "Review pricing"}},
		{ActionItems: []string{"check staffing", "Expand Paris inventory"}},
	}

	recs := Recommendations(insights)
	assert.Equal(t, []string{"Check staffing", "Review pricing", "Expand Paris inventory"}, recs)
}

func TestRecommendationsDefaultsWhenEmpty(t *testing.T) {
	recs := Recommendations([]datatypes.Insight{{Title: "no actions"}})
	assert.Equal(t, []string{
		"Monitor trend continuation",
		"Consider implementing suggested actions",
	}, recs)
}

func TestRecommendationsSkipBlankItems(t *testing.T) {
	recs := Recommendations([]datatypes.Insight{{ActionItems: []string{"  ", "Do the thing"}}})
	assert.Equal(t, []string{"Do the thing"}, recs)
}

func TestFallbackInsightShape(t *testing.T) {
	now := time.Now().UTC()
	insight := FallbackInsight(7, now)

	assert.Equal(t, "General Business Analysis", insight.Title)
	assert.Equal(t, datatypes.CategorySummary, insight.Category)
	assert.InDelta(t, 0.6, insight.ConfidenceScore, 0.001)
	assert.Equal(t, []string{"fallback"}, insight.DataSources)
	assert.Equal(t, []string{"Review data regularly", "Monitor key metrics"}, insight.ActionItems)
	assert.Equal(t, []string{"Based on query analysis"}, insight.DataEvidence)
	assert.Equal(t, int64(7), insight.QuestionID)
	assert.NoError(t, insight.Validate())
}

func TestGenerateInsightsFallsBackOnGatewayError(t *testing.T) {
	gw := &fakeGateway{intentErr: llmDown(), insightsErr: llmDown()}
	p := testProcessor(t, gw, &fakeWarehouse{}, nil)

	insights := p.generateInsights(context.Background(), "why", "summary", 3, datatypes.DataContext{})
	require.Len(t, insights, 1)
	assert.Equal(t, "General Business Analysis", insights[0].Title)
	assert.Equal(t, int64(3), insights[0].QuestionID)
}

func TestGenerateInsightsCapsConfidenceOnEmptyContext(t *testing.T) {
	gw := &fakeGateway{insights: []datatypes.Insight{
		{Title: "a", Description: "d", Category: datatypes.CategoryTrend, ConfidenceScore: 0.95},
		{Title: "b", Description: "d", Category: datatypes.CategorySummary, ConfidenceScore: 0.4},
	}}
	p := testProcessor(t, gw, &fakeWarehouse{}, nil)

	empty := datatypes.DataContext{Kind: datatypes.ContextSales, Sales: &datatypes.SalesContext{}}
	insights := p.generateInsights(context.Background(), "q", "s", 1, empty)

	require.Len(t, insights, 2)
	assert.InDelta(t, 0.6, insights[0].ConfidenceScore, 0.001)
	assert.InDelta(t, 0.4, insights[1].ConfidenceScore, 0.001)
}

func TestGenerateInsightsFillsDataSources(t *testing.T) {
	gw := &fakeGateway{insights: []datatypes.Insight{
		{Title: "a", Description: "d", Category: datatypes.CategoryTrend, ConfidenceScore: 0.8},
	}}
	p := testProcessor(t, gw, &fakeWarehouse{}, nil)

	dctx := datatypes.DataContext{
		Kind:      datatypes.ContextInventory,
		Inventory: &datatypes.InventoryContext{Items: []datatypes.InventoryItem{{Product: "x"}}},
	}
	insights := p.generateInsights(context.Background(), "q", "s", 1, dctx)

	require.Len(t, insights, 1)
	assert.Equal(t, []string{"inventory_data"}, insights[0].DataSources)
	// Non-empty context leaves confidence untouched.
	assert.InDelta(t, 0.8, insights[0].ConfidenceScore, 0.001)
}
