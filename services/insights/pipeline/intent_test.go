// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

func TestFallbackIntentKeywordRules(t *testing.T) {
	tests := []struct {
		question string
		want     datatypes.IntentTag
	}{
		{"Show me revenue trends over the last 6 months", datatypes.IntentTrendAnalysis},
		{"What patterns appear in weekend sales", datatypes.IntentTrendAnalysis},
		{"How did revenue change over time", datatypes.IntentTrendAnalysis},
		{"Compare sales across regions", datatypes.IntentComparison},
		{"Paris vs Lyon store performance", datatypes.IntentComparison},
		{"What is the difference between Q1 and Q2", datatypes.IntentComparison},
		{"Predict next month's shoe demand", datatypes.IntentPrediction},
		{"Forecast holiday inventory needs", datatypes.IntentPrediction},
		{"Why are shoe sales down in Paris", datatypes.IntentRootCause},
		{"What is the cause of the margin drop", datatypes.IntentRootCause},
		{"Recommend changes to our pricing", datatypes.IntentRecommendation},
		{"Suggest products to discontinue", datatypes.IntentRecommendation},
		{"Tell me about the business", datatypes.IntentGeneralAnalysis},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			intent := FallbackIntent(tt.question)
			assert.Equal(t, tt.want, intent.Intent)
		})
	}
}

func TestFallbackIntentFirstRuleWins(t *testing.T) {
	// "trend" outranks "why" because rules are evaluated in order.
	intent := FallbackIntent("why is the trend negative")
	assert.Equal(t, datatypes.IntentTrendAnalysis, intent.Intent)
}

func TestFallbackIntentShape(t *testing.T) {
	intent := FallbackIntent("anything at all")

	assert.InDelta(t, 0.6, intent.Confidence, 0.001)
	assert.Equal(t, []string{"sales", "performance"}, intent.Categories)
	assert.Equal(t, []string{"sales_data"}, intent.DataSources)
	assert.Equal(t, datatypes.AllVizKinds(), intent.SuggestedVisualizations)
	assert.NoError(t, intent.Validate())
}

func TestFallbackIntentIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, datatypes.IntentComparison, FallbackIntent("COMPARE the stores").Intent)
}
