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
	"time"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

// degradedConfidenceCap bounds insight confidence when the grounding
// context is empty or the insight came from the fallback path.
const degradedConfidenceCap = 0.6

// generateInsights produces 1-3 insights for the question. LLM or
// schema failures degrade to the single deterministic fallback insight;
// empty contexts cap confidence.
func (p *Processor) generateInsights(ctx context.Context, question, summary string, questionID int64, dctx datatypes.DataContext) []datatypes.Insight {
	now := time.Now().UTC()

	insights, err := p.gateway.GenerateInsights(ctx, question, summary)
	if err != nil {
		p.logger.Warn("insight generation unavailable, using fallback insight", "error", err)
		p.metrics.RecordFallback("insights")
		return []datatypes.Insight{FallbackInsight(questionID, now)}
	}

	source := string(dctx.DataSource())
	contextEmpty := dctx.RowCount() == 0

	for i := range insights {
		insights[i].QuestionID = questionID
		insights[i].CreatedAt = now
		if len(insights[i].DataSources) == 0 {
			insights[i].DataSources = []string{source}
		}
		if contextEmpty && insights[i].ConfidenceScore > degradedConfidenceCap {
			insights[i].ConfidenceScore = degradedConfidenceCap
		}
	}

	if len(insights) == 0 {
		return []datatypes.Insight{FallbackInsight(questionID, now)}
	}
	return insights
}

// FallbackInsight is the deterministic substitute produced when the LLM
// path is unavailable.
func FallbackInsight(questionID int64, now time.Time) datatypes.Insight {
	return datatypes.Insight{
		QuestionID:      questionID,
		Title:           "General Business Analysis",
		Description:     "Analysis based on available business data",
		Category:        datatypes.CategorySummary,
		ConfidenceScore: degradedConfidenceCap,
		DataSources:     []string{string(datatypes.SourceFallback)},
		ActionItems:     []string{"Review data regularly", "Monitor key metrics"},
		DataEvidence:    []string{"Based on query analysis"},
		CreatedAt:       now,
	}
}

// defaultRecommendations are appended when no insight carried action
// items.
var defaultRecommendations = []string{
	"Monitor trend continuation",
	"Consider implementing suggested actions",
}

// Recommendations composes the deduplicated recommendation list from
// the insights' action items. Order is preserved; duplicates are
// removed case-insensitively.
func Recommendations(insights []datatypes.Insight) []string {
	var out []string
	seen := make(map[string]bool)

	for _, insight := range insights {
		for _, item := range insight.ActionItems {
			key := strings.ToLower(strings.TrimSpace(item))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}

	if len(out) == 0 {
		out = append(out, defaultRecommendations...)
	}
	return out
}
