// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

// The declared response schemas are the single source of truth for what
// the model must return. Raw text is extracted, unmarshalled, then
// validated; any violation routes the caller to its deterministic
// fallback.

var schemaValidator = validator.New(validator.WithRequiredStructEnabled())

// intentResponse is the wire schema for intent classification.
type intentResponse struct {
	Intent                  string   `json:"intent" validate:"required"`
	Confidence              float64  `json:"confidence" validate:"gte=0,lte=1"`
	Categories              []string `json:"categories" validate:"required,min=1,dive,required"`
	DataSources             []string `json:"data_sources" validate:"required,min=1,dive,required"`
	SuggestedVisualizations []string `json:"suggested_visualizations" validate:"required,min=1,dive,required"`
}

// insightItem is one insight record in the wire schema.
type insightItem struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"required,max=2000"`
	Category        string   `json:"category" validate:"required"`
	ConfidenceScore float64  `json:"confidence_score" validate:"gte=0,lte=1"`
	ActionItems     []string `json:"action_items" validate:"max=10"`
	DataEvidence    []string `json:"data_evidence" validate:"max=10"`
}

// insightResponse is the wire schema for insight generation: 2-3 records.
type insightResponse struct {
	Insights []insightItem `json:"insights" validate:"required,min=2,max=3,dive"`
}

// extractJSON strips markdown code fences and surrounding prose so the
// body can be unmarshalled. Models occasionally wrap JSON mode output
// anyway, so the gateway tolerates it.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// parseIntentResponse validates raw model output against the
// IntentResponse schema and converts it to the Intent entity.
func parseIntentResponse(content string) (datatypes.Intent, error) {
	var resp intentResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &resp); err != nil {
		return datatypes.Intent{}, fmt.Errorf("intent response is not valid JSON: %w", err)
	}
	if err := schemaValidator.Struct(resp); err != nil {
		return datatypes.Intent{}, fmt.Errorf("intent response violates schema: %w", err)
	}

	kinds := make([]datatypes.VizKind, 0, len(resp.SuggestedVisualizations))
	for _, raw := range resp.SuggestedVisualizations {
		kind := datatypes.VizKind(raw)
		if kind.IsValid() {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return datatypes.Intent{}, fmt.Errorf("intent response suggested no known visualization kinds")
	}

	intent := datatypes.Intent{
		Intent:                  datatypes.IntentTag(resp.Intent),
		Confidence:              resp.Confidence,
		Categories:              resp.Categories,
		DataSources:             resp.DataSources,
		SuggestedVisualizations: kinds,
	}
	if err := intent.Validate(); err != nil {
		return datatypes.Intent{}, err
	}
	return intent, nil
}

// parseInsightResponse validates raw model output against the
// InsightResponse schema and converts it to Insight entities.
func parseInsightResponse(content string) ([]datatypes.Insight, error) {
	var resp insightResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &resp); err != nil {
		return nil, fmt.Errorf("insight response is not valid JSON: %w", err)
	}
	if err := schemaValidator.Struct(resp); err != nil {
		return nil, fmt.Errorf("insight response violates schema: %w", err)
	}

	insights := make([]datatypes.Insight, 0, len(resp.Insights))
	for _, item := range resp.Insights {
		insight := datatypes.Insight{
			Title:           item.Title,
			Description:     item.Description,
			Category:        datatypes.InsightCategory(item.Category),
			ConfidenceScore: item.ConfidenceScore,
			ActionItems:     item.ActionItems,
			DataEvidence:    item.DataEvidence,
		}
		if err := insight.Validate(); err != nil {
			return nil, err
		}
		insights = append(insights, insight)
	}
	return insights, nil
}
