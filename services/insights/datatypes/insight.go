// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"time"
	"unicode/utf8"
)

// =============================================================================
// Insight Categories
// =============================================================================

// InsightCategory classifies a single finding. The set is closed; intent
// tags are NOT valid insight categories and are rejected at validation
// time.
type InsightCategory string

const (
	CategoryTrend          InsightCategory = "trend"
	CategoryAnomaly        InsightCategory = "anomaly"
	CategoryRecommendation InsightCategory = "recommendation"
	CategoryPrediction     InsightCategory = "prediction"
	CategoryCorrelation    InsightCategory = "correlation"
	CategorySummary        InsightCategory = "summary"
)

var validInsightCategories = map[InsightCategory]bool{
	CategoryTrend:          true,
	CategoryAnomaly:        true,
	CategoryRecommendation: true,
	CategoryPrediction:     true,
	CategoryCorrelation:    true,
	CategorySummary:        true,
}

// IsValid reports whether the category is one of the defined constants.
func (c InsightCategory) IsValid() bool {
	return validInsightCategories[c]
}

// =============================================================================
// Insight
// =============================================================================

const (
	maxInsightTitleLen       = 200
	maxInsightDescriptionLen = 2000
	maxInsightListLen        = 10
)

// Insight is one atomic finding derived from a question and its data
// context. Insights are owned by the Question they reference.
type Insight struct {
	ID              int64           `json:"id,omitempty"`
	QuestionID      int64           `json:"question_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        InsightCategory `json:"category"`
	ConfidenceScore float64         `json:"confidence_score"`
	DataSources     []string        `json:"data_sources"`
	ActionItems     []string        `json:"action_items"`
	DataEvidence    []string        `json:"data_evidence"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Validate checks the insight entity contract.
func (i Insight) Validate() error {
	if i.Title == "" || utf8.RuneCountInString(i.Title) > maxInsightTitleLen {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "insight title empty or too long"}
	}
	if i.Description == "" || utf8.RuneCountInString(i.Description) > maxInsightDescriptionLen {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "insight description empty or too long"}
	}
	if !i.Category.IsValid() {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "unknown insight category: " + string(i.Category)}
	}
	if i.ConfidenceScore < 0.0 || i.ConfidenceScore > 1.0 {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "insight confidence out of range"}
	}
	if len(i.ActionItems) > maxInsightListLen {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "too many action items"}
	}
	if len(i.DataEvidence) > maxInsightListLen {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "too many data evidence entries"}
	}
	return nil
}
