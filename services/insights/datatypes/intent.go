// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides type definitions for the insights service.
//
// Entities follow a closed-enum-with-IsValid pattern: every tag type
// declares its full value set, a validity map, and an IsValid method so
// off-set values can be rejected at the boundary instead of drifting
// through the pipeline as free-form strings.
package datatypes

import "time"

// =============================================================================
// Intent Tags
// =============================================================================

// IntentTag classifies what a question is asking for.
//
// Valid Values:
//   - "trend_analysis": patterns over time
//   - "comparison": side-by-side evaluation of entities
//   - "prediction": forward-looking estimates
//   - "root_cause": why something happened
//   - "recommendation": what to do next
//   - "general_analysis": anything that does not match the above
type IntentTag string

const (
	IntentTrendAnalysis   IntentTag = "trend_analysis"
	IntentComparison      IntentTag = "comparison"
	IntentPrediction      IntentTag = "prediction"
	IntentRootCause       IntentTag = "root_cause"
	IntentRecommendation  IntentTag = "recommendation"
	IntentGeneralAnalysis IntentTag = "general_analysis"
)

var validIntentTags = map[IntentTag]bool{
	IntentTrendAnalysis:   true,
	IntentComparison:      true,
	IntentPrediction:      true,
	IntentRootCause:       true,
	IntentRecommendation:  true,
	IntentGeneralAnalysis: true,
}

// IsValid reports whether the tag is one of the defined constants.
func (t IntentTag) IsValid() bool {
	return validIntentTags[t]
}

// =============================================================================
// Data Source Tags
// =============================================================================

// DataSourceTag names a warehouse family a question draws on.
type DataSourceTag string

const (
	SourceSalesData       DataSourceTag = "sales_data"
	SourceInventoryData   DataSourceTag = "inventory_data"
	SourceCustomerData    DataSourceTag = "customer_data"
	SourceBusinessMetrics DataSourceTag = "business_metrics"

	// SourceFallback marks insight data sources produced without any LLM
	// or warehouse involvement.
	SourceFallback DataSourceTag = "fallback"
)

var validDataSourceTags = map[DataSourceTag]bool{
	SourceSalesData:       true,
	SourceInventoryData:   true,
	SourceCustomerData:    true,
	SourceBusinessMetrics: true,
	SourceFallback:        true,
}

// IsValid reports whether the tag is one of the defined constants.
func (t DataSourceTag) IsValid() bool {
	return validDataSourceTags[t]
}

// =============================================================================
// Intent
// =============================================================================

// Intent is the structured classification of a question. Derived once,
// never mutated.
type Intent struct {
	Intent                  IntentTag  `json:"intent"`
	Confidence              float64    `json:"confidence"`
	Categories              []string   `json:"categories"`
	DataSources             []string   `json:"data_sources"`
	SuggestedVisualizations []VizKind  `json:"suggested_visualizations"`
	AnalyzedAt              *time.Time `json:"analyzed_at,omitempty"`
}

// Validate checks the intent entity contract: a known tag and a
// confidence score inside [0, 1].
func (i Intent) Validate() error {
	if !i.Intent.IsValid() {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "unknown intent tag: " + string(i.Intent)}
	}
	if i.Confidence < 0.0 || i.Confidence > 1.0 {
		return &PipelineError{Kind: ErrKindLLMSchema, Message: "intent confidence out of range"}
	}
	for _, kind := range i.SuggestedVisualizations {
		if !kind.IsValid() {
			return &PipelineError{Kind: ErrKindLLMSchema, Message: "unknown visualization kind: " + string(kind)}
		}
	}
	return nil
}
