// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// ResponseEnvelope is the full record returned to callers of the process
// operation and the unit stored in the query cache.
type ResponseEnvelope struct {
	Success         bool            `json:"success"`
	Query           Question        `json:"query"`
	Intent          Intent          `json:"intent"`
	Insights        []Insight       `json:"insights"`
	Recommendations []string        `json:"recommendations"`
	Visualizations  []Visualization `json:"visualizations"`
	ProcessedAt     time.Time       `json:"processed_at"`

	// CachedAt is set on cache-hit responses to the time the cached
	// envelope was served; nil on freshly computed envelopes.
	CachedAt *time.Time `json:"cached_at,omitempty"`
}

// ErrorEnvelope is the client-visible failure shape. Only validation
// failures are ever rendered this way; all other error kinds degrade
// inside the pipeline.
type ErrorEnvelope struct {
	Success bool          `json:"success"`
	Error   PipelineError `json:"error"`
}

// NewErrorEnvelope wraps a pipeline error for the HTTP boundary.
func NewErrorEnvelope(err *PipelineError) ErrorEnvelope {
	return ErrorEnvelope{Success: false, Error: *err}
}
