// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// Question is a user's submitted natural-language query.
//
// Invariants: text is immutable after creation; once Processed is true,
// Response is non-empty. The orchestrator mutates a Question exactly once,
// when processing completes. Questions are never deleted by the core.
type Question struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"user_id,omitempty"`
	Processed bool      `json:"processed"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProcessQuestionRequest is the inbound payload for the process endpoint.
// Length limits are enforced again by pkg/validation after normalization;
// the binding tags reject the grossly malformed cases at the HTTP edge.
type ProcessQuestionRequest struct {
	QueryText string `json:"query_text" binding:"required,min=1,max=4000"`
	UserID    string `json:"user_id" binding:"omitempty,max=255"`
}

// ListQuestionsRequest carries the paging window for question listings.
type ListQuestionsRequest struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
}
