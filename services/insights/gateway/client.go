// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import "context"

// ChatRequest is one completion request to the LLM provider.
type ChatRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// ChatResponse carries the provider's text plus its reported token usage
// for cost accounting.
type ChatResponse struct {
	Content     string
	TotalTokens int
}

// ChatClient is the standard interface for any LLM backend. The gateway
// owns exactly one client; tests inject fakes.
type ChatClient interface {
	CreateCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
