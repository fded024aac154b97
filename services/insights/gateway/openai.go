// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// OpenAIChat implements ChatClient against the OpenAI API.
type OpenAIChat struct {
	client *openai.Client
	model  string
}

// NewOpenAIChat creates the OpenAI-backed chat client. The model choice
// is a deployment concern; gpt-4o-mini is the default.
func NewOpenAIChat(apiKey, model string) (*OpenAIChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key is not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("LLM model not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIChat{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// CreateCompletion implements the ChatClient interface. Responses are
// requested in JSON mode so the structured-output validator sees a bare
// object rather than prose.
func (o *OpenAIChat) CreateCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	apiReq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if req.MaxTokens > 0 {
		apiReq.MaxCompletionTokens = req.MaxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("OpenAI returned no choices")
	}

	slog.Debug("Received response from OpenAI",
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)

	return ChatResponse{
		Content:     resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
