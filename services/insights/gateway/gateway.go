// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gateway is the single outbound channel to the LLM provider.
//
// Every LLM call in the process flows through one Gateway instance,
// which enforces:
//
//   - a minimum inter-request spacing (token bucket of size 1, no burst)
//   - cost accounting into the process-wide CostLedger
//   - structured-output validation against the declared response schemas
//
// The gateway never produces partial values. It returns typed errors
// (llm_unavailable, llm_schema, timeout, cancelled) and the intent
// analyzer / insight generator compute their deterministic fallbacks
// from the question text, so no failure escapes the pipeline.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

// =============================================================================
// Prompts and Generation Parameters
// =============================================================================

const (
	intentSystemPrompt = "You are a business intelligence analyst. Analyze the query intent and provide a structured response."

	intentUserPromptTemplate = `Analyze the following business query and determine its intent and relevant business categories.

Query: %q

Respond with a JSON object with these fields:
  "intent": one of "trend_analysis", "comparison", "prediction", "root_cause", "recommendation", "general_analysis"
  "confidence": number between 0.0 and 1.0
  "categories": non-empty list of business category strings (e.g. "sales", "performance", "inventory", "customers", "store_performance")
  "data_sources": non-empty list from "sales_data", "inventory_data", "customer_data", "business_metrics"
  "suggested_visualizations": non-empty list of chart kinds from "bar_chart", "line_chart", "pie_chart", "doughnut_chart", "scatter_plot", "bubble_chart", "radar_chart", "horizontal_bar_chart", "stacked_bar_chart", "multi_line_chart", "area_chart"`

	insightSystemPrompt = "You are a senior business analyst. Generate actionable, data-driven insights based on the query and data context."

	insightUserPromptTemplate = `Based on the following business query and data context, generate 2-3 actionable business insights.

Query: %q

Data Context:
%s

Requirements:
  - Cite specific numbers from the data context in each insight.
  - Keep recommendations actionable and concrete.
  - Respond with a JSON object: {"insights": [...]} where each insight has
    "title" (max 200 chars), "description" (max 2000 chars),
    "category" (one of "trend", "anomaly", "recommendation", "prediction", "correlation", "summary"),
    "confidence_score" (0.0-1.0),
    "action_items" (list of strings, max 10),
    "data_evidence" (list of specific data points cited, max 10).`

	intentTemperature  = 0.2
	insightTemperature = 0.5
	intentMaxTokens    = 300
	insightMaxTokens   = 1024
)

// DefaultMinInterval is the minimum spacing between outbound requests.
const DefaultMinInterval = 100 * time.Millisecond

// DefaultCostPer1KTokens is the ledger rate when none is configured.
const DefaultCostPer1KTokens = 0.002

// =============================================================================
// Gateway
// =============================================================================

// Config holds gateway construction options.
type Config struct {
	// Client is the LLM backend. Nil disables the gateway: every call
	// returns llm_unavailable and callers take their fallback paths.
	Client ChatClient

	// CostPer1KTokens is the $/1k-token ledger rate.
	// Default: DefaultCostPer1KTokens.
	CostPer1KTokens float64

	// MinInterval is the inter-request spacing. Default: 100ms.
	MinInterval time.Duration

	// Timeout caps each outbound call including the rate-limit wait.
	// Default: 30s.
	Timeout time.Duration

	// Logger receives per-call cost lines. If nil, slog.Default().
	Logger *slog.Logger
}

// Gateway is the process-wide LLM channel. Construct once with New and
// inject into the components that need it.
type Gateway struct {
	client      ChatClient
	limiter     *rate.Limiter
	ledger      *CostLedger
	costPer1K   float64
	callTimeout time.Duration
	logger      *slog.Logger
}

// New creates a Gateway. A nil cfg.Client yields a disabled gateway.
func New(cfg Config) *Gateway {
	if cfg.CostPer1KTokens <= 0 {
		cfg.CostPer1KTokens = DefaultCostPer1KTokens
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Gateway{
		client:      cfg.Client,
		limiter:     rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		ledger:      &CostLedger{},
		costPer1K:   cfg.CostPer1KTokens,
		callTimeout: cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// Enabled reports whether a provider client is configured.
func (g *Gateway) Enabled() bool {
	return g.client != nil
}

// Ledger exposes the cost ledger for the stats endpoint.
func (g *Gateway) Ledger() *CostLedger {
	return g.ledger
}

// ClassifyIntent asks the provider to classify the question. Returns a
// validated Intent or a typed error; never a partial value.
func (g *Gateway) ClassifyIntent(ctx context.Context, question string) (datatypes.Intent, error) {
	content, err := g.complete(ctx, ChatRequest{
		System:      intentSystemPrompt,
		User:        fmt.Sprintf(intentUserPromptTemplate, question),
		Temperature: intentTemperature,
		MaxTokens:   intentMaxTokens,
	})
	if err != nil {
		return datatypes.Intent{}, err
	}

	intent, err := parseIntentResponse(content)
	if err != nil {
		g.logger.Warn("intent response failed schema validation", "error", err)
		return datatypes.Intent{}, &datatypes.PipelineError{
			Kind: datatypes.ErrKindLLMSchema, Message: err.Error(),
		}
	}

	g.logger.Info("intent classification completed",
		"intent", intent.Intent, "confidence", intent.Confidence)
	return intent, nil
}

// GenerateInsights asks the provider for 2-3 insights grounded in the
// context summary. Returns validated Insight records or a typed error.
func (g *Gateway) GenerateInsights(ctx context.Context, question, contextSummary string) ([]datatypes.Insight, error) {
	if contextSummary == "" {
		contextSummary = "No specific data context available."
	}

	content, err := g.complete(ctx, ChatRequest{
		System:      insightSystemPrompt,
		User:        fmt.Sprintf(insightUserPromptTemplate, question, contextSummary),
		Temperature: insightTemperature,
		MaxTokens:   insightMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	insights, err := parseInsightResponse(content)
	if err != nil {
		g.logger.Warn("insight response failed schema validation", "error", err)
		return nil, &datatypes.PipelineError{
			Kind: datatypes.ErrKindLLMSchema, Message: err.Error(),
		}
	}

	g.logger.Info("generated insights", "count", len(insights))
	return insights, nil
}

// complete performs the rate-limited, cost-accounted provider call.
func (g *Gateway) complete(ctx context.Context, req ChatRequest) (string, error) {
	if g.client == nil {
		return "", &datatypes.PipelineError{
			Kind: datatypes.ErrKindLLMUnavailable, Message: "LLM client is not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	// The limiter serializes the wait-window computation; the wait itself
	// happens on the caller's goroutine.
	if err := g.limiter.Wait(ctx); err != nil {
		return "", classifyCtxErr(ctx, err)
	}

	resp, err := g.client.CreateCompletion(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", classifyCtxErr(ctx, ctxErr)
		}
		return "", &datatypes.PipelineError{
			Kind: datatypes.ErrKindLLMUnavailable, Message: err.Error(),
		}
	}

	cost := float64(resp.TotalTokens) / 1000.0 * g.costPer1K
	g.ledger.Record(resp.TotalTokens, cost)
	g.logger.Info("LLM call completed", "tokens", resp.TotalTokens, "cost_usd", cost)

	return resp.Content, nil
}

func classifyCtxErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &datatypes.PipelineError{Kind: datatypes.ErrKindCancelled, Message: err.Error()}
	}
	return &datatypes.PipelineError{Kind: datatypes.ErrKindTimeout, Message: err.Error()}
}
