// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline implements the query-to-insight pipeline: intent
// analysis, data-context retrieval, insight generation, visualization
// building, and the processor that sequences them.
package pipeline

import (
	"context"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

// LLMGateway is the outbound LLM channel consumed by the analyzer and
// the insight generator. Implemented by gateway.Gateway; tests inject
// fakes.
type LLMGateway interface {
	Enabled() bool
	ClassifyIntent(ctx context.Context, question string) (datatypes.Intent, error)
	GenerateInsights(ctx context.Context, question, contextSummary string) ([]datatypes.Insight, error)
}

// Warehouse is the read-only analytical store consumed by the context
// retriever. Implemented by warehouse.Adapter.
type Warehouse interface {
	Sales(ctx context.Context, days int) ([]datatypes.SalesRecord, error)
	Inventory(ctx context.Context) ([]datatypes.InventoryItem, error)
	Customers(ctx context.Context, limit int) ([]datatypes.Customer, error)
	Metrics(ctx context.Context) (*datatypes.MetricsContext, error)
}

// QueryStore is the durable metadata store for questions and insights.
// Implemented by repository.Store.
type QueryStore interface {
	Create(ctx context.Context, text, userTag string) (datatypes.Question, error)
	MarkProcessed(ctx context.Context, id int64, summary string) error
	Get(ctx context.Context, id int64) (datatypes.Question, error)
	List(ctx context.Context, offset, limit int) ([]datatypes.Question, error)
	StoreInsights(ctx context.Context, questionID int64, insights []datatypes.Insight) ([]datatypes.Insight, error)
	InsightsFor(ctx context.Context, questionID int64) ([]datatypes.Insight, error)
}
