// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/StephaneWamba/genai-data-insights-platform/pkg/validation"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/cache"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/gateway"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/observability"
)

// DefaultRequestTimeout caps one full process invocation.
const DefaultRequestTimeout = 60 * time.Second

// Processor sequences the pipeline: cache lookup, intent analysis,
// context retrieval, insight generation, visualization building,
// persistence, and cache write-back.
//
// The pipeline ALWAYS returns an envelope for a valid input. The only
// client-visible failure is input validation; every dependency failure
// degrades per its component policy.
//
// Multiple Process calls may run concurrently; each call executes its
// steps sequentially.
type Processor struct {
	cache     *cache.Cache
	gateway   LLMGateway
	warehouse Warehouse
	store     QueryStore
	logger    *slog.Logger
	metrics   *observability.PipelineMetrics
	timeout   time.Duration
}

// Options holds processor construction dependencies. Cache, Store, and
// Metrics may be nil (disabled); Gateway and Warehouse must be non-nil
// (use a disabled gateway / unconfigured warehouse instead of nil).
type Options struct {
	Cache     *cache.Cache
	Gateway   LLMGateway
	Warehouse Warehouse
	Store     QueryStore
	Logger    *slog.Logger
	Metrics   *observability.PipelineMetrics
	Timeout   time.Duration
}

// NewProcessor wires the pipeline components.
func NewProcessor(opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	return &Processor{
		cache:     opts.Cache,
		gateway:   opts.Gateway,
		warehouse: opts.Warehouse,
		store:     opts.Store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
	}
}

// Process turns a raw question into a grounded, cached, structured
// response envelope.
func (p *Processor) Process(ctx context.Context, text, userTag string) (*datatypes.ResponseEnvelope, *datatypes.PipelineError) {
	started := time.Now()

	// Step 1: normalize and validate.
	normalized, err := validation.ValidateQuestion(text)
	if err != nil {
		p.metrics.RecordRequest(false, false, time.Since(started).Seconds())
		return nil, datatypes.NewValidationError(err.Error())
	}
	if err := validation.ValidateUserTag(userTag); err != nil {
		p.metrics.RecordRequest(false, false, time.Since(started).Seconds())
		return nil, datatypes.NewValidationError(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fingerprint := cache.Fingerprint(normalized)
	correlationID := uuid.NewString()
	log := p.logger.With("correlation_id", correlationID)

	log.Info("processing question started",
		"text_length", len(normalized),
		"user_tag_present", userTag != "")

	// Step 2: cache lookup.
	queryKey := cache.QueryKey(fingerprint)
	var cached datatypes.ResponseEnvelope
	if p.cache.Get(queryKey, &cached) {
		now := time.Now().UTC()
		cached.CachedAt = &now
		p.metrics.RecordCacheOp("get", "hit")
		p.metrics.RecordRequest(true, true, time.Since(started).Seconds())
		log.Info("processing question finished",
			"outcome", "success",
			"elapsed_ms", time.Since(started).Milliseconds(),
			"cache_hit", true,
			"insights", len(cached.Insights),
			"estimated_cost_usd", 0.0)
		return &cached, nil
	}
	p.metrics.RecordCacheOp("get", "miss")

	// The end line's estimated cost is the ledger's growth during this
	// call; calls running concurrently add to the same ledger.
	var ledger *gateway.CostLedger
	if lg, ok := p.gateway.(interface{ Ledger() *gateway.CostLedger }); ok {
		ledger = lg.Ledger()
	}
	costBefore := 0.0
	if ledger != nil {
		costBefore = ledger.Snapshot().TotalCost
	}

	// Step 3: persist the question; continue in-memory on failure.
	question := p.createQuestion(ctx, normalized, userTag, log)

	// Step 4: intent.
	stageStart := time.Now()
	intent := p.analyzeIntent(ctx, normalized, fingerprint)
	p.metrics.RecordStage("intent", time.Since(stageStart).Seconds())

	// Step 5: data context.
	stageStart = time.Now()
	dctx, summary := p.retrieveContext(ctx, strings.ToLower(normalized), intent)
	p.metrics.RecordStage("context", time.Since(stageStart).Seconds())

	// Step 6: insights + recommendations.
	stageStart = time.Now()
	insights := p.generateInsights(ctx, normalized, summary, question.ID, dctx)
	recommendations := Recommendations(insights)
	p.metrics.RecordStage("insights", time.Since(stageStart).Seconds())

	// Step 7: visualizations.
	stageStart = time.Now()
	visualizations := BuildVisualizations(intent, dctx)
	p.metrics.RecordStage("visualizations", time.Since(stageStart).Seconds())

	// Step 8: persist insights, mark processed.
	stageStart = time.Now()
	insights = p.persistResults(ctx, &question, insights, log)
	p.metrics.RecordStage("persist", time.Since(stageStart).Seconds())

	// Steps 9-11: envelope, cache write-back, return.
	envelope := &datatypes.ResponseEnvelope{
		Success:         true,
		Query:           question,
		Intent:          intent,
		Insights:        insights,
		Recommendations: recommendations,
		Visualizations:  visualizations,
		ProcessedAt:     time.Now().UTC(),
	}

	if p.cache.Set(queryKey, envelope, cache.QueryTTL) {
		p.metrics.RecordCacheOp("set", "ok")
	} else {
		p.metrics.RecordCacheOp("set", "error")
	}

	estimatedCost := 0.0
	if ledger != nil {
		estimatedCost = ledger.Snapshot().TotalCost - costBefore
	}

	p.metrics.RecordRequest(true, false, time.Since(started).Seconds())
	log.Info("processing question finished",
		"outcome", "success",
		"elapsed_ms", time.Since(started).Milliseconds(),
		"cache_hit", false,
		"insights", len(insights),
		"intent", intent.Intent,
		"estimated_cost_usd", estimatedCost)

	return envelope, nil
}

// createQuestion persists the question, degrading to an in-memory
// record (id 0) when the metadata store is unavailable.
func (p *Processor) createQuestion(ctx context.Context, text, userTag string, log *slog.Logger) datatypes.Question {
	now := time.Now().UTC()
	if p.store == nil {
		return datatypes.Question{Text: text, UserID: userTag, CreatedAt: now, UpdatedAt: now}
	}

	question, err := p.store.Create(ctx, text, userTag)
	if err != nil {
		log.Warn("question persistence failed, continuing with in-memory question", "error", err)
		p.metrics.RecordFallback("persistence")
		return datatypes.Question{Text: text, UserID: userTag, CreatedAt: now, UpdatedAt: now}
	}
	return question
}

// persistResults stores the insights and marks the question processed.
// The response summary is the first insight's title. Persistence
// failures are logged and skipped.
func (p *Processor) persistResults(ctx context.Context, question *datatypes.Question, insights []datatypes.Insight, log *slog.Logger) []datatypes.Insight {
	summary := "Processed"
	if len(insights) > 0 {
		summary = insights[0].Title
	}
	question.Processed = true
	question.Response = summary
	question.UpdatedAt = time.Now().UTC()

	if p.store == nil || question.ID == 0 {
		return insights
	}

	stored, err := p.store.StoreInsights(ctx, question.ID, insights)
	if err != nil {
		log.Warn("insight persistence failed", "question_id", question.ID, "error", err)
		p.metrics.RecordFallback("persistence")
	} else {
		insights = stored
	}

	if err := p.store.MarkProcessed(ctx, question.ID, summary); err != nil {
		log.Warn("marking question processed failed", "question_id", question.ID, "error", err)
		p.metrics.RecordFallback("persistence")
	}

	return insights
}

// --- Secondary read operations ---

// ErrStoreDisabled is returned by read operations when no metadata
// store is configured.
var ErrStoreDisabled = errors.New("metadata store is not configured")

// GetQuestion returns one stored question.
func (p *Processor) GetQuestion(ctx context.Context, id int64) (datatypes.Question, error) {
	if p.store == nil {
		return datatypes.Question{}, ErrStoreDisabled
	}
	return p.store.Get(ctx, id)
}

// ListQuestions returns a page of stored questions, newest first.
func (p *Processor) ListQuestions(ctx context.Context, offset, limit int) ([]datatypes.Question, error) {
	if p.store == nil {
		return nil, ErrStoreDisabled
	}
	return p.store.List(ctx, offset, limit)
}

// InsightsForQuestion returns the stored insights for a question.
func (p *Processor) InsightsForQuestion(ctx context.Context, id int64) ([]datatypes.Insight, error) {
	if p.store == nil {
		return nil, ErrStoreDisabled
	}
	return p.store.InsightsFor(ctx, id)
}

// CacheStats exposes the cache counters for the stats endpoint.
func (p *Processor) CacheStats() cache.Stats {
	return p.cache.Stats()
}
