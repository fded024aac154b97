// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/cache"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

// fakeGateway scripts LLM outcomes for pipeline tests.
type fakeGateway struct {
	intent      datatypes.Intent
	intentErr   error
	insights    []datatypes.Insight
	insightsErr error

	mu            sync.Mutex
	intentCalls   int
	insightsCalls int
}

func (f *fakeGateway) Enabled() bool { return f.intentErr == nil || f.insightsErr == nil }

func (f *fakeGateway) ClassifyIntent(ctx context.Context, question string) (datatypes.Intent, error) {
	f.mu.Lock()
	f.intentCalls++
	f.mu.Unlock()
	if f.intentErr != nil {
		return datatypes.Intent{}, f.intentErr
	}
	return f.intent, nil
}

func (f *fakeGateway) GenerateInsights(ctx context.Context, question, contextSummary string) ([]datatypes.Insight, error) {
	f.mu.Lock()
	f.insightsCalls++
	f.mu.Unlock()
	if f.insightsErr != nil {
		return nil, f.insightsErr
	}
	out := make([]datatypes.Insight, len(f.insights))
	copy(out, f.insights)
	return out, nil
}

func (f *fakeGateway) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intentCalls, f.insightsCalls
}

func llmDown() error {
	return &datatypes.PipelineError{Kind: datatypes.ErrKindLLMUnavailable, Message: "down"}
}

// fakeWarehouse serves canned rows or a scripted failure.
type fakeWarehouse struct {
	sales     []datatypes.SalesRecord
	inventory []datatypes.InventoryItem
	customers []datatypes.Customer
	metrics   *datatypes.MetricsContext
	err       error
}

func warehouseDown() error {
	return &datatypes.PipelineError{Kind: datatypes.ErrKindWarehouseUnavail, Message: "down"}
}

func (f *fakeWarehouse) Sales(ctx context.Context, days int) ([]datatypes.SalesRecord, error) {
	return f.sales, f.err
}

func (f *fakeWarehouse) Inventory(ctx context.Context) ([]datatypes.InventoryItem, error) {
	return f.inventory, f.err
}

func (f *fakeWarehouse) Customers(ctx context.Context, limit int) ([]datatypes.Customer, error) {
	if limit < len(f.customers) {
		return f.customers[:limit], f.err
	}
	return f.customers, f.err
}

func (f *fakeWarehouse) Metrics(ctx context.Context) (*datatypes.MetricsContext, error) {
	return f.metrics, f.err
}

// fakeStore is an in-memory QueryStore.
type fakeStore struct {
	mu        sync.Mutex
	questions map[int64]datatypes.Question
	insights  map[int64][]datatypes.Insight
	nextID    int64
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		questions: make(map[int64]datatypes.Question),
		insights:  make(map[int64][]datatypes.Insight),
		nextID:    1,
	}
}

func (f *fakeStore) Create(ctx context.Context, text, userTag string) (datatypes.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return datatypes.Question{}, f.err
	}
	now := time.Now().UTC()
	q := datatypes.Question{ID: f.nextID, Text: text, UserID: userTag, CreatedAt: now, UpdatedAt: now}
	f.questions[q.ID] = q
	f.nextID++
	return q, nil
}

func (f *fakeStore) MarkProcessed(ctx context.Context, id int64, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	q, ok := f.questions[id]
	if !ok {
		return datatypes.NewValidationError("not found")
	}
	q.Processed = true
	q.Response = summary
	q.UpdatedAt = time.Now().UTC()
	f.questions[id] = q
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (datatypes.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return datatypes.Question{}, f.err
	}
	return q, nil
}

func (f *fakeStore) List(ctx context.Context, offset, limit int) ([]datatypes.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []datatypes.Question
	for _, q := range f.questions {
		out = append(out, q)
	}
	return out, f.err
}

func (f *fakeStore) StoreInsights(ctx context.Context, questionID int64, insights []datatypes.Insight) ([]datatypes.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	stored := make([]datatypes.Insight, len(insights))
	copy(stored, insights)
	for i := range stored {
		stored[i].ID = int64(i + 1)
		stored[i].QuestionID = questionID
	}
	f.insights[questionID] = stored
	return stored, nil
}

func (f *fakeStore) InsightsFor(ctx context.Context, questionID int64) ([]datatypes.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insights[questionID], f.err
}

// testProcessor wires a processor over fakes plus an in-memory cache.
func testProcessor(t *testing.T, gw LLMGateway, wh Warehouse, store QueryStore) *Processor {
	t.Helper()
	kv, err := cache.Open(cache.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	return NewProcessor(Options{
		Cache:     kv,
		Gateway:   gw,
		Warehouse: wh,
		Store:     store,
	})
}

func salesRows() []datatypes.SalesRecord {
	return []datatypes.SalesRecord{
		{Date: "2025-07-01", Product: "Runner X", Category: "shoes", Store: "Paris", Quantity: 3, Revenue: 450, Cost: 330, Profit: 120, Region: "EU"},
		{Date: "2025-07-02", Product: "Trail Pro", Category: "shoes", Store: "Lyon", Quantity: 1, Revenue: 180, Cost: 140, Profit: 40, Region: "EU"},
		{Date: "2025-07-03", Product: "Runner X", Category: "shoes", Store: "Paris", Quantity: 2, Revenue: 300, Cost: 220, Profit: 80, Region: "EU"},
	}
}
