// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesFixture() DataContext {
	return DataContext{
		Kind: ContextSales,
		Sales: &SalesContext{
			Records: []SalesRecord{
				{Date: "2025-07-01", Product: "Runner X", Store: "Paris", Quantity: 3, Revenue: 450, Profit: 120},
				{Date: "2025-07-02", Product: "Trail Pro", Store: "Lyon", Quantity: 1, Revenue: 180, Profit: 40},
			},
			TotalRevenue: 630,
			TotalProfit:  160,
			Margin:       25.4,
			TopProducts:  []NameValue{{Name: "Runner X", Value: 450}, {Name: "Trail Pro", Value: 180}},
			TopStores:    []NameValue{{Name: "Paris", Value: 450}, {Name: "Lyon", Value: 180}},
		},
	}
}

func TestFormatSummarySales(t *testing.T) {
	summary := FormatSummary(salesFixture())

	assert.Contains(t, summary, "Sales data: 2 records")
	assert.Contains(t, summary, "Total Revenue: $630.00")
	assert.Contains(t, summary, "Total Profit: $160.00")
	assert.Contains(t, summary, "Margin: 25.4%")
	assert.Contains(t, summary, "Runner X: $450.00")
	assert.Contains(t, summary, "Paris: $450.00")
	assert.Contains(t, summary, "2025-07-01: Runner X at Paris - Qty: 3, Revenue: $450.00, Profit: $120.00")
}

func TestFormatSummarySalesDeterministic(t *testing.T) {
	a := FormatSummary(salesFixture())
	b := FormatSummary(salesFixture())
	assert.Equal(t, a, b)
}

func TestFormatSummarySalesCapsSamples(t *testing.T) {
	ctx := salesFixture()
	for i := 0; i < 20; i++ {
		ctx.Sales.Records = append(ctx.Sales.Records, SalesRecord{
			Date: fmt.Sprintf("2025-07-%02d", i+3), Product: "Filler", Store: "Nice",
			Quantity: 1, Revenue: 10, Profit: 1,
		})
	}
	summary := FormatSummary(ctx)
	assert.Equal(t, 5, strings.Count(summary, "Qty:"))
}

func TestFormatSummaryInventory(t *testing.T) {
	ctx := DataContext{
		Kind: ContextInventory,
		Inventory: &InventoryContext{
			Items: []InventoryItem{
				{Product: "Runner X", Store: "Paris", CurrentStock: 4, ReorderLevel: 10},
				{Product: "Trail Pro", Store: "Lyon", CurrentStock: 80, ReorderLevel: 20},
			},
			TotalStock: 84,
			LowStock: []InventoryItem{
				{Product: "Runner X", Store: "Paris", CurrentStock: 4, ReorderLevel: 10},
			},
		},
	}

	summary := FormatSummary(ctx)
	assert.Contains(t, summary, "Inventory data: 2 items, Total Stock: 84 units, Low Stock Items: 1")
	assert.Contains(t, summary, "Runner X at Paris: 4 units (reorder level: 10)")
}

func TestFormatSummaryCustomersOmitsEmail(t *testing.T) {
	ctx := DataContext{
		Kind: ContextCustomers,
		Customers: &CustomerContext{
			Customers: []Customer{
				{Name: "Ana", Email: "ana@example.com", Region: "EU", AgeGroup: "25-34", TotalPurchases: 12, TotalSpent: 940},
			},
			TotalPurchases:   12,
			AveragePurchases: 12,
		},
	}

	summary := FormatSummary(ctx)
	assert.Contains(t, summary, "Customer data: 1 customers")
	assert.Contains(t, summary, "Ana (EU, 25-34)")
	assert.NotContains(t, summary, "ana@example.com")
}

func TestFormatSummaryMetrics(t *testing.T) {
	ctx := DataContext{
		Kind: ContextMetrics,
		Metrics: &MetricsContext{
			TotalRevenue:      125000.5,
			TotalProfit:       31250,
			ProfitMargin:      25,
			CustomerCount:     420,
			AverageOrderValue: 87.3,
			InventoryTurnover: 3.42,
		},
	}

	summary := FormatSummary(ctx)
	assert.Contains(t, summary, "Total Revenue: $125,000.50")
	assert.Contains(t, summary, "Profit Margin: 25.0%")
	assert.Contains(t, summary, "Customer Count: 420")
	assert.Contains(t, summary, "Inventory Turnover: 3.42")
}

func TestFormatSummaryDynamic(t *testing.T) {
	t.Run("empty rows", func(t *testing.T) {
		ctx := DataContext{
			Kind:    ContextDynamic,
			Dynamic: &DynamicContext{Description: "no matched source"},
		}
		assert.Equal(t, "No matched source.", FormatSummary(ctx))
	})

	t.Run("rows with numeric formatting", func(t *testing.T) {
		ctx := DataContext{
			Kind: ContextDynamic,
			Dynamic: &DynamicContext{
				Columns:     []string{"store", "total"},
				Rows:        []map[string]any{{"store": "Paris", "total": 1234567.5}},
				Description: "per-store totals",
			},
		}
		summary := FormatSummary(ctx)
		assert.Contains(t, summary, "store: Paris")
		assert.Contains(t, summary, "total: 1,234,567.50")
	})

	t.Run("caps at ten rows", func(t *testing.T) {
		rows := make([]map[string]any, 25)
		for i := range rows {
			rows[i] = map[string]any{"v": float64(i)}
		}
		ctx := DataContext{
			Kind:    ContextDynamic,
			Dynamic: &DynamicContext{Columns: []string{"v"}, Rows: rows, Description: "x"},
		}
		summary := FormatSummary(ctx)
		assert.Equal(t, 10, strings.Count(summary, "v: "))
	})
}

func TestFormatSummaryTruncation(t *testing.T) {
	rows := make([]map[string]any, 10)
	long := strings.Repeat("z", 600)
	for i := range rows {
		rows[i] = map[string]any{"c": long}
	}
	ctx := DataContext{
		Kind:    ContextDynamic,
		Dynamic: &DynamicContext{Columns: []string{"c"}, Rows: rows, Description: "big"},
	}

	summary := FormatSummary(ctx)
	require.LessOrEqual(t, len(summary), MaxSummaryLen)
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.995, "1,000.00"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-9876.5, "-9,876.50"},
		{12, "12.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in), "input %v", tt.in)
	}
}

func TestTopByValue(t *testing.T) {
	totals := map[string]float64{"a": 10, "b": 30, "c": 30, "d": 5}

	top := TopByValue(totals, 3)
	require.Len(t, top, 3)
	// Ties break by name ascending.
	assert.Equal(t, NameValue{Name: "b", Value: 30}, top[0])
	assert.Equal(t, NameValue{Name: "c", Value: 30}, top[1])
	assert.Equal(t, NameValue{Name: "a", Value: 10}, top[2])
}

func TestRowCountByVariant(t *testing.T) {
	assert.Equal(t, 2, salesFixture().RowCount())
	assert.Equal(t, 0, DataContext{Kind: ContextSales}.RowCount())
	assert.Equal(t, 1, DataContext{Kind: ContextMetrics, Metrics: &MetricsContext{}}.RowCount())
	assert.Equal(t, 0, DataContext{Kind: ContextMetrics}.RowCount())
	assert.Equal(t, 0, DataContext{Kind: ContextDynamic, Dynamic: &DynamicContext{}}.RowCount())
}
