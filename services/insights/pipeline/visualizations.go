// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

const (
	// maxChartPoints bounds every chart; larger contexts keep the top-N
	// rows by the primary measure.
	maxChartPoints = 50

	// maxVisualizations bounds the per-question chart list.
	maxVisualizations = 3
)

// chartPalette is the rotating fill palette for pie and doughnut charts.
var chartPalette = []string{
	"rgba(255, 99, 132, 0.7)",
	"rgba(54, 162, 235, 0.7)",
	"rgba(255, 205, 86, 0.7)",
	"rgba(75, 192, 192, 0.7)",
	"rgba(153, 102, 255, 0.7)",
	"rgba(255, 159, 64, 0.7)",
}

// intentChartDefaults picks chart kinds when the intent carries no
// suggestions, in preference order.
var intentChartDefaults = map[datatypes.IntentTag][]datatypes.VizKind{
	datatypes.IntentTrendAnalysis:   {datatypes.VizLineChart, datatypes.VizAreaChart, datatypes.VizMultiLineChart},
	datatypes.IntentComparison:      {datatypes.VizBarChart, datatypes.VizHorizontalBarChart, datatypes.VizRadarChart},
	datatypes.IntentPrediction:      {datatypes.VizLineChart, datatypes.VizScatterPlot},
	datatypes.IntentRootCause:       {datatypes.VizBarChart, datatypes.VizStackedBarChart},
	datatypes.IntentRecommendation:  {datatypes.VizDoughnutChart, datatypes.VizPieChart, datatypes.VizBarChart},
	datatypes.IntentGeneralAnalysis: {datatypes.VizBarChart},
}

// trendShaped kinds prefer the date dimension over a categorical one.
var trendShaped = map[datatypes.VizKind]bool{
	datatypes.VizLineChart:      true,
	datatypes.VizAreaChart:      true,
	datatypes.VizMultiLineChart: true,
}

// BuildVisualizations maps an intent and a data context to 0-3 concrete
// chart specifications. An empty context yields an empty list.
func BuildVisualizations(intent datatypes.Intent, dctx datatypes.DataContext) []datatypes.Visualization {
	if dctx.RowCount() == 0 {
		return nil
	}

	kinds := intent.SuggestedVisualizations
	if len(kinds) == 0 {
		kinds = intentChartDefaults[intent.Intent]
	}
	if len(kinds) == 0 {
		kinds = []datatypes.VizKind{datatypes.VizBarChart}
	}

	seen := make(map[datatypes.VizKind]bool)
	var visualizations []datatypes.Visualization
	for _, kind := range kinds {
		if len(visualizations) >= maxVisualizations {
			break
		}
		if !kind.IsValid() || seen[kind] {
			continue
		}
		seen[kind] = true

		table := tableForContext(kind, dctx)
		if len(table.Labels) == 0 {
			continue
		}
		visualizations = append(visualizations, chartFromTable(kind, table, string(dctx.DataSource())))
	}

	return visualizations
}

// =============================================================================
// Context -> Table
// =============================================================================

// measure is one numeric series, index-aligned with the table labels.
type measure struct {
	Name   string
	Label  string
	Values []float64
}

// chartTable is the intermediate tabular shape charts are built from.
type chartTable struct {
	Dimension string
	DimLabel  string
	Labels    []string
	Measures  []measure
	TimeDim   bool
}

func tableForContext(kind datatypes.VizKind, dctx datatypes.DataContext) chartTable {
	switch dctx.Kind {
	case datatypes.ContextSales:
		if trendShaped[kind] {
			return salesByDate(dctx.Sales)
		}
		return salesByProduct(dctx.Sales)
	case datatypes.ContextInventory:
		return inventoryByProduct(dctx.Inventory)
	case datatypes.ContextCustomers:
		return customersBySegment(dctx.Customers)
	case datatypes.ContextMetrics:
		return metricsTable(dctx.Metrics)
	case datatypes.ContextDynamic:
		return dynamicTable(dctx.Dynamic)
	}
	return chartTable{}
}

// aggregated accumulates measure sums per dimension value.
type aggregated struct {
	keys   []string
	values map[string][]float64
	n      int
}

func newAggregated(measures int) *aggregated {
	return &aggregated{values: make(map[string][]float64), n: measures}
}

func (a *aggregated) add(key string, vals ...float64) {
	row, ok := a.values[key]
	if !ok {
		row = make([]float64, a.n)
		a.keys = append(a.keys, key)
		a.values[key] = row
	}
	for i := range vals {
		row[i] += vals[i]
	}
}

// bounded returns labels ordered for charting: the top-N keys by the
// primary (first) measure, ties broken by label ascending. Time
// dimensions are re-sorted chronologically after bounding.
func (a *aggregated) bounded(timeDim bool) []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	sort.Slice(keys, func(i, j int) bool {
		vi, vj := a.values[keys[i]][0], a.values[keys[j]][0]
		if vi != vj {
			return vi > vj
		}
		return keys[i] < keys[j]
	})
	if len(keys) > maxChartPoints {
		keys = keys[:maxChartPoints]
	}
	if timeDim {
		sort.Strings(keys)
	}
	return keys
}

func (a *aggregated) series(labels []string, idx int) []float64 {
	out := make([]float64, len(labels))
	for i, label := range labels {
		out[i] = a.values[label][idx]
	}
	return out
}

func salesByProduct(s *datatypes.SalesContext) chartTable {
	if s == nil {
		return chartTable{}
	}
	agg := newAggregated(3)
	for _, r := range s.Records {
		agg.add(r.Product, r.Revenue, r.Profit, float64(r.Quantity))
	}
	labels := agg.bounded(false)
	return chartTable{
		Dimension: "product",
		DimLabel:  "Product",
		Labels:    labels,
		Measures: []measure{
			{Name: "revenue", Label: "Revenue", Values: agg.series(labels, 0)},
			{Name: "profit", Label: "Profit", Values: agg.series(labels, 1)},
			{Name: "quantity_sold", Label: "Quantity", Values: agg.series(labels, 2)},
		},
	}
}

func salesByDate(s *datatypes.SalesContext) chartTable {
	if s == nil {
		return chartTable{}
	}
	agg := newAggregated(2)
	for _, r := range s.Records {
		agg.add(r.Date, r.Revenue, r.Profit)
	}
	labels := agg.bounded(true)
	return chartTable{
		Dimension: "date",
		DimLabel:  "Date",
		Labels:    labels,
		TimeDim:   true,
		Measures: []measure{
			{Name: "revenue", Label: "Revenue", Values: agg.series(labels, 0)},
			{Name: "profit", Label: "Profit", Values: agg.series(labels, 1)},
		},
	}
}

func inventoryByProduct(inv *datatypes.InventoryContext) chartTable {
	if inv == nil {
		return chartTable{}
	}
	agg := newAggregated(2)
	for _, item := range inv.Items {
		agg.add(item.Product, float64(item.CurrentStock), float64(item.ReorderLevel))
	}
	labels := agg.bounded(false)
	return chartTable{
		Dimension: "product",
		DimLabel:  "Product",
		Labels:    labels,
		Measures: []measure{
			{Name: "current_stock", Label: "Stock", Values: agg.series(labels, 0)},
			{Name: "reorder_level", Label: "Reorder Level", Values: agg.series(labels, 1)},
		},
	}
}

func customersBySegment(c *datatypes.CustomerContext) chartTable {
	if c == nil {
		return chartTable{}
	}
	agg := newAggregated(2)
	for _, cust := range c.Customers {
		segment := cust.AgeGroup
		if segment == "" {
			segment = "unknown"
		}
		agg.add(segment, cust.TotalPurchases, cust.TotalSpent)
	}
	labels := agg.bounded(false)
	return chartTable{
		Dimension: "age_group",
		DimLabel:  "Customer Segment",
		Labels:    labels,
		Measures: []measure{
			{Name: "total_purchases", Label: "Purchases", Values: agg.series(labels, 0)},
			{Name: "total_spent", Label: "Spend", Values: agg.series(labels, 1)},
		},
	}
}

func metricsTable(m *datatypes.MetricsContext) chartTable {
	if m == nil {
		return chartTable{}
	}
	return chartTable{
		Dimension: "metric",
		DimLabel:  "Metric",
		Labels: []string{
			"Total Revenue", "Total Profit", "Profit Margin",
			"Customer Count", "Average Order Value", "Inventory Turnover",
		},
		Measures: []measure{{
			Name:  "value",
			Label: "Value",
			Values: []float64{
				m.TotalRevenue, m.TotalProfit, m.ProfitMargin,
				float64(m.CustomerCount), m.AverageOrderValue, m.InventoryTurnover,
			},
		}},
	}
}

func dynamicTable(d *datatypes.DynamicContext) chartTable {
	if d == nil || len(d.Rows) == 0 || len(d.Columns) == 0 {
		return chartTable{}
	}

	dimension := d.Columns[0]
	var numericCols []string
	for _, col := range d.Columns[1:] {
		if columnIsNumeric(d.Rows, col) {
			numericCols = append(numericCols, col)
		}
	}
	if len(numericCols) == 0 {
		return chartTable{}
	}

	agg := newAggregated(len(numericCols))
	for _, row := range d.Rows {
		key := fmt.Sprintf("%v", row[dimension])
		vals := make([]float64, len(numericCols))
		for i, col := range numericCols {
			vals[i] = toFloat(row[col])
		}
		agg.add(key, vals...)
	}

	labels := agg.bounded(false)
	measures := make([]measure, len(numericCols))
	for i, col := range numericCols {
		measures[i] = measure{Name: col, Label: titleCase(col), Values: agg.series(labels, i)}
	}
	return chartTable{
		Dimension: dimension,
		DimLabel:  titleCase(dimension),
		Labels:    labels,
		Measures:  measures,
	}
}

func columnIsNumeric(rows []map[string]any, col string) bool {
	for _, row := range rows {
		switch row[col].(type) {
		case float64, float32, int, int64:
			return true
		case nil:
			continue
		default:
			return false
		}
	}
	return false
}

func toFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return 0
}

func titleCase(col string) string {
	parts := strings.Split(col, "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// Table -> Chart
// =============================================================================

var rendererTypes = map[datatypes.VizKind]string{
	datatypes.VizBarChart:           "bar",
	datatypes.VizHorizontalBarChart: "bar",
	datatypes.VizStackedBarChart:    "bar",
	datatypes.VizLineChart:          "line",
	datatypes.VizAreaChart:          "line",
	datatypes.VizMultiLineChart:     "line",
	datatypes.VizPieChart:           "pie",
	datatypes.VizDoughnutChart:      "doughnut",
	datatypes.VizScatterPlot:        "scatter",
	datatypes.VizBubbleChart:        "bubble",
	datatypes.VizRadarChart:         "radar",
}

func chartFromTable(kind datatypes.VizKind, t chartTable, source string) datatypes.Visualization {
	primary := t.Measures[0]

	var datasets []datatypes.Dataset
	switch kind {
	case datatypes.VizMultiLineChart:
		limit := len(t.Measures)
		if limit > 3 {
			limit = 3
		}
		for i := 0; i < limit; i++ {
			m := t.Measures[i]
			color := chartPalette[i%len(chartPalette)]
			datasets = append(datasets, datatypes.Dataset{
				Label:           m.Label,
				Data:            m.Values,
				BorderColor:     strings.Replace(color, "0.7", "1", 1),
				BackgroundColor: color,
				BorderWidth:     2,
				Tension:         0.1,
			})
		}
	case datatypes.VizPieChart, datatypes.VizDoughnutChart:
		datasets = append(datasets, datatypes.Dataset{
			Label:           primary.Label,
			Data:            primary.Values,
			BackgroundColor: paletteFor(len(t.Labels)),
			BorderWidth:     1,
		})
	case datatypes.VizAreaChart:
		datasets = append(datasets, datatypes.Dataset{
			Label:           primary.Label,
			Data:            primary.Values,
			BorderColor:     "rgba(75, 192, 192, 1)",
			BackgroundColor: "rgba(75, 192, 192, 0.3)",
			BorderWidth:     2,
			Fill:            true,
			Tension:         0.1,
		})
	case datatypes.VizLineChart:
		datasets = append(datasets, datatypes.Dataset{
			Label:           primary.Label,
			Data:            primary.Values,
			BorderColor:     "rgba(75, 192, 192, 1)",
			BackgroundColor: "rgba(75, 192, 192, 0.2)",
			BorderWidth:     2,
			Tension:         0.1,
		})
	case datatypes.VizStackedBarChart:
		datasets = append(datasets, datatypes.Dataset{
			Label:           primary.Label,
			Data:            primary.Values,
			BackgroundColor: "rgba(255, 99, 132, 0.7)",
			BorderColor:     "rgba(255, 99, 132, 1)",
			BorderWidth:     1,
			Stack:           "Stack 0",
		})
	default:
		datasets = append(datasets, datatypes.Dataset{
			Label:           primary.Label,
			Data:            primary.Values,
			BackgroundColor: "rgba(54, 162, 235, 0.7)",
			BorderColor:     "rgba(54, 162, 235, 1)",
			BorderWidth:     1,
		})
	}

	title := chartTitle(kind, primary.Label, t)
	options := chartOptions(kind, title, primary.Label, t.DimLabel)

	columns := []string{t.Dimension}
	for _, ds := range datasets {
		for _, m := range t.Measures {
			if m.Label == ds.Label {
				columns = append(columns, m.Name)
			}
		}
	}

	return datatypes.Visualization{
		Type:        kind,
		Title:       title,
		DataSource:  source,
		DataPoints:  len(t.Labels),
		ColumnsUsed: columns,
		ChartData: datatypes.ChartData{
			Type: rendererTypes[kind],
			Data: datatypes.ChartPayload{
				Labels:   t.Labels,
				Datasets: datasets,
			},
			Options: options,
		},
	}
}

func paletteFor(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = chartPalette[i%len(chartPalette)]
	}
	return colors
}

func chartTitle(kind datatypes.VizKind, measureLabel string, t chartTable) string {
	switch {
	case kind == datatypes.VizPieChart || kind == datatypes.VizDoughnutChart:
		return fmt.Sprintf("Distribution of %s by %s", measureLabel, t.DimLabel)
	case kind == datatypes.VizMultiLineChart:
		return fmt.Sprintf("Multiple Metrics over %s", t.DimLabel)
	case trendShaped[kind] || t.TimeDim:
		return fmt.Sprintf("%s Trend over %s", measureLabel, t.DimLabel)
	case kind == datatypes.VizStackedBarChart:
		return fmt.Sprintf("%s by %s (Stacked)", measureLabel, t.DimLabel)
	default:
		return fmt.Sprintf("%s by %s", measureLabel, t.DimLabel)
	}
}

func chartOptions(kind datatypes.VizKind, title, measureLabel, dimLabel string) map[string]any {
	options := map[string]any{
		"responsive": true,
		"plugins": map[string]any{
			"title":  map[string]any{"display": true, "text": title},
			"legend": map[string]any{"display": true},
		},
	}

	switch kind {
	case datatypes.VizPieChart, datatypes.VizDoughnutChart:
		options["plugins"].(map[string]any)["legend"] = map[string]any{
			"display": true, "position": "bottom",
		}
	case datatypes.VizRadarChart:
		options["scales"] = map[string]any{
			"r": map[string]any{
				"beginAtZero": true,
				"title":       map[string]any{"display": true, "text": measureLabel},
			},
		}
	case datatypes.VizHorizontalBarChart:
		options["indexAxis"] = "y"
		options["scales"] = map[string]any{
			"x": map[string]any{
				"beginAtZero": true,
				"title":       map[string]any{"display": true, "text": measureLabel},
			},
			"y": map[string]any{
				"title": map[string]any{"display": true, "text": dimLabel},
			},
		}
	case datatypes.VizStackedBarChart:
		options["scales"] = map[string]any{
			"x": map[string]any{
				"stacked": true,
				"title":   map[string]any{"display": true, "text": dimLabel},
			},
			"y": map[string]any{
				"stacked":     true,
				"beginAtZero": true,
				"title":       map[string]any{"display": true, "text": measureLabel},
			},
		}
	default:
		options["scales"] = map[string]any{
			"x": map[string]any{
				"title": map[string]any{"display": true, "text": dimLabel},
			},
			"y": map[string]any{
				"beginAtZero": true,
				"title":       map[string]any{"display": true, "text": measureLabel},
			},
		}
	}

	return options
}
