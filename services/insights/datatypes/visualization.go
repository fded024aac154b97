// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// =============================================================================
// Visualization Kinds
// =============================================================================

// VizKind is a renderable chart type. The set matches what the frontend
// charting layer accepts.
type VizKind string

const (
	VizBarChart           VizKind = "bar_chart"
	VizLineChart          VizKind = "line_chart"
	VizPieChart           VizKind = "pie_chart"
	VizDoughnutChart      VizKind = "doughnut_chart"
	VizScatterPlot        VizKind = "scatter_plot"
	VizBubbleChart        VizKind = "bubble_chart"
	VizRadarChart         VizKind = "radar_chart"
	VizHorizontalBarChart VizKind = "horizontal_bar_chart"
	VizStackedBarChart    VizKind = "stacked_bar_chart"
	VizMultiLineChart     VizKind = "multi_line_chart"
	VizAreaChart          VizKind = "area_chart"
)

var validVizKinds = map[VizKind]bool{
	VizBarChart:           true,
	VizLineChart:          true,
	VizPieChart:           true,
	VizDoughnutChart:      true,
	VizScatterPlot:        true,
	VizBubbleChart:        true,
	VizRadarChart:         true,
	VizHorizontalBarChart: true,
	VizStackedBarChart:    true,
	VizMultiLineChart:     true,
	VizAreaChart:          true,
}

// IsValid reports whether the kind is one of the defined constants.
func (k VizKind) IsValid() bool {
	return validVizKinds[k]
}

// AllVizKinds returns the full closed set in a stable order. Used by the
// intent fallback path.
func AllVizKinds() []VizKind {
	return []VizKind{
		VizBarChart, VizLineChart, VizPieChart, VizDoughnutChart,
		VizScatterPlot, VizBubbleChart, VizRadarChart,
		VizHorizontalBarChart, VizStackedBarChart, VizMultiLineChart,
		VizAreaChart,
	}
}

// =============================================================================
// Chart Payloads
// =============================================================================

// Dataset is one measure series inside a chart payload. The Data slice
// is index-aligned with the chart's labels.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     any       `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
	Stack           string    `json:"stack,omitempty"`
}

// ChartPayload is the labels/datasets body of a chart.
type ChartPayload struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// ChartData is the full renderer-facing chart specification: a renderer
// type tag, the data body, and a free-form options mapping carrying at
// minimum a title and axis labels.
type ChartData struct {
	Type    string         `json:"type"`
	Data    ChartPayload   `json:"data"`
	Options map[string]any `json:"options"`
}

// Visualization is an immutable chart specification built from a
// DataContext.
//
// Invariant: DataPoints equals len(ChartData.Data.Labels) and equals the
// length of every dataset's value array.
type Visualization struct {
	Type        VizKind   `json:"type"`
	Title       string    `json:"title"`
	DataSource  string    `json:"data_source"`
	DataPoints  int       `json:"data_points"`
	ColumnsUsed []string  `json:"columns_used"`
	ChartData   ChartData `json:"chart_data"`
}
