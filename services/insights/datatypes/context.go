// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Context Variants
// =============================================================================

// ContextKind discriminates the DataContext variants.
type ContextKind string

const (
	ContextSales     ContextKind = "sales"
	ContextInventory ContextKind = "inventory"
	ContextCustomers ContextKind = "customers"
	ContextMetrics   ContextKind = "metrics"
	ContextDynamic   ContextKind = "dynamic"
)

// SalesRecord is one per-transaction sales row from the warehouse.
type SalesRecord struct {
	Date     string  `json:"date"`
	Product  string  `json:"product"`
	Category string  `json:"category"`
	Store    string  `json:"store"`
	Quantity int64   `json:"quantity_sold"`
	Revenue  float64 `json:"revenue"`
	Cost     float64 `json:"cost"`
	Profit   float64 `json:"profit"`
	Region   string  `json:"region"`
}

// NameValue is a labeled aggregate (e.g. a product and its revenue).
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SalesContext carries sales rows plus the aggregates the insight prompt
// and the chart builder need.
type SalesContext struct {
	Records      []SalesRecord `json:"records"`
	TotalRevenue float64       `json:"total_revenue"`
	TotalProfit  float64       `json:"total_profit"`
	Margin       float64       `json:"margin"`
	TopProducts  []NameValue   `json:"top_products"`
	TopStores    []NameValue   `json:"top_stores"`
}

// InventoryItem is one per-(store, product) stock row.
type InventoryItem struct {
	Product       string `json:"product"`
	Store         string `json:"store"`
	CurrentStock  int64  `json:"current_stock"`
	ReorderLevel  int64  `json:"reorder_level"`
	MaxStock      int64  `json:"max_stock"`
	LastRestocked string `json:"last_restocked"`
	Supplier      string `json:"supplier"`
	Status        string `json:"status"`
}

// InventoryContext carries inventory rows plus stock aggregates.
type InventoryContext struct {
	Items      []InventoryItem `json:"items"`
	TotalStock int64           `json:"total_stock"`
	LowStock   []InventoryItem `json:"low_stock_items"`
}

// Customer is one customer profile row with purchase aggregates.
type Customer struct {
	CustomerID        string  `json:"customer_id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Region            string  `json:"region"`
	AgeGroup          string  `json:"age_group"`
	TotalPurchases    float64 `json:"total_purchases"`
	TotalSpent        float64 `json:"total_spent"`
	LastPurchase      string  `json:"last_purchase"`
	PreferredStore    string  `json:"preferred_store"`
	PreferredCategory string  `json:"preferred_category"`
}

// CustomerContext carries customer rows plus purchase aggregates.
type CustomerContext struct {
	Customers        []Customer `json:"customers"`
	TotalPurchases   float64    `json:"total_purchases"`
	AveragePurchases float64    `json:"average_purchases"`
}

// MetricsContext is the derived business-KPI snapshot.
type MetricsContext struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
	CustomerCount     int64   `json:"customer_count"`
	AverageOrderValue float64 `json:"average_order_value"`
	InventoryTurnover float64 `json:"inventory_turnover"`
}

// DynamicContext carries ad-hoc tabular results when no typed source
// matched the question.
type DynamicContext struct {
	Columns     []string         `json:"columns"`
	Rows        []map[string]any `json:"rows"`
	Description string           `json:"description"`
}

// DataContext is the tagged grounding-evidence variant. Only the variant
// pointer matching Kind may be non-nil; a metrics context whose lookup
// failed carries no pointer at all. The case switches in FormatSummary
// and the chart builder cover every kind.
type DataContext struct {
	Kind      ContextKind       `json:"kind"`
	Sales     *SalesContext     `json:"sales,omitempty"`
	Inventory *InventoryContext `json:"inventory,omitempty"`
	Customers *CustomerContext  `json:"customers,omitempty"`
	Metrics   *MetricsContext   `json:"metrics,omitempty"`
	Dynamic   *DynamicContext   `json:"dynamic,omitempty"`
}

// RowCount returns the number of rows the context materializes.
func (c DataContext) RowCount() int {
	switch c.Kind {
	case ContextSales:
		if c.Sales != nil {
			return len(c.Sales.Records)
		}
	case ContextInventory:
		if c.Inventory != nil {
			return len(c.Inventory.Items)
		}
	case ContextCustomers:
		if c.Customers != nil {
			return len(c.Customers.Customers)
		}
	case ContextMetrics:
		if c.Metrics != nil {
			return 1
		}
	case ContextDynamic:
		if c.Dynamic != nil {
			return len(c.Dynamic.Rows)
		}
	}
	return 0
}

// Columns returns the column set of the context's rows.
func (c DataContext) Columns() []string {
	switch c.Kind {
	case ContextSales:
		return []string{"date", "product", "category", "store", "quantity_sold", "revenue", "cost", "profit", "region"}
	case ContextInventory:
		return []string{"product", "store", "current_stock", "reorder_level", "supplier", "status"}
	case ContextCustomers:
		return []string{"customer_id", "name", "region", "age_group", "total_purchases", "total_spent"}
	case ContextMetrics:
		return []string{"total_revenue", "total_profit", "profit_margin", "customer_count", "average_order_value", "inventory_turnover"}
	case ContextDynamic:
		if c.Dynamic != nil {
			return c.Dynamic.Columns
		}
	}
	return nil
}

// DataSource returns the data-source tag for the context's family.
func (c DataContext) DataSource() DataSourceTag {
	switch c.Kind {
	case ContextInventory:
		return SourceInventoryData
	case ContextCustomers:
		return SourceCustomerData
	case ContextMetrics:
		return SourceBusinessMetrics
	default:
		return SourceSalesData
	}
}

// =============================================================================
// Summary Rendering
// =============================================================================

// MaxSummaryLen caps the rendered context summary fed to the insight
// prompt. Truncation is tail-trimmed with an ellipsis.
const MaxSummaryLen = 4000

const (
	summarySampleTransactions = 5
	summaryTopProducts        = 5
	summaryTopStores          = 3
	summaryLowStockAlerts     = 5
	summarySampleCustomers    = 3
	summaryDynamicRows        = 10
)

// FormatSummary renders a DataContext as a deterministic, bounded text
// block for the insight prompt. The function is pure: identical contexts
// produce byte-identical summaries.
func FormatSummary(c DataContext) string {
	var b strings.Builder

	switch c.Kind {
	case ContextSales:
		formatSalesSummary(&b, c.Sales)
	case ContextInventory:
		formatInventorySummary(&b, c.Inventory)
	case ContextCustomers:
		formatCustomerSummary(&b, c.Customers)
	case ContextMetrics:
		formatMetricsSummary(&b, c.Metrics)
	case ContextDynamic:
		formatDynamicSummary(&b, c.Dynamic)
	default:
		b.WriteString("No specific data context available.")
	}

	return truncateSummary(b.String())
}

func formatSalesSummary(b *strings.Builder, s *SalesContext) {
	if s == nil || len(s.Records) == 0 {
		b.WriteString("Sales data: no records available.")
		return
	}

	fmt.Fprintf(b, "Sales data: %d records, Total Revenue: $%s, Total Profit: $%s, Margin: %.1f%%\n",
		len(s.Records), FormatAmount(s.TotalRevenue), FormatAmount(s.TotalProfit), s.Margin)

	if len(s.TopProducts) > 0 {
		b.WriteString("Top products by revenue:\n")
		for i, p := range s.TopProducts {
			if i >= summaryTopProducts {
				break
			}
			fmt.Fprintf(b, "  %s: $%s\n", p.Name, FormatAmount(p.Value))
		}
	}
	if len(s.TopStores) > 0 {
		b.WriteString("Top stores by revenue:\n")
		for i, st := range s.TopStores {
			if i >= summaryTopStores {
				break
			}
			fmt.Fprintf(b, "  %s: $%s\n", st.Name, FormatAmount(st.Value))
		}
	}

	b.WriteString("Sample transactions:\n")
	for i, r := range s.Records {
		if i >= summarySampleTransactions {
			break
		}
		fmt.Fprintf(b, "  %s: %s at %s - Qty: %d, Revenue: $%s, Profit: $%s\n",
			r.Date, r.Product, r.Store, r.Quantity, FormatAmount(r.Revenue), FormatAmount(r.Profit))
	}
}

func formatInventorySummary(b *strings.Builder, inv *InventoryContext) {
	if inv == nil || len(inv.Items) == 0 {
		b.WriteString("Inventory data: no records available.")
		return
	}

	fmt.Fprintf(b, "Inventory data: %d items, Total Stock: %d units, Low Stock Items: %d\n",
		len(inv.Items), inv.TotalStock, len(inv.LowStock))

	if len(inv.LowStock) > 0 {
		b.WriteString("Low stock alerts:\n")
		for i, item := range inv.LowStock {
			if i >= summaryLowStockAlerts {
				break
			}
			fmt.Fprintf(b, "  %s at %s: %d units (reorder level: %d)\n",
				item.Product, item.Store, item.CurrentStock, item.ReorderLevel)
		}
	}
}

func formatCustomerSummary(b *strings.Builder, c *CustomerContext) {
	if c == nil || len(c.Customers) == 0 {
		b.WriteString("Customer data: no records available.")
		return
	}

	fmt.Fprintf(b, "Customer data: %d customers, Total Purchases: %s, Average Purchases: %.2f\n",
		len(c.Customers), FormatAmount(c.TotalPurchases), c.AveragePurchases)

	b.WriteString("Sample customers:\n")
	for i, cust := range c.Customers {
		if i >= summarySampleCustomers {
			break
		}
		// Email is PII and intentionally omitted from summaries.
		fmt.Fprintf(b, "  %s (%s, %s): %.0f purchases, $%s spent\n",
			cust.Name, cust.Region, cust.AgeGroup, cust.TotalPurchases, FormatAmount(cust.TotalSpent))
	}
}

func formatMetricsSummary(b *strings.Builder, m *MetricsContext) {
	if m == nil {
		b.WriteString("Business metrics: no data available.")
		return
	}

	b.WriteString("Business metrics:\n")
	fmt.Fprintf(b, "  Total Revenue: $%s\n", FormatAmount(m.TotalRevenue))
	fmt.Fprintf(b, "  Total Profit: $%s\n", FormatAmount(m.TotalProfit))
	fmt.Fprintf(b, "  Profit Margin: %.1f%%\n", m.ProfitMargin)
	fmt.Fprintf(b, "  Customer Count: %d\n", m.CustomerCount)
	fmt.Fprintf(b, "  Average Order Value: $%s\n", FormatAmount(m.AverageOrderValue))
	fmt.Fprintf(b, "  Inventory Turnover: %.2f\n", m.InventoryTurnover)
}

func formatDynamicSummary(b *strings.Builder, d *DynamicContext) {
	if d == nil || len(d.Rows) == 0 {
		b.WriteString("No matched source.")
		return
	}

	fmt.Fprintf(b, "Dynamic data (%s): columns [%s], %d rows\n",
		d.Description, strings.Join(d.Columns, ", "), len(d.Rows))

	for i, row := range d.Rows {
		if i >= summaryDynamicRows {
			break
		}
		parts := make([]string, 0, len(d.Columns))
		for _, col := range d.Columns {
			parts = append(parts, fmt.Sprintf("%s: %s", col, formatCell(row[col])))
		}
		fmt.Fprintf(b, "  %s\n", strings.Join(parts, ", "))
	}
}

func formatCell(v any) string {
	switch val := v.(type) {
	case float64:
		return FormatAmount(val)
	case float32:
		return FormatAmount(float64(val))
	case int:
		return FormatAmount(float64(val))
	case int64:
		return FormatAmount(float64(val))
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func truncateSummary(s string) string {
	if len(s) <= MaxSummaryLen {
		return s
	}
	return s[:MaxSummaryLen-3] + "..."
}

// FormatAmount renders a numeric value with thousand separators and two
// decimal places ("1234567.5" -> "1,234,567.50").
func FormatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	out := strings.Join(parts, ",") + frac
	if negative {
		out = "-" + out
	}
	return out
}

// TopByValue returns the top-n NameValue aggregates from totals, sorted
// by value descending with ties broken by name ascending.
func TopByValue(totals map[string]float64, n int) []NameValue {
	out := make([]NameValue, 0, len(totals))
	for name, value := range totals {
		out = append(out, NameValue{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
