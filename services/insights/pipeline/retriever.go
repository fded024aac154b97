// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

const (
	salesLookbackDays = 30
	customerLimit     = 100
	topProductCount   = 5
	topStoreCount     = 3
)

// Keyword routes for the context retriever, evaluated in order; first
// match wins.
var (
	salesWords     = []string{"sale", "revenue", "profit", "product", "store"}
	inventoryWords = []string{"inventory", "stock", "restock", "reorder"}
	customerWords  = []string{"customer", "segment", "purchase"}
	metricsWords   = []string{"metric", "kpi", "performance", "summary"}
)

// retrieveContext chooses what to fetch from the warehouse based on the
// lowercased question text, and returns the tagged context plus its
// rendered summary. Warehouse failures degrade to an empty context of
// the matched kind.
func (p *Processor) retrieveContext(ctx context.Context, lowered string, intent datatypes.Intent) (datatypes.DataContext, string) {
	dctx := p.selectContext(ctx, lowered)
	return dctx, datatypes.FormatSummary(dctx)
}

func (p *Processor) selectContext(ctx context.Context, lowered string) datatypes.DataContext {
	switch {
	case containsAny(lowered, salesWords):
		return p.salesContext(ctx)
	case containsAny(lowered, inventoryWords):
		return p.inventoryContext(ctx)
	case containsAny(lowered, customerWords):
		return p.customerContext(ctx)
	case containsAny(lowered, metricsWords):
		return p.metricsContext(ctx)
	default:
		return datatypes.DataContext{
			Kind: datatypes.ContextDynamic,
			Dynamic: &datatypes.DynamicContext{
				Description: "no matched source",
			},
		}
	}
}

func (p *Processor) salesContext(ctx context.Context) datatypes.DataContext {
	records, err := p.warehouse.Sales(ctx, salesLookbackDays)
	if err != nil {
		p.logger.Warn("sales context unavailable, continuing with empty context", "error", err)
		p.metrics.RecordFallback("context")
		records = nil
	}

	sc := &datatypes.SalesContext{Records: records}
	productRevenue := make(map[string]float64)
	storeRevenue := make(map[string]float64)
	for _, r := range records {
		sc.TotalRevenue += r.Revenue
		sc.TotalProfit += r.Profit
		productRevenue[r.Product] += r.Revenue
		storeRevenue[r.Store] += r.Revenue
	}

	divisor := sc.TotalRevenue
	if divisor < 1 {
		divisor = 1
	}
	sc.Margin = sc.TotalProfit / divisor * 100

	sc.TopProducts = datatypes.TopByValue(productRevenue, topProductCount)
	sc.TopStores = datatypes.TopByValue(storeRevenue, topStoreCount)

	return datatypes.DataContext{Kind: datatypes.ContextSales, Sales: sc}
}

func (p *Processor) inventoryContext(ctx context.Context) datatypes.DataContext {
	items, err := p.warehouse.Inventory(ctx)
	if err != nil {
		p.logger.Warn("inventory context unavailable, continuing with empty context", "error", err)
		p.metrics.RecordFallback("context")
		items = nil
	}

	ic := &datatypes.InventoryContext{Items: items}
	for _, item := range items {
		ic.TotalStock += item.CurrentStock
		if item.CurrentStock <= item.ReorderLevel {
			ic.LowStock = append(ic.LowStock, item)
		}
	}

	return datatypes.DataContext{Kind: datatypes.ContextInventory, Inventory: ic}
}

func (p *Processor) customerContext(ctx context.Context) datatypes.DataContext {
	customers, err := p.warehouse.Customers(ctx, customerLimit)
	if err != nil {
		p.logger.Warn("customer context unavailable, continuing with empty context", "error", err)
		p.metrics.RecordFallback("context")
		customers = nil
	}

	cc := &datatypes.CustomerContext{Customers: customers}
	for _, c := range customers {
		cc.TotalPurchases += c.TotalPurchases
	}
	if len(customers) > 0 {
		cc.AveragePurchases = cc.TotalPurchases / float64(len(customers))
	}

	return datatypes.DataContext{Kind: datatypes.ContextCustomers, Customers: cc}
}

func (p *Processor) metricsContext(ctx context.Context) datatypes.DataContext {
	metrics, err := p.warehouse.Metrics(ctx)
	if err != nil || metrics == nil {
		p.logger.Warn("metrics context unavailable, continuing with empty context", "error", err)
		p.metrics.RecordFallback("context")
		return datatypes.DataContext{Kind: datatypes.ContextMetrics}
	}
	return datatypes.DataContext{Kind: datatypes.ContextMetrics, Metrics: metrics}
}
