// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package warehouse provides read-only access to the columnar analytical
// store (InfluxDB).
//
// Tables map to measurements: dimension columns are tags, numeric
// columns are fields. Every read pivots on _time so each result record
// is one logical row. The adapter never mutates the warehouse, and
// caching is the caller's responsibility.
//
// Failure policy: input violations yield an empty result plus a warning;
// backend failures are retried once and then surface as a typed error
// alongside an empty result so the retriever can degrade to an empty
// context.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

const (
	// MinDays and MaxDays bound the sales lookback window.
	MinDays = 1
	MaxDays = 365

	// MinLimit and MaxLimit bound the customer page size.
	MinLimit = 1
	MaxLimit = 10000

	queryTimeout = 10 * time.Second
)

// Aggregate groupings understood by RunAggregate.
const (
	AggregatePerStore   = "per-store"
	AggregatePerProduct = "per-product"
	AggregatePerDay     = "per-day"
)

// AggregateSpec parameterizes a read of the pre-aggregated materialized
// views.
type AggregateSpec struct {
	Grouping string
	Days     int
}

// Config holds warehouse connection options.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Logger *slog.Logger
}

// Adapter is the read-only warehouse client. Safe for concurrent use;
// the underlying InfluxDB client pools HTTP connections internally.
type Adapter struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	bucket   string
	logger   *slog.Logger
}

// New creates the warehouse adapter. The connection is lazy; the first
// query surfaces reachability problems through the normal failure policy.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("warehouse URL is not set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "retail-analytics"
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Adapter{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
		logger:   logger,
	}, nil
}

// Close releases the underlying HTTP client. Safe on a nil adapter.
func (a *Adapter) Close() {
	if a != nil && a.client != nil {
		a.client.Close()
	}
}

// Ping checks warehouse reachability for the health endpoint.
func (a *Adapter) Ping(ctx context.Context) bool {
	if a == nil || a.client == nil {
		return false
	}
	health, err := a.client.Health(ctx)
	return err == nil && health != nil && health.Status == "pass"
}

// query runs a Flux query with one best-effort retry on transient
// failure.
func (a *Adapter) query(ctx context.Context, flux string) (*api.QueryTableResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := a.queryAPI.Query(ctx, flux)
	if err != nil && ctx.Err() == nil {
		a.logger.Warn("warehouse query failed, retrying once", "error", err)
		result, err = a.queryAPI.Query(ctx, flux)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Sales returns the last N days of per-transaction sales records,
// newest first. days outside [1, 365] yields an empty result.
func (a *Adapter) Sales(ctx context.Context, days int) ([]datatypes.SalesRecord, error) {
	if a == nil {
		return nil, warehouseUnavailable("warehouse is not configured")
	}
	if days < MinDays || days > MaxDays {
		a.logger.Warn("sales lookback out of range, returning empty result", "days", days)
		return nil, nil
	}

	flux := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -%dd)
		  |> filter(fn: (r) => r._measurement == "sales_data")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"], desc: true)
	`, a.bucket, days)

	result, err := a.query(ctx, flux)
	if err != nil {
		a.logger.Error("sales query failed", "days", days, "error", err)
		return nil, warehouseUnavailable(err.Error())
	}
	if result == nil {
		return nil, nil
	}

	var records []datatypes.SalesRecord
	for result.Next() {
		record := result.Record()
		row := datatypes.SalesRecord{
			Date:     record.Time().Format("2006-01-02"),
			Product:  stringByKey(record, "product"),
			Category: stringByKey(record, "category"),
			Store:    stringByKey(record, "store"),
			Region:   stringByKey(record, "region"),
			Quantity: intByKey(record, "quantity_sold"),
			Revenue:  floatByKey(record, "revenue"),
			Cost:     floatByKey(record, "cost"),
			Profit:   floatByKey(record, "profit"),
		}
		records = append(records, row)
	}
	if result.Err() != nil {
		a.logger.Error("sales result iteration failed", "error", result.Err())
		return nil, warehouseUnavailable(result.Err().Error())
	}

	a.logger.Info("retrieved sales records", "count", len(records), "days", days)
	return records, nil
}

// Inventory returns the current per-(store, product) stock snapshot:
// the latest row seen for each pair within the lookback window.
func (a *Adapter) Inventory(ctx context.Context) ([]datatypes.InventoryItem, error) {
	if a == nil {
		return nil, warehouseUnavailable("warehouse is not configured")
	}

	flux := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -90d)
		  |> filter(fn: (r) => r._measurement == "inventory_data")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"], desc: true)
	`, a.bucket)

	result, err := a.query(ctx, flux)
	if err != nil {
		a.logger.Error("inventory query failed", "error", err)
		return nil, warehouseUnavailable(err.Error())
	}
	if result == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	var items []datatypes.InventoryItem
	for result.Next() {
		record := result.Record()
		store := stringByKey(record, "store")
		product := stringByKey(record, "product")
		key := store + "\x00" + product
		if seen[key] {
			continue
		}
		seen[key] = true

		items = append(items, datatypes.InventoryItem{
			Product:       product,
			Store:         store,
			CurrentStock:  intByKey(record, "current_stock"),
			ReorderLevel:  intByKey(record, "reorder_level"),
			MaxStock:      intByKey(record, "max_stock"),
			LastRestocked: stringByKey(record, "last_restocked"),
			Supplier:      stringByKey(record, "supplier"),
			Status:        stringByKey(record, "status"),
		})
	}
	if result.Err() != nil {
		a.logger.Error("inventory result iteration failed", "error", result.Err())
		return nil, warehouseUnavailable(result.Err().Error())
	}

	a.logger.Info("retrieved inventory records", "count", len(items))
	return items, nil
}

// Customers returns up to limit customer profiles. limit outside
// [1, 10000] yields an empty result.
func (a *Adapter) Customers(ctx context.Context, limit int) ([]datatypes.Customer, error) {
	if a == nil {
		return nil, warehouseUnavailable("warehouse is not configured")
	}
	if limit < MinLimit || limit > MaxLimit {
		a.logger.Warn("customer limit out of range, returning empty result", "limit", limit)
		return nil, nil
	}

	flux := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -365d)
		  |> filter(fn: (r) => r._measurement == "customer_data")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> limit(n: %d)
	`, a.bucket, limit)

	result, err := a.query(ctx, flux)
	if err != nil {
		a.logger.Error("customer query failed", "error", err)
		return nil, warehouseUnavailable(err.Error())
	}
	if result == nil {
		return nil, nil
	}

	var customers []datatypes.Customer
	for result.Next() {
		record := result.Record()
		customers = append(customers, datatypes.Customer{
			CustomerID:        stringByKey(record, "customer_id"),
			Name:              stringByKey(record, "name"),
			Email:             stringByKey(record, "email"),
			Region:            stringByKey(record, "region"),
			AgeGroup:          stringByKey(record, "age_group"),
			TotalPurchases:    floatByKey(record, "total_purchases"),
			TotalSpent:        floatByKey(record, "total_spent"),
			LastPurchase:      stringByKey(record, "last_purchase"),
			PreferredStore:    stringByKey(record, "preferred_store"),
			PreferredCategory: stringByKey(record, "preferred_category"),
		})
		if len(customers) >= limit {
			break
		}
	}
	if result.Err() != nil {
		a.logger.Error("customer result iteration failed", "error", result.Err())
		return nil, warehouseUnavailable(result.Err().Error())
	}

	a.logger.Info("retrieved customer records", "count", len(customers))
	return customers, nil
}

// Metrics derives the business-KPI snapshot from the last 30 days of
// sales plus the customer and inventory families.
//
// Derivations: margin = profit/revenue*100 (0 when revenue is 0),
// AOV = revenue/transaction count, inventory turnover = units sold over
// the window divided by units currently in stock.
func (a *Adapter) Metrics(ctx context.Context) (*datatypes.MetricsContext, error) {
	if a == nil {
		return nil, warehouseUnavailable("warehouse is not configured")
	}

	sales, err := a.Sales(ctx, 30)
	if err != nil {
		return nil, err
	}

	metrics := &datatypes.MetricsContext{}
	var totalQuantity int64
	for _, r := range sales {
		metrics.TotalRevenue += r.Revenue
		metrics.TotalProfit += r.Profit
		totalQuantity += r.Quantity
	}
	if metrics.TotalRevenue > 0 {
		metrics.ProfitMargin = metrics.TotalProfit / metrics.TotalRevenue * 100
	}
	if len(sales) > 0 {
		metrics.AverageOrderValue = metrics.TotalRevenue / float64(len(sales))
	}

	// Customer count and stock totals are best-effort; a failure in one
	// family must not discard the sales-derived figures.
	if customers, err := a.Customers(ctx, MaxLimit); err == nil {
		metrics.CustomerCount = int64(len(customers))
	}
	if items, err := a.Inventory(ctx); err == nil {
		var totalStock int64
		for _, item := range items {
			totalStock += item.CurrentStock
		}
		if totalStock > 0 {
			metrics.InventoryTurnover = float64(totalQuantity) / float64(totalStock)
		}
	}

	return metrics, nil
}

// RunAggregate reads one of the pre-aggregated materialized views.
func (a *Adapter) RunAggregate(ctx context.Context, spec AggregateSpec) ([]map[string]any, []string, error) {
	if a == nil {
		return nil, nil, warehouseUnavailable("warehouse is not configured")
	}

	var measurement string
	switch spec.Grouping {
	case AggregatePerStore:
		measurement = "sales_daily_store"
	case AggregatePerProduct:
		measurement = "sales_daily_product"
	case AggregatePerDay:
		measurement = "sales_daily_totals"
	default:
		a.logger.Warn("unknown aggregate grouping, returning empty result", "grouping", spec.Grouping)
		return nil, nil, nil
	}

	days := spec.Days
	if days < MinDays || days > MaxDays {
		a.logger.Warn("aggregate lookback out of range, returning empty result", "days", days)
		return nil, nil, nil
	}

	flux := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -%dd)
		  |> filter(fn: (r) => r._measurement == "%s")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"], desc: false)
	`, a.bucket, days, measurement)

	result, err := a.query(ctx, flux)
	if err != nil {
		a.logger.Error("aggregate query failed", "grouping", spec.Grouping, "error", err)
		return nil, nil, warehouseUnavailable(err.Error())
	}
	if result == nil {
		return nil, nil, nil
	}

	var rows []map[string]any
	columnSet := make(map[string]bool)
	var columns []string
	for result.Next() {
		record := result.Record()
		row := map[string]any{"date": record.Time().Format("2006-01-02")}
		if !columnSet["date"] {
			columnSet["date"] = true
			columns = append(columns, "date")
		}
		for key, value := range record.Values() {
			if key == "" || key[0] == '_' || key == "result" || key == "table" {
				continue
			}
			row[key] = value
			if !columnSet[key] {
				columnSet[key] = true
				columns = append(columns, key)
			}
		}
		rows = append(rows, row)
	}
	if result.Err() != nil {
		a.logger.Error("aggregate result iteration failed", "error", result.Err())
		return nil, nil, warehouseUnavailable(result.Err().Error())
	}

	return rows, columns, nil
}

func warehouseUnavailable(msg string) error {
	return &datatypes.PipelineError{Kind: datatypes.ErrKindWarehouseUnavail, Message: msg}
}

func stringByKey(record *query.FluxRecord, key string) string {
	if v, ok := record.ValueByKey(key).(string); ok {
		return v
	}
	return ""
}

func floatByKey(record *query.FluxRecord, key string) float64 {
	switch v := record.ValueByKey(key).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func intByKey(record *query.FluxRecord, key string) int64 {
	switch v := record.ValueByKey(key).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
