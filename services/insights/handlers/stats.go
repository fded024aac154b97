// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/cache"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/gateway"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/pipeline"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/warehouse"
)

// CostSummary returns the process-wide LLM spend counters.
func CostSummary(gw *gateway.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gw.Ledger().Snapshot())
	}
}

// CacheStats returns the cache hit/miss counters.
func CacheStats(processor *pipeline.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, processor.CacheStats())
	}
}

// aggregateResponse is the response shape of the aggregate endpoint.
type aggregateResponse struct {
	Grouping string           `json:"grouping"`
	Days     int              `json:"days"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Count    int              `json:"count"`
}

// Aggregate reads one of the warehouse's pre-aggregated views. Results
// are cached as data snapshots for 15 minutes.
func Aggregate(wh *warehouse.Adapter, kv *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if wh == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "warehouse is not configured"})
			return
		}

		grouping := c.DefaultQuery("grouping", warehouse.AggregatePerDay)
		days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}

		paramsHash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", grouping, days)))
		key := cache.DataKey("aggregate", hex.EncodeToString(paramsHash[:8]))

		var resp aggregateResponse
		if kv.Get(key, &resp) {
			c.JSON(http.StatusOK, resp)
			return
		}

		rows, columns, qerr := wh.RunAggregate(c.Request.Context(), warehouse.AggregateSpec{
			Grouping: grouping,
			Days:     days,
		})
		if qerr != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "warehouse query failed"})
			return
		}
		if rows == nil {
			rows = []map[string]any{}
		}

		resp = aggregateResponse{
			Grouping: grouping,
			Days:     days,
			Columns:  columns,
			Rows:     rows,
			Count:    len(rows),
		}
		kv.Set(key, resp, cache.DataTTL)

		c.JSON(http.StatusOK, resp)
	}
}
