// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/cache"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/gateway"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/handlers"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/pipeline"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/repository"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/warehouse"
)

// Deps carries the wired components the routes need.
type Deps struct {
	Processor *pipeline.Processor
	Gateway   *gateway.Gateway
	Warehouse *warehouse.Adapter
	Store     *repository.Store
	Cache     *cache.Cache
}

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.Health(deps.Gateway, deps.Warehouse, deps.Store, deps.Cache != nil))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		queries := v1.Group("/queries")
		{
			queries.POST("/process", handlers.ProcessQuestion(deps.Processor))
			queries.GET("", handlers.ListQuestions(deps.Processor))
			queries.GET("/:id", handlers.GetQuestion(deps.Processor))
			queries.GET("/:id/insights", handlers.GetInsightsForQuestion(deps.Processor))
		}

		v1.GET("/costs", handlers.CostSummary(deps.Gateway))
		v1.GET("/cache/stats", handlers.CacheStats(deps.Processor))
		v1.GET("/data/aggregate", handlers.Aggregate(deps.Warehouse, deps.Cache))
	}
}
