// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/gateway"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/repository"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/warehouse"
)

// Health reports service liveness plus per-dependency availability.
// Degraded dependencies do not fail the check; the pipeline runs in
// fallback mode without them.
func Health(gw *gateway.Gateway, wh *warehouse.Adapter, store *repository.Store, cacheEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "insights",
			"dependencies": gin.H{
				"llm":       gw.Enabled(),
				"warehouse": wh.Ping(c.Request.Context()),
				"metadata":  store.Ping(c.Request.Context()),
				"cache":     cacheEnabled,
			},
		})
	}
}
