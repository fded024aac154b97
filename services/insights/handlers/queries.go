// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin handlers for the insights service.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/pipeline"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/repository"
)

var queriesTracer = otel.Tracer("insights.handlers")

// ProcessQuestion handles the main query-to-insight operation.
func ProcessQuestion(processor *pipeline.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := queriesTracer.Start(c.Request.Context(), "ProcessQuestion")
		defer span.End()

		var req datatypes.ProcessQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorEnvelope(
				datatypes.NewValidationError("invalid request body: "+err.Error())))
			return
		}

		envelope, perr := processor.Process(ctx, req.QueryText, req.UserID)
		if perr != nil {
			span.RecordError(perr)
			c.JSON(http.StatusBadRequest, datatypes.NewErrorEnvelope(perr))
			return
		}

		c.JSON(http.StatusOK, envelope)
	}
}

// GetQuestion returns one stored question by id.
func GetQuestion(processor *pipeline.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
			return
		}

		question, err := processor.GetQuestion(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
			return
		}
		if errors.Is(err, pipeline.ErrStoreDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metadata store is not configured"})
			return
		}
		if err != nil {
			slog.Error("failed to load question", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load question"})
			return
		}

		c.JSON(http.StatusOK, question)
	}
}

// ListQuestions returns a page of stored questions, newest first.
func ListQuestions(processor *pipeline.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ListQuestionsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paging parameters", "details": err.Error()})
			return
		}
		if req.Limit == 0 {
			req.Limit = 20
		}

		questions, err := processor.ListQuestions(c.Request.Context(), req.Offset, req.Limit)
		if errors.Is(err, pipeline.ErrStoreDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metadata store is not configured"})
			return
		}
		if err != nil {
			slog.Error("failed to list questions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list questions"})
			return
		}
		if questions == nil {
			questions = []datatypes.Question{}
		}

		c.JSON(http.StatusOK, gin.H{
			"questions": questions,
			"offset":    req.Offset,
			"limit":     req.Limit,
			"count":     len(questions),
		})
	}
}

// GetInsightsForQuestion returns the stored insights for a question.
func GetInsightsForQuestion(processor *pipeline.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
			return
		}

		insights, err := processor.InsightsForQuestion(c.Request.Context(), id)
		if errors.Is(err, pipeline.ErrStoreDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metadata store is not configured"})
			return
		}
		if err != nil {
			slog.Error("failed to load insights", "question_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insights"})
			return
		}
		if insights == nil {
			insights = []datatypes.Insight{}
		}

		c.JSON(http.StatusOK, gin.H{"question_id": id, "insights": insights, "count": len(insights)})
	}
}
