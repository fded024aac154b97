// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package insights provides the core service for the data-insights
// platform.
//
// This package contains the Service type that coordinates all
// components: HTTP routing, the LLM gateway, the warehouse adapter,
// the metadata repository, the cache, and the observability
// infrastructure. Every dependency is optional at runtime: the pipeline
// degrades per component policy when one is unconfigured or down.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/StephaneWamba/genai-data-insights-platform/pkg/logging"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/cache"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/config"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/gateway"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/observability"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/pipeline"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/repository"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/routes"
	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/warehouse"
)

// Service defines the contract for the insights service lifecycle.
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying gin engine for integration tests.
	Router() *gin.Engine
}

// service is the production implementation.
type service struct {
	config        config.Config
	logger        *logging.Logger
	router        *gin.Engine
	gateway       *gateway.Gateway
	warehouse     *warehouse.Adapter
	store         *repository.Store
	cache         *cache.Cache
	processor     *pipeline.Processor
	tracerCleanup func(context.Context)
}

// New creates the insights service: metrics, tracing, the component
// adapters, the pipeline processor, and the HTTP router.
//
// Missing dependencies are not fatal. An absent LLM key forces the
// fallback path, an absent warehouse forces empty contexts, an absent
// metadata path forces in-memory questions, and an absent cache dir
// makes every lookup a miss.
func New(cfg config.Config) (Service, error) {
	s := &service{config: cfg}

	s.logger = logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  cfg.LogDir,
		Service: "insights",
	})
	slog.SetDefault(s.logger.Slog())

	metrics := observability.InitMetrics()
	slog.Info("Initialized Prometheus metrics for the pipeline")

	if cfg.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			slog.Warn("Tracer initialization failed, continuing without tracing", "error", err)
		} else {
			s.tracerCleanup = cleanup
		}
	}

	// LLM gateway. A missing key yields a disabled gateway.
	var chat gateway.ChatClient
	if cfg.LLM.APIKey != "" {
		client, err := gateway.NewOpenAIChat(cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			slog.Warn("LLM client initialization failed, running with fallbacks", "error", err)
		} else {
			chat = client
		}
	} else {
		slog.Info("LLM API key not set, running with deterministic fallbacks")
	}
	s.gateway = gateway.New(gateway.Config{
		Client:          chat,
		CostPer1KTokens: cfg.LLM.CostPer1KTokens,
		MinInterval:     time.Duration(cfg.LLM.MinIntervalMS) * time.Millisecond,
		Logger:          s.logger.Slog(),
	})

	// Warehouse adapter.
	if cfg.Warehouse.URL != "" {
		wh, err := warehouse.New(warehouse.Config{
			URL:    cfg.Warehouse.URL,
			Token:  cfg.Warehouse.Token,
			Org:    cfg.Warehouse.Org,
			Bucket: cfg.Warehouse.Bucket,
			Logger: s.logger.Slog(),
		})
		if err != nil {
			slog.Warn("Warehouse initialization failed, contexts will be empty", "error", err)
		} else {
			s.warehouse = wh
		}
	} else {
		slog.Info("Warehouse URL not set, contexts will be empty")
	}

	// Metadata repository.
	if cfg.MetadataDBPath != "" {
		store, err := repository.Open(cfg.MetadataDBPath)
		if err != nil {
			slog.Warn("Metadata store initialization failed, questions stay in memory", "error", err)
		} else {
			s.store = store
		}
	} else {
		slog.Info("Metadata DB path not set, questions stay in memory")
	}

	// Cache.
	if cfg.CacheDir != "" {
		kv, err := cache.Open(cache.Config{Dir: cfg.CacheDir, Logger: s.logger.Slog()})
		if err != nil {
			slog.Warn("Cache initialization failed, running without cache", "error", err)
		} else {
			s.cache = kv
		}
	} else {
		slog.Info("Cache dir not set, running without cache")
	}

	s.processor = pipeline.NewProcessor(pipeline.Options{
		Cache:     s.cache,
		Gateway:   s.gateway,
		Warehouse: warehouseOrDisabled(s.warehouse),
		Store:     storeOrNil(s.store),
		Logger:    s.logger.Slog(),
		Metrics:   metrics,
		Timeout:   time.Duration(cfg.RequestTimeoutS) * time.Second,
	})

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting insights server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the configured gin engine.
func (s *service) Router() *gin.Engine {
	return s.router
}

// initTracer sets up the OTLP trace exporter, mirroring the platform's
// collector deployment. Uses an insecure gRPC connection, appropriate
// for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("insights-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the gin router with middleware and routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("insights-service"))

	routes.SetupRoutes(s.router, routes.Deps{
		Processor: s.processor,
		Gateway:   s.gateway,
		Warehouse: s.warehouse,
		Store:     s.store,
		Cache:     s.cache,
	})
}

// cleanup releases resources held by the service.
func (s *service) cleanup() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("metadata store close error", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Warn("cache close error", "error", err)
		}
	}
	if s.warehouse != nil {
		s.warehouse.Close()
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
	if s.logger != nil {
		if err := s.logger.Close(); err != nil {
			slog.Warn("logger close error", "error", err)
		}
	}
}

// warehouseOrDisabled keeps the pipeline's Warehouse dependency non-nil
// by substituting an unconfigured adapter; its typed errors route the
// retriever to empty contexts.
func warehouseOrDisabled(wh *warehouse.Adapter) pipeline.Warehouse {
	if wh != nil {
		return wh
	}
	var disabled *warehouse.Adapter
	return disabled
}

// storeOrNil avoids a typed-nil interface value for the optional store.
func storeOrNil(store *repository.Store) pipeline.QueryStore {
	if store == nil {
		return nil
	}
	return store
}

// Compile-time interface compliance.
var _ Service = (*service)(nil)
