// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the insights service configuration from an
// optional YAML file with environment variable overrides. Environment
// wins over file, file wins over defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LLM holds the gateway configuration.
type LLM struct {
	// APIKey is the provider credential. Absence disables the LLM and
	// forces the deterministic fallback path.
	APIKey string `yaml:"api_key"`

	// Model is the provider model id. Default: gpt-4o-mini.
	Model string `yaml:"model"`

	// CostPer1KTokens is the $/1k-token ledger rate. Default: 0.002.
	CostPer1KTokens float64 `yaml:"cost_per_1k_tokens"`

	// MinIntervalMS is the inter-request spacing in milliseconds.
	// Default: 100.
	MinIntervalMS int `yaml:"min_interval_ms"`
}

// Warehouse holds the analytical store connection.
type Warehouse struct {
	// URL is the InfluxDB endpoint. Absence forces empty contexts.
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Config is the full service configuration.
type Config struct {
	// Port is the HTTP listen port. Default: 8090.
	Port int `yaml:"port"`

	// GinMode sets the gin framework mode (debug, release, test).
	GinMode string `yaml:"gin_mode"`

	// LogDir enables JSON file logging when set.
	LogDir string `yaml:"log_dir"`

	// OTelEndpoint is the OTLP/gRPC collector endpoint. Empty disables
	// tracing export.
	OTelEndpoint string `yaml:"otel_endpoint"`

	LLM       LLM       `yaml:"llm"`
	Warehouse Warehouse `yaml:"warehouse"`

	// CacheDir is the Badger directory. Absence disables the cache
	// (every lookup misses).
	CacheDir string `yaml:"cache_dir"`

	// CacheDefaultTTLS is the default cache TTL in seconds.
	// Default: 3600.
	CacheDefaultTTLS int `yaml:"cache_default_ttl_s"`

	// MetadataDBPath is the SQLite directory. Absence forces in-memory
	// questions (no persistence).
	MetadataDBPath string `yaml:"metadata_db_path"`

	// RequestTimeoutS caps one process invocation in seconds.
	// Default: 60.
	RequestTimeoutS int `yaml:"request_timeout_s"`
}

// Load reads the configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Port: 8090,
		LLM: LLM{
			Model:           "gpt-4o-mini",
			CostPer1KTokens: 0.002,
			MinIntervalMS:   100,
		},
		CacheDefaultTTLS: 3600,
		RequestTimeoutS:  60,
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setFloat(&cfg.LLM.CostPer1KTokens, "LLM_COST_PER_1K_TOKENS")
	setInt(&cfg.LLM.MinIntervalMS, "LLM_MIN_INTERVAL_MS")

	setString(&cfg.Warehouse.URL, "WAREHOUSE_URL")
	setString(&cfg.Warehouse.Token, "INFLUXDB_TOKEN")
	setString(&cfg.Warehouse.Org, "INFLUXDB_ORG")
	setString(&cfg.Warehouse.Bucket, "INFLUXDB_BUCKET")

	setString(&cfg.CacheDir, "CACHE_DIR")
	setInt(&cfg.CacheDefaultTTLS, "CACHE_DEFAULT_TTL_S")
	setString(&cfg.MetadataDBPath, "METADATA_DB_PATH")
	setInt(&cfg.RequestTimeoutS, "REQUEST_TIMEOUT_S")

	setInt(&cfg.Port, "INSIGHTS_PORT")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogDir, "INSIGHTS_LOG_DIR")
	setString(&cfg.OTelEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}
