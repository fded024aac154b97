// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache provides the keyed TTL cache in front of the pipeline.
//
// BadgerDB backs the cache as the warm local tier: entries carry a native
// TTL, reads are ~100µs, and the store survives restarts. The cache is a
// performance optimization, never a correctness dependency — every
// backend error degrades to a miss (get) or a silent no-op (set/delete)
// and increments the error counter.
//
// Keys are namespaced strings:
//
//	query:<fingerprint>     processed response envelopes (30 min TTL)
//	intent:<fingerprint>    intent classifications (2 h TTL)
//	insights:<fingerprint>  generated insights (2 h TTL)
//	data:<endpoint>:<hash>  warehouse snapshots (15 min TTL)
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// =============================================================================
// TTL Policy
// =============================================================================

const (
	// DefaultTTL applies to keys without a namespace-specific TTL.
	DefaultTTL = 3600 * time.Second

	// QueryTTL applies to cached response envelopes.
	QueryTTL = 1800 * time.Second

	// DataTTL applies to cached warehouse snapshots.
	DataTTL = 900 * time.Second

	// InsightsTTL applies to cached intents and insights.
	InsightsTTL = 7200 * time.Second
)

// Fingerprint computes the stable cache identity of a normalized
// question: the SHA-256 hex digest of the lowercased text. Hashing the
// full text avoids collisions between long questions that share a prefix.
func Fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(normalized)))
	return hex.EncodeToString(sum[:])
}

// QueryKey returns the cache key for a processed envelope.
func QueryKey(fingerprint string) string { return "query:" + fingerprint }

// IntentKey returns the cache key for an intent classification.
func IntentKey(fingerprint string) string { return "intent:" + fingerprint }

// InsightsKey returns the cache key for generated insights.
func InsightsKey(fingerprint string) string { return "insights:" + fingerprint }

// DataKey returns the cache key for a warehouse snapshot.
func DataKey(endpoint, paramsHash string) string {
	return "data:" + endpoint + ":" + paramsHash
}

// =============================================================================
// Statistics
// =============================================================================

// Stats is a consistent snapshot of the cache counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	Sets    int64   `json:"sets"`
	Deletes int64   `json:"deletes"`
	HitRate float64 `json:"hit_rate"`
}

// =============================================================================
// Cache
// =============================================================================

// Cache is the Badger-backed keyed store. The zero value is not usable;
// construct with Open. A nil *Cache is a valid disabled cache: every get
// is a miss and every set is a no-op, so callers never branch on
// availability.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// Config holds cache construction options.
type Config struct {
	// Dir is the directory for the Badger files. Required unless
	// InMemory is set.
	Dir string

	// InMemory opens a non-persistent store (used by tests).
	InMemory bool

	// Logger receives cache diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// badgerLogger adapts slog to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open creates the cache store. Returns an error only when the backing
// directory cannot be opened; callers treat that as "run without cache"
// by passing the resulting nil around.
func Open(cfg Config) (*Cache, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("cache directory is required for persistent cache")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	opts = opts.WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close releases the underlying store. Safe on a nil cache.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get retrieves and decodes the value stored under key into dest.
// Returns true on a hit. Any backend or decode failure counts as a miss;
// decode failures additionally count as errors.
func (c *Cache) Get(key string, dest any) bool {
	if c == nil || c.db == nil {
		return false
	}

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.errors.Add(1)
			c.logger.Warn("cache get error", "key", key, "error", err)
		}
		c.misses.Add(1)
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.errors.Add(1)
		c.misses.Add(1)
		c.logger.Warn("cache entry decode failed", "key", key, "error", err)
		return false
	}

	c.hits.Add(1)
	return true
}

// Set stores the JSON encoding of value under key with the given TTL.
// Returns false on failure; failures never propagate.
func (c *Cache) Set(key string, value any, ttl time.Duration) bool {
	if c == nil || c.db == nil {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache value not encodable", "key", key, "error", err)
		return false
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), raw).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache set error", "key", key, "error", err)
		return false
	}

	c.sets.Add(1)
	return true
}

// Delete removes the entry under key. Returns false on backend failure.
func (c *Cache) Delete(key string) bool {
	if c == nil || c.db == nil {
		return false
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache delete error", "key", key, "error", err)
		return false
	}

	c.deletes.Add(1)
	return true
}

// Exists reports whether a live entry is stored under key. Does not
// count as a hit or a miss.
func (c *Cache) Exists(key string) bool {
	if c == nil || c.db == nil {
		return false
	}

	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.errors.Add(1)
		}
		return false
	}
	return true
}

// Stats returns a consistent snapshot of the counters. Hit rate is
// hits / max(1, hits+misses).
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}

	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		total = 1
	}

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Errors:  c.errors.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
		HitRate: float64(hits) / float64(total),
	}
}
