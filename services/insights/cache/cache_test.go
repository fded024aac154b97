// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("Why are sales down")

	// Stable and case-insensitive.
	assert.Equal(t, fp, Fingerprint("Why are sales down"))
	assert.Equal(t, fp, Fingerprint("WHY ARE SALES DOWN"))
	assert.Len(t, fp, 64)

	// Long questions differing only past a shared prefix stay distinct.
	base := "Compare weekly revenue across all stores in the northern region"
	assert.NotEqual(t, Fingerprint(base+" for shoes"), Fingerprint(base+" for boots"))
}

func TestKeyNamespaces(t *testing.T) {
	assert.Equal(t, "query:abc", QueryKey("abc"))
	assert.Equal(t, "intent:abc", IntentKey("abc"))
	assert.Equal(t, "insights:abc", InsightsKey("abc"))
	assert.Equal(t, "data:sales:deadbeef", DataKey("sales", "deadbeef"))
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)

	in := datatypes.Intent{
		Intent:                  datatypes.IntentComparison,
		Confidence:              0.8,
		Categories:              []string{"sales"},
		DataSources:             []string{"sales_data"},
		SuggestedVisualizations: []datatypes.VizKind{datatypes.VizBarChart},
	}
	require.True(t, c.Set("intent:x", in, time.Minute))

	var out datatypes.Intent
	require.True(t, c.Get("intent:x", &out))
	assert.Equal(t, in, out)
}

func TestCacheMissAndStats(t *testing.T) {
	c := openTestCache(t)

	var dest map[string]any
	assert.False(t, c.Get("query:missing", &dest))
	assert.True(t, c.Set("query:a", map[string]any{"v": 1}, time.Minute))
	assert.True(t, c.Get("query:a", &dest))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}

func TestCacheHitRateWithNoTraffic(t *testing.T) {
	c := openTestCache(t)
	assert.Equal(t, 0.0, c.Stats().HitRate)
}

func TestCacheDeleteAndExists(t *testing.T) {
	c := openTestCache(t)

	c.Set("query:a", "value", time.Minute)
	assert.True(t, c.Exists("query:a"))

	assert.True(t, c.Delete("query:a"))
	assert.False(t, c.Exists("query:a"))

	var dest string
	assert.False(t, c.Get("query:a", &dest))
}

func TestCacheTTLExpiry(t *testing.T) {
	c := openTestCache(t)

	c.Set("query:short", "value", 50*time.Millisecond)
	time.Sleep(120 * time.Millisecond)

	var dest string
	assert.False(t, c.Get("query:short", &dest))
}

func TestCacheNonEncodableValue(t *testing.T) {
	c := openTestCache(t)

	// Channels are not JSON-encodable; set must fail without panicking.
	assert.False(t, c.Set("query:bad", make(chan int), time.Minute))
	assert.Equal(t, int64(1), c.Stats().Errors)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache

	var dest string
	assert.False(t, c.Get("query:a", &dest))
	assert.False(t, c.Set("query:a", "v", time.Minute))
	assert.False(t, c.Delete("query:a"))
	assert.False(t, c.Exists("query:a"))
	assert.NoError(t, c.Close())
	assert.Equal(t, Stats{}, c.Stats())
}
