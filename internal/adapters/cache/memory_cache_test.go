package cache

import (
	"context"
	"testing"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache() *MemoryCache {
	return NewMemoryCache(zap.NewNop(), time.Minute)
}

func testEntry(fingerprint string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		Fingerprint: fingerprint,
		Result: core.AnalysisResult{
			ToxicityScore: 0.5,
			ThreatLevel:   core.ThreatLevelMedium,
			Source:        core.SourceLocal,
		},
		LastSeen:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := newTestCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("fp-1", time.Hour)))

	entry, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "fp-1", entry.Fingerprint)
	assert.Equal(t, 0.5, entry.Result.ToxicityScore)
}

func TestMemoryCacheGetMissing(t *testing.T) {
	c := newTestCache()
	defer c.Stop()

	_, err := c.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheGetExpired(t *testing.T) {
	c := newTestCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("fp-1", -time.Second)))

	_, err := c.Get(ctx, "fp-1")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newTestCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("fp-1", time.Hour)))
	require.NoError(t, c.Delete(ctx, "fp-1"))

	_, err := c.Get(ctx, "fp-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is harmless
	assert.NoError(t, c.Delete(ctx, "fp-1"))
}

func TestMemoryCacheCleanup(t *testing.T) {
	c := newTestCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("live", time.Hour)))
	require.NoError(t, c.Set(ctx, testEntry("dead", -time.Second)))

	require.NoError(t, c.Cleanup(ctx))

	_, err := c.Get(ctx, "live")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "dead")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	c := newTestCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("fp-1", time.Hour)))

	first, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	first.Result.ToxicityScore = 0.99

	second, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, second.Result.ToxicityScore)
}
