package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gottmail/toneguard/internal/adapters/cache"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLMClient struct {
	result *core.AnalysisResult
	err    error
	calls  int
	block  bool
}

func (f *fakeLLMClient) AnalyzeMessage(ctx context.Context, msg *core.EphemeralMessage) (*core.AnalysisResult, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCache struct {
	entries map[string]*core.CacheEntry
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*core.CacheEntry)}
}

func (f *fakeCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	entry, ok := f.entries[fingerprint]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return entry, nil
}

func (f *fakeCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	f.sets++
	f.entries[entry.Fingerprint] = entry
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, fingerprint string) error {
	delete(f.entries, fingerprint)
	return nil
}

func (f *fakeCache) Cleanup(ctx context.Context) error {
	return nil
}

func newTestHybrid(llm core.LLMClient, c core.AnalysisCache) *HybridAnalyzer {
	return NewHybridAnalyzer(
		NewLocalAnalyzer(zap.NewNop()),
		llm,
		c,
		c != nil,
		time.Hour,
		EscalationBand{Lower: 0.25, Upper: 0.75},
		time.Second,
		zap.NewNop(),
		metrics.NewCollector(),
	)
}

func TestEscalationBandContains(t *testing.T) {
	band := EscalationBand{Lower: 0.25, Upper: 0.75}

	assert.False(t, band.Contains(0.24))
	assert.True(t, band.Contains(0.25))
	assert.True(t, band.Contains(0.5))
	assert.False(t, band.Contains(0.75))
	assert.False(t, band.Contains(0.9))
}

func TestAnalyzeCacheHit(t *testing.T) {
	c := newFakeCache()
	msg := &core.EphemeralMessage{ID: "msg-1", Sender: "alice@example.com", BodyText: "hello"}

	fingerprint := core.Fingerprint(msg.BodyText, msg.Sender)
	c.entries[fingerprint] = &core.CacheEntry{
		Fingerprint: fingerprint,
		Result: core.AnalysisResult{
			ToxicityScore: 0.42,
			ThreatLevel:   core.ThreatLevelMedium,
			Source:        core.SourceAI,
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}

	llm := &fakeLLMClient{}
	h := newTestHybrid(llm, c)

	result, err := h.Analyze(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Equal(t, core.SourceCached, result.Source)
	assert.Equal(t, 0.42, result.ToxicityScore)
	assert.Equal(t, 0, llm.calls, "cache hit must not invoke local or model analysis")
}

func TestAnalyzeBelowBandSkipsModel(t *testing.T) {
	llm := &fakeLLMClient{}
	h := newTestHybrid(llm, nil)

	result, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-1",
		Sender:   "alice@example.com",
		BodyText: "Lunch at noon works for me.",
	})
	require.NoError(t, err)

	assert.Equal(t, core.SourceLocal, result.Source)
	assert.Equal(t, 0.0, result.ToxicityScore)
	assert.Equal(t, 0, llm.calls)
}

func TestAnalyzeEscalatesAmbiguousScore(t *testing.T) {
	llm := &fakeLLMClient{
		result: &core.AnalysisResult{
			ToxicityScore: 0.82,
			Reasoning:     "Model-confirmed contempt",
			ModelUsed:     "test-model",
		},
	}
	h := newTestHybrid(llm, nil)

	// "you always" scores 0.35 locally, inside the band
	result, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-1",
		Sender:   "alice@example.com",
		BodyText: "You always mess this up.",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, core.SourceAI, result.Source)
	assert.Equal(t, 0.82, result.ToxicityScore)
	assert.Equal(t, core.ThreatLevelCritical, result.ThreatLevel)
}

func TestAnalyzeModelFailureFallsBack(t *testing.T) {
	llm := &fakeLLMClient{err: errors.New("model unavailable")}
	h := newTestHybrid(llm, nil)

	result, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-1",
		Sender:   "alice@example.com",
		BodyText: "You always mess this up.",
	})
	require.NoError(t, err)

	assert.Equal(t, core.SourceAIFallback, result.Source)
	assert.InDelta(t, 0.35, result.ToxicityScore, 0.001)
}

func TestAnalyzeModelTimeoutFallsBack(t *testing.T) {
	llm := &fakeLLMClient{block: true}
	h := NewHybridAnalyzer(
		NewLocalAnalyzer(zap.NewNop()),
		llm,
		nil,
		false,
		0,
		EscalationBand{Lower: 0.25, Upper: 0.75},
		10*time.Millisecond,
		zap.NewNop(),
		metrics.NewCollector(),
	)

	result, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-1",
		Sender:   "alice@example.com",
		BodyText: "You always mess this up.",
	})
	require.NoError(t, err)

	assert.Equal(t, core.SourceAIFallback, result.Source)
}

func TestAnalyzeWritesCacheEntry(t *testing.T) {
	c := newFakeCache()
	h := newTestHybrid(nil, c)

	msg := &core.EphemeralMessage{ID: "msg-1", Sender: "alice@example.com", BodyText: "hello"}
	result, err := h.Analyze(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, 1, c.sets)
	entry, ok := c.entries[core.Fingerprint(msg.BodyText, msg.Sender)]
	require.True(t, ok)
	assert.Equal(t, result.ToxicityScore, entry.Result.ToxicityScore)
	assert.True(t, entry.ExpiresAt.After(time.Now()))
}

func TestAnalyzeDuplicateContentServedFromCache(t *testing.T) {
	c := newFakeCache()
	h := newTestHybrid(nil, c)

	first, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-1",
		Sender:   "alice@example.com",
		BodyText: "You always mess this up.",
	})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// Same content and sender, different message
	second, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-2",
		Sender:   "alice@example.com",
		BodyText: "You always mess this up.",
	})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, core.SourceCached, second.Source)
	assert.Equal(t, first.ToxicityScore, second.ToxicityScore)
}

func TestAnalyzeNoModelConfigured(t *testing.T) {
	h := newTestHybrid(nil, nil)

	result, err := h.Analyze(context.Background(), &core.EphemeralMessage{
		ID:       "msg-1",
		Sender:   "alice@example.com",
		BodyText: "You always mess this up.",
	})
	require.NoError(t, err)

	// In-band score stands as local when no model tier exists
	assert.Equal(t, core.SourceLocal, result.Source)
}
