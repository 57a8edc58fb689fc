package analyzer

import (
	"context"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/metrics"
	"go.uber.org/zap"
)

// EscalationBand is the score interval in which a local verdict is too
// ambiguous to stand alone and the model tier is consulted. The band is
// half-open: [Lower, Upper).
type EscalationBand struct {
	Lower float64
	Upper float64
}

// Contains reports whether a score falls inside the band.
func (b EscalationBand) Contains(score float64) bool {
	return score >= b.Lower && score < b.Upper
}

// HybridAnalyzer runs the tiered analysis strategy: fingerprint cache
// lookup, local heuristics, and model escalation for ambiguous scores.
// A failed or timed-out model call degrades to the local result instead
// of failing the pipeline.
type HybridAnalyzer struct {
	local        *LocalAnalyzer
	llmClient    core.LLMClient
	cache        core.AnalysisCache
	cacheEnabled bool
	cacheTTL     time.Duration
	band         EscalationBand
	llmTimeout   time.Duration
	logger       *zap.Logger
	collector    *metrics.Collector
}

// NewHybridAnalyzer creates a new hybrid analyzer
func NewHybridAnalyzer(
	local *LocalAnalyzer,
	llmClient core.LLMClient,
	cache core.AnalysisCache,
	cacheEnabled bool,
	cacheTTL time.Duration,
	band EscalationBand,
	llmTimeout time.Duration,
	logger *zap.Logger,
	collector *metrics.Collector,
) *HybridAnalyzer {
	return &HybridAnalyzer{
		local:        local,
		llmClient:    llmClient,
		cache:        cache,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		band:         band,
		llmTimeout:   llmTimeout,
		logger:       logger,
		collector:    collector,
	}
}

// Analyze produces a single result for the message.
func (h *HybridAnalyzer) Analyze(ctx context.Context, msg *core.EphemeralMessage) (*core.AnalysisResult, error) {
	fingerprint := core.Fingerprint(msg.BodyText, msg.Sender)

	if h.cacheEnabled && h.cache != nil {
		if entry, err := h.cache.Get(ctx, fingerprint); err == nil {
			h.collector.RecordCacheHit()
			h.logger.Debug("Analysis cache hit",
				zap.String("message_id", msg.ID),
				zap.String("fingerprint", fingerprint[:12]))

			result := entry.Result
			result.Cached = true
			result.Source = core.SourceCached
			return &result, nil
		}
		h.collector.RecordCacheMiss()
	}

	result := h.local.Analyze(msg)

	if h.llmClient != nil && h.band.Contains(result.ToxicityScore) {
		h.collector.RecordEscalation()
		refined, err := h.escalate(ctx, msg)
		if err != nil {
			// Degraded but available: the local verdict stands, and the
			// source records that the model was tried and lost
			h.collector.RecordFallback()
			h.logger.Warn("Model analysis failed, keeping local result",
				zap.Error(err),
				zap.String("message_id", msg.ID),
				zap.Float64("local_score", result.ToxicityScore))
			result.Source = core.SourceAIFallback
		} else {
			refined.Source = core.SourceAI
			refined.ThreatLevel = core.ThreatLevelForScore(refined.ToxicityScore)
			result = refined
		}
	}

	if h.cacheEnabled && h.cache != nil {
		now := time.Now()
		entry := &core.CacheEntry{
			Fingerprint: fingerprint,
			Result:      *result,
			LastSeen:    now,
			ExpiresAt:   now.Add(h.cacheTTL),
		}
		if err := h.cache.Set(ctx, entry); err != nil {
			h.logger.Error("Failed to update analysis cache", zap.Error(err))
		}
	}

	return result, nil
}

func (h *HybridAnalyzer) escalate(ctx context.Context, msg *core.EphemeralMessage) (*core.AnalysisResult, error) {
	llmCtx, cancel := context.WithTimeout(ctx, h.llmTimeout)
	defer cancel()

	return h.llmClient.AnalyzeMessage(llmCtx, msg)
}
