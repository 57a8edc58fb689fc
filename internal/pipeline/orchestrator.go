package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/engine"
	"github.com/gottmail/toneguard/internal/metrics"
	"github.com/gottmail/toneguard/internal/store"
	"github.com/gottmail/toneguard/internal/trusted"
	"go.uber.org/zap"
)

// Orchestrator is the single entry point for message processing. It owns
// the store → analyze → decide → remove sequence and guarantees that the
// held content is removed on every path, including failures.
type Orchestrator struct {
	store     *store.EphemeralStore
	analyzer  core.ContentAnalyzer
	engine    *engine.Engine
	trusted   *trusted.Checker
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewOrchestrator creates a new processing orchestrator
func NewOrchestrator(
	ephemeralStore *store.EphemeralStore,
	contentAnalyzer core.ContentAnalyzer,
	decisionEngine *engine.Engine,
	trustedChecker *trusted.Checker,
	logger *zap.Logger,
	collector *metrics.Collector,
) *Orchestrator {
	return &Orchestrator{
		store:     ephemeralStore,
		analyzer:  contentAnalyzer,
		engine:    decisionEngine,
		trusted:   trustedChecker,
		logger:    logger,
		collector: collector,
	}
}

// Process runs one message through the pipeline. ErrCapacityExceeded
// propagates unchanged so intake can apply backpressure.
func (o *Orchestrator) Process(ctx context.Context, msg *core.EphemeralMessage) (*core.ProtectionResult, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	processingID := uuid.NewString()
	start := time.Now()

	if o.trusted != nil && o.trusted.IsTrusted(msg.Sender) {
		o.logger.Info("Trusted sender, bypassing analysis",
			zap.String("message_id", msg.ID),
			zap.String("processing_id", processingID))
		return o.trustedResult(msg, processingID, start), nil
	}

	if err := o.store.Put(msg); err != nil {
		o.collector.RecordCapacityRejection()
		return nil, err
	}
	// Content leaves the holding area on success and failure alike
	defer o.store.Remove(msg.ID)

	analysis, err := o.analyzer.Analyze(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze message %s: %w", msg.ID, err)
	}

	decision := o.engine.Decide(msg, analysis)
	duration := time.Since(start)
	o.collector.RecordAction(decision.Action, duration)

	o.logger.Info("Processed message",
		zap.String("message_id", msg.ID),
		zap.String("processing_id", processingID),
		zap.String("action", string(decision.Action)),
		zap.Float64("score", decision.ToxicityScore),
		zap.String("source", string(analysis.Source)),
		zap.Bool("cached", analysis.Cached),
		zap.Duration("duration", duration))

	return &core.ProtectionResult{
		ProcessingID:     processingID,
		Action:           decision.Action,
		ShouldForward:    decision.Action != core.ActionBlockEntirely,
		ProcessedContent: decision.ProcessedContent,
		Reasoning:        decision.Reasoning,
		ToxicityScore:    decision.ToxicityScore,
		Analysis:         analysis,
		ProcessedAt:      time.Now(),
		Duration:         duration,
	}, nil
}

// StoreSize exposes the holding-area occupancy for health reporting.
func (o *Orchestrator) StoreSize() int {
	return o.store.Size()
}

func (o *Orchestrator) trustedResult(msg *core.EphemeralMessage, processingID string, start time.Time) *core.ProtectionResult {
	analysis := &core.AnalysisResult{
		ToxicityScore: 0.0,
		ThreatLevel:   core.ThreatLevelSafe,
		Reasoning:     "Sender is trusted",
		Source:        core.SourceTrusted,
		AnalyzedAt:    time.Now(),
		ModelUsed:     "trusted",
	}
	duration := time.Since(start)
	o.collector.RecordAction(core.ActionForwardClean, duration)

	return &core.ProtectionResult{
		ProcessingID:     processingID,
		Action:           core.ActionForwardClean,
		ShouldForward:    true,
		ProcessedContent: msg.BodyText,
		Reasoning:        "Sender is trusted; forwarded unchanged",
		ToxicityScore:    0.0,
		Analysis:         analysis,
		ProcessedAt:      time.Now(),
		Duration:         duration,
	}
}
