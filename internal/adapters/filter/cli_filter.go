package filter

import (
	"context"
	"fmt"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/pipeline"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for one-shot analysis
type CliFilter struct {
	orchestrator *pipeline.Orchestrator
	logger       *zap.Logger
	verbose      bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(orchestrator *pipeline.Orchestrator, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		orchestrator: orchestrator,
		logger:       logger,
		verbose:      verbose,
	}, nil
}

// ProcessMessage processes a message and displays the results
func (f *CliFilter) ProcessMessage(ctx context.Context, msg *core.EphemeralMessage) (*core.ProtectionResult, error) {
	f.logger.Debug("Processing message", zap.String("message_id", msg.ID))

	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("From: %s\n", msg.Sender)
	fmt.Printf("To: %s\n", msg.Recipients)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.BodyText))

	if f.verbose {
		preview := msg.BodyText
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	result, err := f.orchestrator.Process(ctx, msg)
	if err != nil {
		f.logger.Error("Failed to process message", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Action: %s\n", result.Action)
	fmt.Printf("Should forward: %t\n", result.ShouldForward)
	fmt.Printf("Toxicity score: %.4f\n", result.ToxicityScore)
	fmt.Printf("Threat level: %s\n", result.Analysis.ThreatLevel)
	fmt.Printf("Source: %s\n", result.Analysis.Source)
	fmt.Printf("Reasoning: %s\n", result.Reasoning)
	fmt.Printf("Processing time: %v\n", result.Duration)

	if len(result.Analysis.Horsemen) > 0 {
		fmt.Printf("\nDetected patterns:\n")
		for _, d := range result.Analysis.Horsemen {
			fmt.Printf("  - %s (confidence %.2f, %s severity)\n", d.Pattern, d.Confidence, d.Severity)
		}
	}

	if result.ShouldForward && result.Action != core.ActionForwardClean {
		fmt.Printf("\nProcessed content:\n%s\n", result.ProcessedContent)
	}

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
