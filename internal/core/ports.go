package core

import (
	"context"
)

// LLMClient defines the interface for the model-backed analyzer tier.
type LLMClient interface {
	// AnalyzeMessage assesses a message for harmful communication patterns
	AnalyzeMessage(ctx context.Context, msg *EphemeralMessage) (*AnalysisResult, error)
}

// AnalysisCache defines the interface for caching analysis results keyed
// by content fingerprint.
type AnalysisCache interface {
	// Get retrieves a cached entry for a fingerprint
	Get(ctx context.Context, fingerprint string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, fingerprint string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// ContentAnalyzer is the analysis entry point the orchestrator drives.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, msg *EphemeralMessage) (*AnalysisResult, error)
}

// MailFilter defines an intake surface that feeds messages through the
// pipeline and acts on the results.
type MailFilter interface {
	// ProcessMessage runs a single message through the pipeline
	ProcessMessage(ctx context.Context, msg *EphemeralMessage) (*ProtectionResult, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
