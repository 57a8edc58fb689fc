package core

import (
	"time"
)

// EphemeralMessage is a message held in memory while it is being analyzed.
// It is never written to durable storage. ExpiresAt is fixed when the
// message enters the store and is never extended; once it has passed the
// entry must be unreachable.
type EphemeralMessage struct {
	ID           string
	Sender       string
	Recipients   []string
	Subject      string
	BodyText     string
	BodyHTML     string
	OwnerContext string
	ReceivedAt   time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the message TTL has elapsed at the given time.
func (m *EphemeralMessage) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// Horseman identifies one of the four harmful communication patterns.
type Horseman string

const (
	HorsemanCriticism     Horseman = "criticism"
	HorsemanContempt      Horseman = "contempt"
	HorsemanDefensiveness Horseman = "defensiveness"
	HorsemanStonewalling  Horseman = "stonewalling"
)

// HorsemanDetection records a single detected pattern with its confidence
// and severity.
type HorsemanDetection struct {
	Pattern    Horseman
	Confidence float64
	Severity   string
}

// ThreatLevel is the ordered classification derived from a toxicity score.
type ThreatLevel string

const (
	ThreatLevelSafe     ThreatLevel = "safe"
	ThreatLevelLow      ThreatLevel = "low"
	ThreatLevelMedium   ThreatLevel = "medium"
	ThreatLevelHigh     ThreatLevel = "high"
	ThreatLevelCritical ThreatLevel = "critical"
)

// ThreatLevelForScore maps a toxicity score to its threat level. The
// mapping is a monotonic step function: equal scores always yield equal
// levels.
func ThreatLevelForScore(score float64) ThreatLevel {
	switch {
	case score < 0.2:
		return ThreatLevelSafe
	case score < 0.4:
		return ThreatLevelLow
	case score < 0.6:
		return ThreatLevelMedium
	case score < 0.8:
		return ThreatLevelHigh
	default:
		return ThreatLevelCritical
	}
}

// AnalysisSource records which tier of the hybrid strategy produced a
// result, so audit logs can distinguish model-confirmed verdicts from
// heuristic-only ones.
type AnalysisSource string

const (
	SourceLocal AnalysisSource = "local"
	SourceAI    AnalysisSource = "ai"
	// SourceAIFallback marks a local result that stood in for a failed
	// or timed-out model call.
	SourceAIFallback AnalysisSource = "ai_fallback"
	SourceCached     AnalysisSource = "cached"
	SourceTrusted    AnalysisSource = "trusted"
)

// AnalysisResult is the immutable outcome of analyzing one message.
type AnalysisResult struct {
	ToxicityScore float64
	ThreatLevel   ThreatLevel
	Horsemen      []HorsemanDetection
	Reasoning     string
	Source        AnalysisSource
	Cached        bool
	AnalyzedAt    time.Time
	ModelUsed     string
}

// ProtectionAction is the graduated action applied to a message.
type ProtectionAction string

const (
	ActionForwardClean       ProtectionAction = "forward_clean"
	ActionForwardWithContext ProtectionAction = "forward_with_context"
	ActionRedactHarmful      ProtectionAction = "redact_harmful"
	ActionSummarizeOnly      ProtectionAction = "summarize_only"
	ActionBlockEntirely      ProtectionAction = "block_entirely"
)

// Severity returns the position of the action on the graduated scale,
// with 0 the mildest. Used to compare restrictiveness of two actions.
func (a ProtectionAction) Severity() int {
	switch a {
	case ActionForwardClean:
		return 0
	case ActionForwardWithContext:
		return 1
	case ActionRedactHarmful:
		return 2
	case ActionSummarizeOnly:
		return 3
	case ActionBlockEntirely:
		return 4
	default:
		return -1
	}
}

// ProtectionDecision is the decision engine's output for one analysis.
type ProtectionDecision struct {
	Action           ProtectionAction
	ProcessedContent string
	Reasoning        string
	ToxicityScore    float64
	Analysis         *AnalysisResult
}

// ProtectionResult is the sole artifact handed back to the delivery
// collaborator. It carries no original content except ProcessedContent
// for forward-class actions.
type ProtectionResult struct {
	ProcessingID     string
	Action           ProtectionAction
	ShouldForward    bool
	ProcessedContent string
	Reasoning        string
	ToxicityScore    float64
	Analysis         *AnalysisResult
	ProcessedAt      time.Time
	Duration         time.Duration
}

// CacheEntry associates a content fingerprint with a prior analysis
// result. Fingerprints are one-way derivations, so entries may outlive
// the message they were computed from without persisting content.
type CacheEntry struct {
	Fingerprint string
	Result      AnalysisResult
	LastSeen    time.Time
	ExpiresAt   time.Time
}
