package engine

import (
	"fmt"

	"github.com/gottmail/toneguard/internal/core"
	"go.uber.org/zap"
)

// Thresholds is the ordered action table. Each field is the exclusive
// upper bound of the action it names; a score equal to a threshold takes
// the stricter action.
type Thresholds struct {
	ForwardClean       float64
	ForwardWithContext float64
	RedactHarmful      float64
	SummarizeOnly      float64
}

// DefaultThresholds returns the default action table
func DefaultThresholds() Thresholds {
	return Thresholds{
		ForwardClean:       0.30,
		ForwardWithContext: 0.55,
		RedactHarmful:      0.70,
		SummarizeOnly:      0.90,
	}
}

// Validate checks that the table is strictly ascending and in range.
func (t Thresholds) Validate() error {
	bounds := []float64{t.ForwardClean, t.ForwardWithContext, t.RedactHarmful, t.SummarizeOnly}
	prev := 0.0
	for _, b := range bounds {
		if b <= prev || b > 1.0 {
			return fmt.Errorf("decision thresholds must be strictly ascending within (0, 1], got %v", bounds)
		}
		prev = b
	}
	return nil
}

// ActionForScore maps a toxicity score to its protection action. The
// mapping is monotonic: a higher score never yields a milder action.
func (t Thresholds) ActionForScore(score float64) core.ProtectionAction {
	switch {
	case score < t.ForwardClean:
		return core.ActionForwardClean
	case score < t.ForwardWithContext:
		return core.ActionForwardWithContext
	case score < t.RedactHarmful:
		return core.ActionRedactHarmful
	case score < t.SummarizeOnly:
		return core.ActionSummarizeOnly
	default:
		return core.ActionBlockEntirely
	}
}

// SpanLocator finds the byte ranges of detected patterns in content, for
// the redaction transform.
type SpanLocator interface {
	Locate(content string) [][2]int
}

// Engine maps an analysis result to a protection decision and applies the
// content transform for the chosen action. Deciding is a single
// transition: the action is computed once per message and is final.
type Engine struct {
	thresholds Thresholds
	locator    SpanLocator
	logger     *zap.Logger
}

// NewEngine creates a new decision engine
func NewEngine(thresholds Thresholds, locator SpanLocator, logger *zap.Logger) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		thresholds: thresholds,
		locator:    locator,
		logger:     logger,
	}, nil
}

// Decide computes the action for an analysis and transforms the message
// content accordingly.
func (e *Engine) Decide(msg *core.EphemeralMessage, analysis *core.AnalysisResult) *core.ProtectionDecision {
	action := e.thresholds.ActionForScore(analysis.ToxicityScore)

	var content string
	switch action {
	case core.ActionForwardClean:
		content = msg.BodyText
	case core.ActionForwardWithContext:
		content = annotate(msg.BodyText, analysis)
	case core.ActionRedactHarmful:
		content = redact(msg.BodyText, e.locator)
	case core.ActionSummarizeOnly:
		content = summarize(msg.BodyText, e.locator)
	case core.ActionBlockEntirely:
		content = ""
	}

	e.logger.Debug("Decision made",
		zap.String("message_id", msg.ID),
		zap.String("action", string(action)),
		zap.Float64("score", analysis.ToxicityScore))

	return &core.ProtectionDecision{
		Action:           action,
		ProcessedContent: content,
		Reasoning:        decisionReasoning(action, analysis),
		ToxicityScore:    analysis.ToxicityScore,
		Analysis:         analysis,
	}
}

func decisionReasoning(action core.ProtectionAction, analysis *core.AnalysisResult) string {
	switch action {
	case core.ActionForwardClean:
		return "Content assessed as safe; forwarded unchanged"
	case core.ActionForwardWithContext:
		return "Mildly harmful patterns present; forwarded with an advisory note. " + analysis.Reasoning
	case core.ActionRedactHarmful:
		return "Harmful passages masked; factual content preserved. " + analysis.Reasoning
	case core.ActionSummarizeOnly:
		return "Tone discarded; only a neutral summary forwarded. " + analysis.Reasoning
	default:
		return "Content withheld due to severe harmful patterns. " + analysis.Reasoning
	}
}
