package engine

import (
	"testing"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLocator struct {
	spans [][2]int
}

func (f *fakeLocator) Locate(content string) [][2]int {
	return f.spans
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	tests := []struct {
		name       string
		thresholds Thresholds
	}{
		{"descending", Thresholds{ForwardClean: 0.7, ForwardWithContext: 0.5, RedactHarmful: 0.8, SummarizeOnly: 0.9}},
		{"equal bounds", Thresholds{ForwardClean: 0.3, ForwardWithContext: 0.3, RedactHarmful: 0.7, SummarizeOnly: 0.9}},
		{"above one", Thresholds{ForwardClean: 0.3, ForwardWithContext: 0.5, RedactHarmful: 0.7, SummarizeOnly: 1.1}},
		{"zero bound", Thresholds{ForwardClean: 0.0, ForwardWithContext: 0.5, RedactHarmful: 0.7, SummarizeOnly: 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.thresholds.Validate())
		})
	}
}

func TestActionForScoreBoundaries(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		score float64
		want  core.ProtectionAction
	}{
		{0.0, core.ActionForwardClean},
		{0.29, core.ActionForwardClean},
		{0.30, core.ActionForwardWithContext},
		{0.54, core.ActionForwardWithContext},
		{0.55, core.ActionRedactHarmful},
		{0.70, core.ActionSummarizeOnly},
		{0.89, core.ActionSummarizeOnly},
		{0.90, core.ActionBlockEntirely},
		{1.0, core.ActionBlockEntirely},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, thresholds.ActionForScore(tt.score), "score %.2f", tt.score)
	}
}

func TestActionForScoreMonotonic(t *testing.T) {
	thresholds := DefaultThresholds()

	prev := thresholds.ActionForScore(0.0)
	for score := 0.01; score <= 1.0; score += 0.01 {
		action := thresholds.ActionForScore(score)
		assert.GreaterOrEqual(t, action.Severity(), prev.Severity(),
			"a higher score must never yield a milder action (score %.2f)", score)
		prev = action
	}
}

func TestNewEngineRejectsInvalidThresholds(t *testing.T) {
	_, err := NewEngine(Thresholds{ForwardClean: 0.9, ForwardWithContext: 0.5, RedactHarmful: 0.7, SummarizeOnly: 0.95}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestDecideForwardClean(t *testing.T) {
	e, err := NewEngine(DefaultThresholds(), &fakeLocator{}, zap.NewNop())
	require.NoError(t, err)

	msg := &core.EphemeralMessage{ID: "msg-1", BodyText: "See you at the meeting."}
	decision := e.Decide(msg, &core.AnalysisResult{ToxicityScore: 0.10})

	assert.Equal(t, core.ActionForwardClean, decision.Action)
	assert.Equal(t, msg.BodyText, decision.ProcessedContent)
}

func TestDecideForwardWithContext(t *testing.T) {
	e, err := NewEngine(DefaultThresholds(), &fakeLocator{}, zap.NewNop())
	require.NoError(t, err)

	msg := &core.EphemeralMessage{ID: "msg-1", BodyText: "You should have told me earlier."}
	analysis := &core.AnalysisResult{
		ToxicityScore: 0.40,
		Horsemen:      []core.HorsemanDetection{{Pattern: core.HorsemanCriticism, Confidence: 0.4}},
	}
	decision := e.Decide(msg, analysis)

	assert.Equal(t, core.ActionForwardWithContext, decision.Action)
	assert.Contains(t, decision.ProcessedContent, msg.BodyText)
	assert.Contains(t, decision.ProcessedContent, "criticism")
}

func TestDecideRedactHarmful(t *testing.T) {
	content := "You are pathetic. Meeting at 3pm."
	locator := &fakeLocator{spans: [][2]int{{8, 16}}}
	e, err := NewEngine(DefaultThresholds(), locator, zap.NewNop())
	require.NoError(t, err)

	msg := &core.EphemeralMessage{ID: "msg-1", BodyText: content}
	decision := e.Decide(msg, &core.AnalysisResult{ToxicityScore: 0.60})

	assert.Equal(t, core.ActionRedactHarmful, decision.Action)
	assert.Len(t, decision.ProcessedContent, len(content))
	assert.NotContains(t, decision.ProcessedContent, "pathetic")
	assert.Contains(t, decision.ProcessedContent, "Meeting at 3pm.")
}

func TestDecideSummarizeOnly(t *testing.T) {
	content := "You are pathetic. The invoice was paid on Monday."
	locator := &fakeLocator{spans: [][2]int{{0, 17}}}
	e, err := NewEngine(DefaultThresholds(), locator, zap.NewNop())
	require.NoError(t, err)

	msg := &core.EphemeralMessage{ID: "msg-1", BodyText: content}
	decision := e.Decide(msg, &core.AnalysisResult{ToxicityScore: 0.80})

	assert.Equal(t, core.ActionSummarizeOnly, decision.Action)
	assert.NotContains(t, decision.ProcessedContent, "pathetic")
	assert.Contains(t, decision.ProcessedContent, "The invoice was paid on Monday")
}

func TestDecideBlockEntirely(t *testing.T) {
	e, err := NewEngine(DefaultThresholds(), &fakeLocator{}, zap.NewNop())
	require.NoError(t, err)

	msg := &core.EphemeralMessage{ID: "msg-1", BodyText: "You worthless idiot."}
	decision := e.Decide(msg, &core.AnalysisResult{ToxicityScore: 0.95})

	assert.Equal(t, core.ActionBlockEntirely, decision.Action)
	assert.Empty(t, decision.ProcessedContent)
	assert.NotEmpty(t, decision.Reasoning)
}
