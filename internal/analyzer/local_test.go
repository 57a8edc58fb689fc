package analyzer

import (
	"strings"
	"testing"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLocalAnalyzer() *LocalAnalyzer {
	return NewLocalAnalyzer(zap.NewNop())
}

func TestAnalyzeCleanContent(t *testing.T) {
	a := newTestLocalAnalyzer()

	result := a.Analyze(&core.EphemeralMessage{
		ID:       "msg-1",
		BodyText: "Please review the attached report and send me your comments by Friday.",
	})

	assert.Equal(t, 0.0, result.ToxicityScore)
	assert.Equal(t, core.ThreatLevelSafe, result.ThreatLevel)
	assert.Empty(t, result.Horsemen)
	assert.Equal(t, core.SourceLocal, result.Source)
	assert.Equal(t, "heuristic", result.ModelUsed)
	assert.Equal(t, "No harmful communication patterns detected", result.Reasoning)
}

func TestAnalyzeDetectsCriticism(t *testing.T) {
	a := newTestLocalAnalyzer()

	result := a.Analyze(&core.EphemeralMessage{
		ID:       "msg-1",
		BodyText: "You always forget to update the tracker.",
	})

	require.Len(t, result.Horsemen, 1)
	assert.Equal(t, core.HorsemanCriticism, result.Horsemen[0].Pattern)
	assert.InDelta(t, 0.35, result.ToxicityScore, 0.001)
	assert.Equal(t, core.ThreatLevelLow, result.ThreatLevel)
	assert.Contains(t, result.Reasoning, "criticism")
}

func TestAnalyzeDetectsContempt(t *testing.T) {
	a := newTestLocalAnalyzer()

	result := a.Analyze(&core.EphemeralMessage{
		ID:       "msg-1",
		BodyText: "This proposal is pathetic and frankly worthless.",
	})

	require.Len(t, result.Horsemen, 1)
	assert.Equal(t, core.HorsemanContempt, result.Horsemen[0].Pattern)
	assert.Equal(t, "critical", result.Horsemen[0].Severity)
	assert.Equal(t, core.ThreatLevelCritical, result.ThreatLevel)
}

func TestAnalyzeCompoundsCategories(t *testing.T) {
	a := newTestLocalAnalyzer()

	single := a.Analyze(&core.EphemeralMessage{
		ID:       "msg-1",
		BodyText: "You never listen to feedback.",
	})
	multi := a.Analyze(&core.EphemeralMessage{
		ID:       "msg-2",
		BodyText: "You never listen to feedback. And it is not my fault the deadline slipped.",
	})

	require.Len(t, single.Horsemen, 1)
	require.Len(t, multi.Horsemen, 2)
	assert.Greater(t, multi.ToxicityScore, single.ToxicityScore)
}

func TestAnalyzeScoreNeverExceedsCap(t *testing.T) {
	a := newTestLocalAnalyzer()

	result := a.Analyze(&core.EphemeralMessage{
		ID: "msg-1",
		BodyText: "You are pathetic, worthless, a stupid idiot and a loser. " +
			"You always ruin everything. Not my fault. I'm done talking to you. Whatever.",
	})

	assert.LessOrEqual(t, result.ToxicityScore, maxLocalScore)
	for _, d := range result.Horsemen {
		assert.LessOrEqual(t, d.Confidence, maxLocalScore)
	}
}

func TestAnalyzeSortsDetectionsByConfidence(t *testing.T) {
	a := newTestLocalAnalyzer()

	result := a.Analyze(&core.EphemeralMessage{
		ID:       "msg-1",
		BodyText: "You are such a disappointment, you pathetic excuse. Whatever.",
	})

	require.GreaterOrEqual(t, len(result.Horsemen), 2)
	for i := 1; i < len(result.Horsemen); i++ {
		assert.GreaterOrEqual(t, result.Horsemen[i-1].Confidence, result.Horsemen[i].Confidence)
	}
}

func TestLocateReturnsMatchSpans(t *testing.T) {
	a := newTestLocalAnalyzer()
	content := "Well, you always do this and it is pathetic."

	spans := a.Locate(content)
	require.NotEmpty(t, spans)

	var matched []string
	for i := 1; i < len(spans); i++ {
		assert.Greater(t, spans[i][0], spans[i-1][1], "spans should be sorted and disjoint")
	}
	for _, span := range spans {
		matched = append(matched, content[span[0]:span[1]])
	}
	joined := strings.Join(matched, "|")
	assert.Contains(t, joined, "you always")
	assert.Contains(t, joined, "pathetic")
}

func TestLocateCleanContent(t *testing.T) {
	a := newTestLocalAnalyzer()

	assert.Nil(t, a.Locate("The quarterly numbers look fine."))
}

func TestReasoningNamesPatternsOnly(t *testing.T) {
	a := newTestLocalAnalyzer()
	body := "You always forget. You never remember."

	result := a.Analyze(&core.EphemeralMessage{ID: "msg-1", BodyText: body})

	assert.Contains(t, result.Reasoning, "criticism (2 matches")
	// Reasoning must never quote the message itself
	assert.NotContains(t, result.Reasoning, "forget")
	assert.NotContains(t, result.Reasoning, "remember")
}
