package engine

import (
	"strings"
	"testing"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestAnnotatePreservesOriginal(t *testing.T) {
	content := "You never answer my messages."
	analysis := &core.AnalysisResult{
		Horsemen: []core.HorsemanDetection{
			{Pattern: core.HorsemanCriticism},
			{Pattern: core.HorsemanStonewalling},
		},
	}

	out := annotate(content, analysis)

	assert.True(t, strings.HasPrefix(out, content))
	assert.Contains(t, out, "criticism, stonewalling")
	assert.Contains(t, out, "preserved above")
}

func TestAnnotateWithoutDetections(t *testing.T) {
	out := annotate("hello", &core.AnalysisResult{})

	assert.True(t, strings.HasPrefix(out, "hello"))
	assert.Contains(t, out, "harmful communication patterns")
}

func TestRedactMasksSpansInPlace(t *testing.T) {
	content := "abc harmful xyz"
	out := redact(content, &fakeLocator{spans: [][2]int{{4, 11}}})

	assert.Equal(t, "abc ******* xyz", out)
	assert.Len(t, out, len(content))
}

func TestRedactWithoutSpans(t *testing.T) {
	content := "nothing to hide"

	assert.Equal(t, content, redact(content, &fakeLocator{}))
	assert.Equal(t, content, redact(content, nil))
}

func TestRedactAdjacentSpans(t *testing.T) {
	content := "one two three"
	out := redact(content, &fakeLocator{spans: [][2]int{{0, 3}, {4, 7}}})

	assert.Equal(t, "*** *** three", out)
}

func TestSummarizeKeepsAtMostThreeSentences(t *testing.T) {
	content := "First fact. Second fact. Third fact. Fourth fact. Fifth fact."
	out := summarize(content, &fakeLocator{})

	assert.Contains(t, out, "First fact.")
	assert.Contains(t, out, "Third fact.")
	assert.NotContains(t, out, "Fourth fact.")
}

func TestSummarizeSkipsHarmfulSentences(t *testing.T) {
	content := "You are useless. The report is due Tuesday."
	out := summarize(content, &fakeLocator{spans: [][2]int{{0, 16}}})

	assert.NotContains(t, out, "useless")
	assert.Contains(t, out, "The report is due Tuesday")
}

func TestSummarizeAllContentHarmful(t *testing.T) {
	content := "You are useless."
	out := summarize(content, &fakeLocator{spans: [][2]int{{0, len(content)}}})

	assert.NotContains(t, out, "useless")
	assert.Contains(t, out, "withheld")
}

func TestOverlapsAny(t *testing.T) {
	spans := [][2]int{{5, 10}}

	assert.True(t, overlapsAny(0, 6, spans))
	assert.True(t, overlapsAny(9, 12, spans))
	assert.True(t, overlapsAny(6, 8, spans))
	assert.False(t, overlapsAny(0, 5, spans))
	assert.False(t, overlapsAny(10, 15, spans))
	assert.False(t, overlapsAny(0, 3, nil))
}
