package openai

import (
	"testing"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToxicityResponsePlainJSON(t *testing.T) {
	raw := `{"toxicity_score":0.72,"horsemen":[{"pattern":"contempt","confidence":0.8,"severity":"high"}],"reasoning":"Contempt present"}`

	parsed, err := parseToxicityResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, 0.72, parsed.ToxicityScore)
	require.Len(t, parsed.Horsemen, 1)
	assert.Equal(t, "contempt", parsed.Horsemen[0].Pattern)
	assert.Equal(t, "Contempt present", parsed.Reasoning)
}

func TestParseToxicityResponseWithSurroundingProse(t *testing.T) {
	raw := "Here is my assessment:\n{\"toxicity_score\":0.1,\"horsemen\":[],\"reasoning\":\"Clean\"}\nLet me know if you need more."

	parsed, err := parseToxicityResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, 0.1, parsed.ToxicityScore)
	assert.Empty(t, parsed.Horsemen)
}

func TestParseToxicityResponseGarbage(t *testing.T) {
	_, err := parseToxicityResponse("no json here at all")
	assert.Error(t, err)
}

func TestBuildResult(t *testing.T) {
	parsed := &ToxicityAnalysisResponse{
		ToxicityScore: 0.85,
		Reasoning:     "Severe contempt",
	}
	parsed.Horsemen = append(parsed.Horsemen, struct {
		Pattern    string  `json:"pattern"`
		Confidence float64 `json:"confidence"`
		Severity   string  `json:"severity"`
	}{Pattern: "contempt", Confidence: 0.9, Severity: "critical"})

	result := buildResult(parsed, "gpt-4")

	assert.Equal(t, 0.85, result.ToxicityScore)
	assert.Equal(t, core.ThreatLevelCritical, result.ThreatLevel)
	assert.Equal(t, core.SourceAI, result.Source)
	assert.Equal(t, "gpt-4", result.ModelUsed)
	require.Len(t, result.Horsemen, 1)
	assert.Equal(t, core.HorsemanContempt, result.Horsemen[0].Pattern)
}

func TestFormatRecipients(t *testing.T) {
	assert.Equal(t, "", formatRecipients(nil))
	assert.Equal(t, "a@b.c", formatRecipients([]string{"a@b.c"}))
	assert.Equal(t, "a@b.c and 2 others", formatRecipients([]string{"a@b.c", "d@e.f", "g@h.i"}))
}
