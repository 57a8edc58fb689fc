package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThreatLevelForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  ThreatLevel
	}{
		{"zero", 0.0, ThreatLevelSafe},
		{"just below safe boundary", 0.19, ThreatLevelSafe},
		{"safe boundary", 0.2, ThreatLevelLow},
		{"just below low boundary", 0.39, ThreatLevelLow},
		{"low boundary", 0.4, ThreatLevelMedium},
		{"medium boundary", 0.6, ThreatLevelHigh},
		{"high boundary", 0.8, ThreatLevelCritical},
		{"maximum", 1.0, ThreatLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThreatLevelForScore(tt.score))
		})
	}
}

func TestThreatLevelForScoreDeterministic(t *testing.T) {
	for score := 0.0; score <= 1.0; score += 0.05 {
		assert.Equal(t, ThreatLevelForScore(score), ThreatLevelForScore(score))
	}
}

func TestProtectionActionSeverity(t *testing.T) {
	ordered := []ProtectionAction{
		ActionForwardClean,
		ActionForwardWithContext,
		ActionRedactHarmful,
		ActionSummarizeOnly,
		ActionBlockEntirely,
	}

	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Severity(), ordered[i-1].Severity(),
			"%s should be stricter than %s", ordered[i], ordered[i-1])
	}

	assert.Equal(t, -1, ProtectionAction("bogus").Severity())
}

func TestEphemeralMessageExpired(t *testing.T) {
	now := time.Now()
	msg := &EphemeralMessage{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, msg.Expired(now))
	assert.False(t, msg.Expired(now.Add(time.Minute)))
	assert.True(t, msg.Expired(now.Add(time.Minute+time.Nanosecond)))
}
