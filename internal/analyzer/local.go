package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"go.uber.org/zap"
)

// maxLocalScore caps heuristic scores below 1.0; only the model tier may
// assert full certainty.
const maxLocalScore = 0.95

var severityRank = map[string]int{
	"low":      0,
	"medium":   1,
	"high":     2,
	"critical": 3,
}

// LocalAnalyzer scores content against per-horseman keyword patterns. It
// makes no external calls and is the first tier of hybrid analysis.
type LocalAnalyzer struct {
	patterns map[core.Horseman][]Pattern
	logger   *zap.Logger
}

// NewLocalAnalyzer creates a local analyzer with the default pattern set
func NewLocalAnalyzer(logger *zap.Logger) *LocalAnalyzer {
	return NewLocalAnalyzerWithPatterns(DefaultPatterns(), logger)
}

// NewLocalAnalyzerWithPatterns creates a local analyzer with a custom
// pattern set.
func NewLocalAnalyzerWithPatterns(patterns map[core.Horseman][]Pattern, logger *zap.Logger) *LocalAnalyzer {
	return &LocalAnalyzer{
		patterns: compilePatterns(patterns),
		logger:   logger,
	}
}

// Analyze scores the message body and returns a provisional result with
// Source set to local.
func (a *LocalAnalyzer) Analyze(msg *core.EphemeralMessage) *core.AnalysisResult {
	content := msg.BodyText

	var detections []core.HorsemanDetection
	matchCounts := make(map[core.Horseman]int)

	for horseman, rules := range a.patterns {
		confidence := 0.0
		severity := "low"
		matches := 0

		for _, rule := range rules {
			hits := len(rule.re.FindAllStringIndex(content, -1))
			if hits == 0 {
				continue
			}
			matches += hits
			// Repeated matches of one rule add weight once more at most
			if hits > 2 {
				hits = 2
			}
			confidence += rule.Weight * float64(hits)
			if severityRank[rule.Severity] > severityRank[severity] {
				severity = rule.Severity
			}
		}

		if matches == 0 {
			continue
		}
		if confidence > maxLocalScore {
			confidence = maxLocalScore
		}
		detections = append(detections, core.HorsemanDetection{
			Pattern:    horseman,
			Confidence: confidence,
			Severity:   severity,
		})
		matchCounts[horseman] = matches
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})

	score := 0.0
	if len(detections) > 0 {
		// Strongest pattern dominates; co-occurring patterns compound
		score = detections[0].Confidence + 0.1*float64(len(detections)-1)
		if score > maxLocalScore {
			score = maxLocalScore
		}
	}

	result := &core.AnalysisResult{
		ToxicityScore: score,
		ThreatLevel:   core.ThreatLevelForScore(score),
		Horsemen:      detections,
		Reasoning:     buildReasoning(detections, matchCounts),
		Source:        core.SourceLocal,
		AnalyzedAt:    time.Now(),
		ModelUsed:     "heuristic",
	}

	a.logger.Debug("Local analysis complete",
		zap.String("message_id", msg.ID),
		zap.Float64("score", score),
		zap.Int("patterns_detected", len(detections)))

	return result
}

// Locate returns the merged byte ranges of all pattern matches in the
// content, sorted by start offset. The redaction transform masks exactly
// these spans.
func (a *LocalAnalyzer) Locate(content string) [][2]int {
	var spans [][2]int
	for _, rules := range a.patterns {
		for _, rule := range rules {
			for _, m := range rule.re.FindAllStringIndex(content, -1) {
				spans = append(spans, [2]int{m[0], m[1]})
			}
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	merged := spans[:1]
	for _, span := range spans[1:] {
		last := &merged[len(merged)-1]
		if span[0] <= last[1] {
			if span[1] > last[1] {
				last[1] = span[1]
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

// buildReasoning composes an explanation from pattern names and match
// counts only, so it is safe to log and persist.
func buildReasoning(detections []core.HorsemanDetection, counts map[core.Horseman]int) string {
	if len(detections) == 0 {
		return "No harmful communication patterns detected"
	}

	parts := make([]string, 0, len(detections))
	for _, d := range detections {
		parts = append(parts, fmt.Sprintf("%s (%d matches, %s severity)", d.Pattern, counts[d.Pattern], d.Severity))
	}
	return "Detected " + strings.Join(parts, ", ")
}
