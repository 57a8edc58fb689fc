package analyzer

import (
	"regexp"

	"github.com/gottmail/toneguard/internal/core"
)

// Pattern is a single detection rule for one horseman.
type Pattern struct {
	Expr     string
	Weight   float64
	Severity string

	re *regexp.Regexp
}

// DefaultPatterns returns the built-in detection rules. Weights reflect
// how strongly a match alone indicates the pattern; severities follow the
// low/medium/high/critical scale.
func DefaultPatterns() map[core.Horseman][]Pattern {
	return map[core.Horseman][]Pattern{
		core.HorsemanCriticism: {
			{Expr: `(?i)\byou (always|never)\b`, Weight: 0.35, Severity: "medium"},
			{Expr: `(?i)\bwhat('s| is) wrong with you\b`, Weight: 0.45, Severity: "high"},
			{Expr: `(?i)\byou('re| are) (so|such a|just)\b`, Weight: 0.30, Severity: "medium"},
			{Expr: `(?i)\bwhy (can't|cant|don't|dont) you (ever|just)\b`, Weight: 0.35, Severity: "medium"},
			{Expr: `(?i)\byou should have\b`, Weight: 0.20, Severity: "low"},
			{Expr: `(?i)\byou (ruin|ruined|wreck|wrecked)\b`, Weight: 0.40, Severity: "high"},
		},
		core.HorsemanContempt: {
			{Expr: `(?i)\b(pathetic|worthless|disgusting|useless)\b`, Weight: 0.50, Severity: "critical"},
			{Expr: `(?i)\b(idiot|idiotic|stupid|moron|loser)\b`, Weight: 0.45, Severity: "critical"},
			{Expr: `(?i)\byou call (that|this|yourself)\b`, Weight: 0.35, Severity: "high"},
			{Expr: `(?i)\bbeneath (me|contempt)\b`, Weight: 0.40, Severity: "high"},
			{Expr: `(?i)\b(laughable|a joke) as (a|an)\b`, Weight: 0.35, Severity: "high"},
			{Expr: `(?i)\broll(ing|ed)? my eyes\b`, Weight: 0.25, Severity: "medium"},
		},
		core.HorsemanDefensiveness: {
			{Expr: `(?i)\bnot my (fault|problem)\b`, Weight: 0.30, Severity: "medium"},
			{Expr: `(?i)\bdon't blame me\b`, Weight: 0.30, Severity: "medium"},
			{Expr: `(?i)\byou('re| are) the one who\b`, Weight: 0.30, Severity: "medium"},
			{Expr: `(?i)\bi did nothing wrong\b`, Weight: 0.25, Severity: "low"},
			{Expr: `(?i)\byes,? but you\b`, Weight: 0.15, Severity: "low"},
			{Expr: `(?i)\bif you hadn't\b`, Weight: 0.25, Severity: "medium"},
		},
		core.HorsemanStonewalling: {
			{Expr: `(?i)\bi('m| am) done (talking|discussing|with this|with you)\b`, Weight: 0.35, Severity: "high"},
			{Expr: `(?i)\bdon't (talk|speak|write) to me\b`, Weight: 0.35, Severity: "high"},
			{Expr: `(?i)\bend of (discussion|conversation)\b`, Weight: 0.30, Severity: "medium"},
			{Expr: `(?i)\bnot (listening|reading) to (this|you)\b`, Weight: 0.25, Severity: "medium"},
			{Expr: `(?i)\bwhatever\.\b`, Weight: 0.20, Severity: "low"},
			{Expr: `(?i)\bdo not contact me\b`, Weight: 0.30, Severity: "medium"},
		},
	}
}

func compilePatterns(patterns map[core.Horseman][]Pattern) map[core.Horseman][]Pattern {
	compiled := make(map[core.Horseman][]Pattern, len(patterns))
	for horseman, rules := range patterns {
		out := make([]Pattern, 0, len(rules))
		for _, rule := range rules {
			rule.re = regexp.MustCompile(rule.Expr)
			out = append(out, rule)
		}
		compiled[horseman] = out
	}
	return compiled
}
