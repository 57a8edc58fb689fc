package engine

import (
	"regexp"
	"strings"

	"github.com/gottmail/toneguard/internal/core"
)

const annotationDivider = "\n\n---\n"

var sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

// annotate appends an advisory note without altering the original text.
func annotate(content string, analysis *core.AnalysisResult) string {
	names := make([]string, 0, len(analysis.Horsemen))
	for _, d := range analysis.Horsemen {
		names = append(names, string(d.Pattern))
	}
	note := "Note: this message may contain harmful communication patterns"
	if len(names) > 0 {
		note += " (" + strings.Join(names, ", ") + ")"
	}
	note += ". The original text is preserved above."

	return content + annotationDivider + note
}

// redact masks every detected span in place. Masking is byte-for-byte, so
// the output is never longer than the input and offsets of untouched text
// are preserved.
func redact(content string, locator SpanLocator) string {
	if locator == nil {
		return content
	}
	spans := locator.Locate(content)
	if len(spans) == 0 {
		return content
	}

	out := []byte(content)
	for _, span := range spans {
		for i := span[0]; i < span[1]; i++ {
			out[i] = '*'
		}
	}
	return string(out)
}

// summarize replaces the body with a neutral digest of the sentences that
// carried no detected patterns, discarding tone entirely.
func summarize(content string, locator SpanLocator) string {
	var spans [][2]int
	if locator != nil {
		spans = locator.Locate(content)
	}

	var clean []string
	for _, loc := range sentenceRe.FindAllStringIndex(content, -1) {
		if overlapsAny(loc[0], loc[1], spans) {
			continue
		}
		sentence := strings.TrimSpace(content[loc[0]:loc[1]])
		if sentence == "" {
			continue
		}
		clean = append(clean, sentence)
		if len(clean) == 3 {
			break
		}
	}

	if len(clean) == 0 {
		return "Summary: the message contained no factual content apart from harmful language and was withheld."
	}
	return "Summary of factual content: " + strings.Join(clean, " ")
}

func overlapsAny(start, end int, spans [][2]int) bool {
	for _, span := range spans {
		if start < span[1] && span[0] < end {
			return true
		}
	}
	return false
}
