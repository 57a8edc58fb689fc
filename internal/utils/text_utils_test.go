package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateTextShortInput(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "short", tp.TruncateText("short", 0))
}

func TestTruncateTextLongInput(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.TruncateText(strings.Repeat("a", 100), 10)

	assert.True(t, strings.HasPrefix(out, "aaaaaaaaaa"))
	assert.Contains(t, out, "truncated")
}

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// Cut in the middle of a multi-byte rune
	out := tp.TruncateText("日本語テキスト", 4)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "日"))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean", tp.SanitizeUTF8("clean"))

	dirty := "ok" + string([]byte{0xff, 0xfe}) + "still ok"
	out := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "still ok")
}
