package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint derives a stable one-way cache key from message content and
// sender. Content is NFC-normalized and the sender canonicalized so that
// trivially re-encoded duplicates map to the same key. The raw content
// cannot be recovered from the digest, which is what allows fingerprints
// to outlive the ephemeral message itself.
func Fingerprint(content, sender string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(sender))))
	h.Write([]byte{0})
	h.Write([]byte(norm.NFC.String(content)))
	return hex.EncodeToString(h.Sum(nil))
}
