package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// Keys that carry operational data and never secrets.
var plainKeys = map[string]struct{}{
	"assetid":   {},
	"caller":    {},
	"env":       {},
	"error":     {},
	"kind":      {},
	"message":   {},
	"op":        {},
	"path":      {},
	"reason":    {},
	"sequence":  {},
	"service":   {},
	"severity":  {},
	"sink":      {},
	"timestamp": {},
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsAllowlisted reports whether key may be logged without masking.
func IsAllowlisted(key string) bool {
	_, ok := plainKeys[normalizeKey(key)]
	return ok
}

// RedactionAllowlist returns the plain keys in sorted order.
func RedactionAllowlist() []string {
	out := make([]string, 0, len(plainKeys))
	for key := range plainKeys {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// MaskField logs value under key unless key is not allowlisted, in which case
// the value is replaced by RedactedValue. Empty values pass through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// Fingerprint logs a short SHA-256 prefix of value so repeated secrets can be
// correlated across lines without being disclosed.
func Fingerprint(key, value string) slog.Attr {
	if value == "" {
		return slog.String(key, "")
	}
	sum := sha256.Sum256([]byte(value))
	return slog.String(key, "sha256:"+hex.EncodeToString(sum[:6]))
}
