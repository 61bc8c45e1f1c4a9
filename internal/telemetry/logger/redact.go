package logger

import (
	"log/slog"
	"strings"
)

// jwtPrefix is the base64url encoding of `{"` that starts every JWT header.
const jwtPrefix = "eyJ"

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks compact tokens anywhere and fully redacts string
// values whose key looks sensitive.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if IsSensitiveValue(strVal) {
			return slog.String(a.Key, RedactString(strVal))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactString masks a bearer token, keeping the JWT prefix and the last
// four characters so two tokens can still be told apart in logs.
func RedactString(value string) string {
	v := strings.TrimPrefix(value, "Bearer ")
	if !strings.HasPrefix(v, jwtPrefix) {
		return value
	}
	if len(v) <= len(jwtPrefix)+8 {
		return jwtPrefix + "***"
	}
	return jwtPrefix + "..." + v[len(v)-4:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value looks like a compact JWT or a
// bearer authorization header.
func IsSensitiveValue(value string) bool {
	v := strings.TrimPrefix(value, "Bearer ")
	return strings.HasPrefix(v, jwtPrefix) && strings.Count(v, ".") == 2
}
