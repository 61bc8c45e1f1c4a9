package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"jwt", sampleJWT, "eyJ...WXYZ"},
		{"bearer header", "Bearer " + sampleJWT, "eyJ...WXYZ"},
		{"short jwt-like", "eyJabc", "eyJ***"},
		{"plain value", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactString(tt.in))
		})
	}
}

func TestIsSensitiveValue(t *testing.T) {
	assert.True(t, IsSensitiveValue(sampleJWT))
	assert.True(t, IsSensitiveValue("Bearer "+sampleJWT))
	assert.False(t, IsSensitiveValue("eyJonly-one-segment"))
	assert.False(t, IsSensitiveValue("a.b.c"))
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"password", "Storage_Passphrase", "access_token", "Authorization", "client_secret"} {
		assert.True(t, IsSensitiveKey(k), k)
	}
	for _, k := range []string{"email", "route", "state"} {
		assert.False(t, IsSensitiveKey(k), k)
	}
}

func TestRedactSensitive(t *testing.T) {
	assert.Equal(t, redactedValue, redactSensitive(slog.String("password", "x")).Value.String())
	assert.Equal(t, "", redactSensitive(slog.String("password", "")).Value.String())
	assert.Equal(t, int64(3), redactSensitive(slog.Int("token_count", 3)).Value.Int64())

	group := redactSensitive(slog.Group("req", slog.String("authorization", "Bearer "+sampleJWT)))
	attrs := group.Value.Group()
	assert.Equal(t, "eyJ...WXYZ", attrs[0].Value.String())
}
