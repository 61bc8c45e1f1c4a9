package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "without details",
			err:      NewDomainError("TIMI-TEST-1000", "test message"),
			expected: "[TIMI-TEST-1000] test message",
		},
		{
			name:     "with details",
			err:      NewDomainError("TIMI-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[TIMI-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	assert.ErrorIs(t, ErrMalformedToken.WithDetails("two segments"), ErrMalformedToken)
	assert.NotErrorIs(t, ErrMalformedToken, ErrCorruptedProfile)
	assert.False(t, errors.Is(ErrPersistence, fmt.Errorf("storage session failure")))

	wrapped := fmt.Errorf("login: %w", ErrPersistence.WithCause(errors.New("disk full")))
	assert.ErrorIs(t, wrapped, ErrPersistence)
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrPersistence.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestDomainError_CopiesDoNotMutateKinds(t *testing.T) {
	_ = ErrValidation.WithDetails("email is required").WithCause(errors.New("x"))

	assert.Empty(t, ErrValidation.Details)
	assert.Nil(t, ErrValidation.Cause)
}

func TestIsDomainError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrSessionExpired)

	assert.True(t, IsDomainError(err, ""))
	assert.True(t, IsDomainError(err, "TIMI-SESS-4010"))
	assert.False(t, IsDomainError(err, "TIMI-SESS-4011"))
	assert.False(t, IsDomainError(errors.New("plain"), ""))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, "TIMI-AUTH-4010", GetErrorCode(ErrInvalidCredentials))
	assert.Equal(t, "", GetErrorCode(errors.New("plain")))
	assert.Equal(t, "", GetErrorCode(nil))
}
