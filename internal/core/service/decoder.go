package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/timi-go/internal/core/domain"
)

// TokenDecoder extracts identity claims from a bearer token.
type TokenDecoder interface {
	Decode(token string) (*domain.Claims, error)
}

// tokenClaims is the payload shape issued by the backend.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// JWTDecoder decodes the payload segment of a compact JWT.
//
// The signature is not checked and exp is not enforced. Any failure is
// reported as domain.ErrMalformedToken.
type JWTDecoder struct {
	parser *jwt.Parser
}

// NewJWTDecoder creates a decoder that accepts padded and unpadded base64url.
func NewJWTDecoder() *JWTDecoder {
	return &JWTDecoder{parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

// Decode returns the claims carried in token.
func (d *JWTDecoder) Decode(token string) (*domain.Claims, error) {
	if !domain.IsCompactToken(token) {
		return nil, domain.ErrMalformedToken.WithDetails("token must have exactly three segments")
	}
	parts := strings.Split(token, ".")

	payload, err := d.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, domain.ErrMalformedToken.WithDetails("payload is not base64url").WithCause(err)
	}
	if trimmed := bytes.TrimSpace(payload); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.ErrMalformedToken.WithDetails("payload is not a JSON object")
	}

	var tc tokenClaims
	if err := json.Unmarshal(payload, &tc); err != nil {
		return nil, domain.ErrMalformedToken.WithDetails("payload is not valid claims JSON").WithCause(err)
	}

	claims := &domain.Claims{
		Subject: tc.Subject,
		Email:   tc.Email,
		Name:    tc.Name,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	return claims, nil
}
