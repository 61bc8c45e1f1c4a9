package domain

import (
	"strings"
	"time"
)

// TokenSegments is the number of dot-separated segments in a compact token
// (header.payload.signature).
const TokenSegments = 3

// IsCompactToken reports whether token has exactly three non-empty
// dot-separated segments. It does not look inside the segments.
func IsCompactToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != TokenSegments {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Claims is the identity payload read from a bearer token.
//
// Claims are decoded, never verified: the backend is the only party that
// checks signatures, so nothing here may be used for authorization.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// Identity returns the subject, falling back to the email claim.
func (c *Claims) Identity() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Email
}

// Profile builds a UserProfile from the claims. The subject is used as the
// email, matching backends that issue `sub` = email.
func (c *Claims) Profile() *UserProfile {
	return &UserProfile{
		Email: c.Identity(),
		Name:  c.Name,
	}
}

// IsExpired reports whether the exp claim is set and lies before now.
// Only used for display; expiry is enforced by the backend.
func (c *Claims) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
