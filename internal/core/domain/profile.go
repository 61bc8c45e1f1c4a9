package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
)

var notBlank = validation.Match(regexp.MustCompile(`\S`)).Error("cannot be blank")

// UserProfile is the identity displayed to the user.
//
// It is cached next to the token as JSON and is either taken from the backend
// auth response or derived from token claims.
type UserProfile struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Validate returns ErrInvalidArgument when the profile has no email.
func (p *UserProfile) Validate() error {
	if p == nil {
		return ErrInvalidArgument.WithDetails("profile is required")
	}
	err := validation.ValidateStruct(p,
		validation.Field(&p.Email, validation.Required, notBlank),
	)
	if err != nil {
		return ErrInvalidArgument.WithDetails("profile " + err.Error()).WithCause(err)
	}
	return nil
}

// Clone returns a copy of the profile. A nil profile clones to nil.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// LocalPart returns the part of the email before '@'.
func (p *UserProfile) LocalPart() string {
	if p == nil {
		return ""
	}
	local, _, _ := strings.Cut(p.Email, "@")
	return local
}

// DisplayName returns the name, else the email local part, else "User".
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return "User"
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if local := p.LocalPart(); local != "" {
		return local
	}
	return "User"
}

// Initials returns the upper-cased first letter of the email local part,
// or "?" when there is none.
func (p *UserProfile) Initials() string {
	local := p.LocalPart()
	if local == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r))
}
