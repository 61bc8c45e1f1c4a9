package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ClientIDPrefix is the prefix for client instance IDs.
const ClientIDPrefix = "timi-"

// SessionState is the client's view of who is signed in.
//
// LoggedIn is true only when both a token and a resolvable profile are held;
// User is nil whenever LoggedIn is false.
type SessionState struct {
	LoggedIn bool         `json:"logged_in"`
	User     *UserProfile `json:"user,omitempty"`
}

// Anonymous returns the signed-out state.
func Anonymous() SessionState {
	return SessionState{}
}

// Authenticated returns a signed-in state holding a copy of user.
func Authenticated(user *UserProfile) SessionState {
	return SessionState{LoggedIn: true, User: user.Clone()}
}

// Clone returns a deep copy so callers cannot mutate a shared profile.
func (s SessionState) Clone() SessionState {
	return SessionState{LoggedIn: s.LoggedIn, User: s.User.Clone()}
}

// Name returns "authenticated" or "anonymous".
func (s SessionState) Name() string {
	if s.LoggedIn {
		return "authenticated"
	}
	return "anonymous"
}

// NewClientID generates an identifier for this client installation.
// Format: timi-{ulid_lowercase}.
func NewClientID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInvalidArgument.WithCause(err)
	}
	return ClientIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidClientID checks the prefix and the ULID part of a client ID.
func IsValidClientID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, ClientIDPrefix) {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(ClientIDPrefix):]))
	return err == nil
}
