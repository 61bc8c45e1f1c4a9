package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymous(t *testing.T) {
	s := Anonymous()

	assert.False(t, s.LoggedIn)
	assert.Nil(t, s.User)
	assert.Equal(t, "anonymous", s.Name())
}

func TestAuthenticated_CopiesProfile(t *testing.T) {
	p := &UserProfile{Email: "a@b.com"}
	s := Authenticated(p)
	p.Email = "mutated@b.com"

	assert.True(t, s.LoggedIn)
	assert.Equal(t, "a@b.com", s.User.Email)
	assert.Equal(t, "authenticated", s.Name())
}

func TestSessionState_Clone(t *testing.T) {
	s := Authenticated(&UserProfile{Email: "a@b.com"})
	c := s.Clone()
	c.User.Email = "other@b.com"

	assert.Equal(t, "a@b.com", s.User.Email)
}

func TestNewClientID(t *testing.T) {
	id, err := NewClientID()
	require.NoError(t, err)

	assert.Len(t, id, len(ClientIDPrefix)+26)
	assert.True(t, IsValidClientID(id))

	other, err := NewClientID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestIsValidClientID(t *testing.T) {
	assert.False(t, IsValidClientID(""))
	assert.False(t, IsValidClientID("tmss-01arz3ndektsv4rrffq69g5fav"))
	assert.False(t, IsValidClientID("timi-not-a-ulid"))
	assert.True(t, IsValidClientID("TIMI-01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}
