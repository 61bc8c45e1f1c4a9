package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/storage"
	"github.com/yndnr/timi-go/internal/storage/memory"
)

const testOrigin = "http://localhost:8000"

// makeToken builds an unsigned compact JWT carrying claims.
func makeToken(t testing.TB, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".c2lnbmF0dXJl"
}

func newTokenStore(t *testing.T) (*storage.TokenStore, *memory.Engine) {
	t.Helper()
	kv := memory.New()
	t.Cleanup(func() { kv.Close() })
	return storage.NewTokenStore(kv, testOrigin, nil), kv
}

// stubStore wraps a real TokenStore and injects failures.
type stubStore struct {
	inner *storage.TokenStore

	mu       sync.Mutex
	saveErr  error
	loadErr  error
	clearErr error
	saves    int
	loads    int
	clears   int
}

func newStubStore(t *testing.T) *stubStore {
	inner, _ := newTokenStore(t)
	return &stubStore{inner: inner}
}

func (s *stubStore) Save(ctx context.Context, token string, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.inner.Save(ctx, token, profile)
}

func (s *stubStore) Load(ctx context.Context) (storage.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return storage.StoredSession{}, s.loadErr
	}
	return s.inner.Load(ctx)
}

func (s *stubStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.inner.Clear(ctx)
}

// countingDecoder records calls to the wrapped decoder.
type countingDecoder struct {
	inner TokenDecoder
	calls int
}

func (d *countingDecoder) Decode(token string) (*domain.Claims, error) {
	d.calls++
	return d.inner.Decode(token)
}
