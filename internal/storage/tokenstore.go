package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/yndnr/timi-go/internal/core/domain"
)

// KeyPrefix namespaces every key written by the token store.
const KeyPrefix = "timi/"

// StoredSession is what Load found on disk.
//
// Token is empty and Profile nil when the respective key is absent.
// ProfileCorrupted is set when a profile value existed but could not be
// parsed; that value has already been removed.
type StoredSession struct {
	Token            string
	Profile          *domain.UserProfile
	ProfileCorrupted bool
}

// TokenStore persists the bearer token and its cached profile for one origin.
type TokenStore struct {
	kv     KVEngine
	origin string
	logger *slog.Logger

	tokenKey   []byte
	profileKey []byte
	emailKey   []byte
}

// NewTokenStore creates a token store scoped to origin (see Origin).
func NewTokenStore(kv KVEngine, origin string, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	base := KeyPrefix + origin + "/"
	return &TokenStore{
		kv:         kv,
		origin:     origin,
		logger:     logger.With("component", "token_store", "origin", origin),
		tokenKey:   []byte(base + "token"),
		profileKey: []byte(base + "user"),
		emailKey:   []byte(base + "remembered_email"),
	}
}

// Origin returns the normalised scheme://host[:port] of a backend base URL.
// Default ports are dropped so equivalent URLs share one namespace.
func Origin(baseURL string) (string, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return "", domain.ErrInvalidArgument.WithDetails("base url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.ErrInvalidArgument.WithDetails("invalid base url").WithCause(err)
	}
	if u.Host == "" {
		return "", domain.ErrInvalidArgument.WithDetails("base url has no host")
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, nil
}

// OriginName returns the origin this store is scoped to.
func (s *TokenStore) OriginName() string {
	return s.origin
}

// Save writes the token and profile in one atomic batch.
func (s *TokenStore) Save(ctx context.Context, token string, profile *domain.UserProfile) error {
	if profile == nil {
		return domain.ErrInvalidArgument.WithDetails("profile is required")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return domain.ErrPersistence.WithCause(fmt.Errorf("encode profile: %w", err))
	}

	batch := NewBatch().
		Set(s.tokenKey, []byte(token)).
		Set(s.profileKey, data)
	if err := s.kv.Apply(ctx, batch); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// Load reads the stored pair from one snapshot. A corrupted profile is
// deleted as a side effect and reported through StoredSession.ProfileCorrupted;
// the error return is reserved for storage failures.
func (s *TokenStore) Load(ctx context.Context) (StoredSession, error) {
	var out StoredSession

	values, err := s.kv.GetMany(ctx, s.tokenKey, s.profileKey)
	if err != nil {
		return out, domain.ErrPersistence.WithCause(err)
	}
	out.Token = string(values[0])

	raw := values[1]
	if raw == nil {
		return out, nil
	}

	profile, perr := decodeProfile(raw)
	if perr != nil {
		out.ProfileCorrupted = true
		s.logger.Warn("discarding corrupted profile", "error", perr)
		if err := s.kv.Delete(ctx, s.profileKey); err != nil {
			s.logger.Warn("failed to delete corrupted profile", "error", err)
		}
		return out, nil
	}
	out.Profile = profile
	return out, nil
}

// Clear removes the token and profile in one batch. The remembered email is kept.
func (s *TokenStore) Clear(ctx context.Context) error {
	batch := NewBatch().
		Delete(s.tokenKey).
		Delete(s.profileKey)
	if err := s.kv.Apply(ctx, batch); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// RememberEmail stores the email to prefill the next sign-in.
func (s *TokenStore) RememberEmail(ctx context.Context, email string) error {
	if err := s.kv.Set(ctx, s.emailKey, []byte(email)); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// RememberedEmail returns the remembered email, or "" when none.
func (s *TokenStore) RememberedEmail(ctx context.Context) (string, error) {
	v, err := s.get(ctx, s.emailKey)
	if err != nil {
		return "", domain.ErrPersistence.WithCause(err)
	}
	return string(v), nil
}

// ForgetEmail removes the remembered email.
func (s *TokenStore) ForgetEmail(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.emailKey); err != nil {
		return domain.ErrPersistence.WithCause(err)
	}
	return nil
}

// get returns nil, nil for a missing key.
func (s *TokenStore) get(ctx context.Context, key []byte) ([]byte, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeProfile(raw []byte) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
