package service

import (
	"context"
	"errors"
	"sync"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/storage"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
	"github.com/yndnr/timi-go/internal/telemetry/metric"
)

// TokenStore defines the persistence the controller needs.
type TokenStore interface {
	// Save writes token and profile atomically.
	Save(ctx context.Context, token string, profile *domain.UserProfile) error

	// Load returns what is stored. A corrupted profile is already removed
	// and flagged; the error is reserved for storage failures.
	Load(ctx context.Context) (storage.StoredSession, error)

	// Clear removes token and profile together.
	Clear(ctx context.Context) error
}

// Operation names used in logs and metrics.
const (
	OpInitialize = "initialize"
	OpLogin      = "login"
	OpRegister   = "register"
	OpLogout     = "logout"
	OpInvalidate = "invalidate"
)

// SessionController owns the client's SessionState.
//
// The state starts Anonymous, is rebuilt from the store once by Initialize,
// and afterwards changes only through Login, Register, Logout and
// Invalidate. Every transition holds mu across the store call and the state
// update, so concurrent callers never observe a half-applied transition.
type SessionController struct {
	store   TokenStore
	decoder TokenDecoder
	logger  logger.Logger
	metrics *metric.Registry

	mu          sync.Mutex
	state       domain.SessionState
	token       string
	initialized bool
	notice      error
}

// ControllerOption configures a SessionController.
type ControllerOption func(*SessionController)

// WithDecoder replaces the default JWT decoder.
func WithDecoder(d TokenDecoder) ControllerOption {
	return func(c *SessionController) {
		c.decoder = d
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) ControllerOption {
	return func(c *SessionController) {
		c.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) ControllerOption {
	return func(c *SessionController) {
		c.metrics = m
	}
}

// NewSessionController creates a controller in the Anonymous state.
func NewSessionController(store TokenStore, opts ...ControllerOption) *SessionController {
	c := &SessionController{
		store:   store,
		decoder: NewJWTDecoder(),
		logger:  logger.Nop(),
		state:   domain.Anonymous(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "session")
	return c
}

// Initialize rebuilds the state from the store. Only the first call reads
// the store; later calls return the current state.
//
// Initialize never fails. A malformed token, a corrupted profile or a
// storage failure purges what is stored, leaves the state Anonymous and
// records a notice (see TakeNotice).
func (c *SessionController) Initialize(ctx context.Context) domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return c.state.Clone()
	}
	c.initialized = true

	stored, err := c.store.Load(ctx)
	if err != nil {
		c.recoverLocked(ctx, OpInitialize, err)
		return c.state.Clone()
	}
	if stored.ProfileCorrupted {
		c.recoverLocked(ctx, OpInitialize, domain.ErrCorruptedProfile)
		return c.state.Clone()
	}

	if stored.Token == "" {
		if stored.Profile != nil {
			c.logger.Info("discarding profile without token")
			c.purgeLocked(ctx)
		}
		c.setAnonymousLocked()
		c.observeLocked(OpInitialize, metric.OutcomeOK)
		return c.state.Clone()
	}

	if !domain.IsCompactToken(stored.Token) {
		c.recoverLocked(ctx, OpInitialize, domain.ErrMalformedToken.WithDetails("stored token is not a compact token"))
		return c.state.Clone()
	}

	profile := stored.Profile
	if profile == nil {
		claims, err := c.decoder.Decode(stored.Token)
		if err != nil {
			c.recoverLocked(ctx, OpInitialize, err)
			return c.state.Clone()
		}
		profile = claims.Profile()
		if profile.Validate() != nil {
			c.recoverLocked(ctx, OpInitialize, domain.ErrMalformedToken.WithDetails("token has neither sub nor email"))
			return c.state.Clone()
		}
		c.logger.Debug("profile derived from token claims")
	}

	c.setAuthenticatedLocked(stored.Token, profile)
	c.observeLocked(OpInitialize, metric.OutcomeOK)
	c.logger.Debug("session restored", "email", profile.Email)
	return c.state.Clone()
}

// Login persists token and profile, then signs the user in.
//
// A non-compact token or a profile without email is rejected with no state
// change. If the store write fails, ErrPersistence is returned and the
// previous state is kept.
func (c *SessionController) Login(ctx context.Context, token string, profile *domain.UserProfile) error {
	return c.establish(ctx, OpLogin, token, profile)
}

// Register behaves like Login; it is a separate entry point so the two
// flows are told apart in logs and metrics.
func (c *SessionController) Register(ctx context.Context, token string, profile *domain.UserProfile) error {
	return c.establish(ctx, OpRegister, token, profile)
}

func (c *SessionController) establish(ctx context.Context, op, token string, profile *domain.UserProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" {
		c.observeLocked(op, metric.OutcomeError)
		return domain.ErrMalformedToken.WithDetails("token is empty")
	}
	if !domain.IsCompactToken(token) {
		c.observeLocked(op, metric.OutcomeError)
		return domain.ErrMalformedToken.WithDetails("token must have exactly three segments")
	}
	if err := profile.Validate(); err != nil {
		c.observeLocked(op, metric.OutcomeError)
		return err
	}

	if err := c.store.Save(ctx, token, profile); err != nil {
		c.observeLocked(op, metric.OutcomeError)
		c.logger.Error("failed to persist session", "op", op, "error", err)
		return asPersistence(err)
	}

	c.initialized = true
	c.notice = nil
	c.setAuthenticatedLocked(token, profile)
	c.observeLocked(op, metric.OutcomeOK)
	c.logger.Info("signed in", "op", op, "email", profile.Email)
	return nil
}

// Logout clears the store and returns to Anonymous. The state becomes
// Anonymous even when the store fails; that failure is returned for
// information only.
func (c *SessionController) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Clear(ctx)
	c.initialized = true
	c.notice = nil
	c.setAnonymousLocked()

	if err != nil {
		c.observeLocked(OpLogout, metric.OutcomeError)
		c.logger.Warn("failed to clear stored session", "error", err)
		return asPersistence(err)
	}
	c.observeLocked(OpLogout, metric.OutcomeOK)
	c.logger.Info("signed out")
	return nil
}

// Invalidate discards the session after the backend rejected the token.
// The notice is set to ErrSessionExpired wrapping cause.
func (c *SessionController) Invalidate(ctx context.Context, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = true
	c.recoverLocked(ctx, OpInvalidate, domain.ErrSessionExpired.WithCause(cause))
}

// State returns a copy of the current state.
func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// BearerToken returns the token for authorised backend calls.
func (c *SessionController) BearerToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.LoggedIn {
		return "", domain.ErrNotAuthenticated
	}
	return c.token, nil
}

// Initialized reports whether Initialize (or a transition) has run.
func (c *SessionController) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// TakeNotice returns and clears the error that caused the last automatic
// sign-out, or nil.
func (c *SessionController) TakeNotice() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.notice
	c.notice = nil
	return n
}

// Reset returns the controller to its uninitialised Anonymous state
// without touching the store.
func (c *SessionController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setAnonymousLocked()
	c.initialized = false
	c.notice = nil
}

// recoverLocked purges the store, goes Anonymous and records err as notice.
func (c *SessionController) recoverLocked(ctx context.Context, op string, err error) {
	c.logger.Warn("discarding stored session", "op", op, "error", err)
	c.purgeLocked(ctx)
	c.setAnonymousLocked()
	c.notice = err

	c.metrics.ObserveRecovery(domain.GetErrorCode(err))
	c.observeLocked(op, metric.OutcomeRecovered)
}

// purgeLocked clears the store, logging failures.
func (c *SessionController) purgeLocked(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to purge stored session", "error", err)
	}
}

func (c *SessionController) setAuthenticatedLocked(token string, profile *domain.UserProfile) {
	c.token = token
	c.state = domain.Authenticated(profile)
}

func (c *SessionController) setAnonymousLocked() {
	c.token = ""
	c.state = domain.Anonymous()
}

func (c *SessionController) observeLocked(op, outcome string) {
	c.metrics.ObserveTransition(op, outcome, c.state.LoggedIn)
}

// asPersistence makes sure store failures surface as ErrPersistence.
func asPersistence(err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return domain.ErrPersistence.WithCause(err)
}
