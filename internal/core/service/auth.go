package service

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/time/rate"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
)

// AuthBackend is the remote service that issues tokens.
type AuthBackend interface {
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
}

// EmailMemory stores the "remember me" email.
type EmailMemory interface {
	RememberEmail(ctx context.Context, email string) error
	RememberedEmail(ctx context.Context) (string, error)
	ForgetEmail(ctx context.Context) error
}

// AuthResult is a successful backend response.
type AuthResult struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type,omitempty"`
	User        *domain.UserProfile `json:"user,omitempty"`
}

// LoginRequest contains sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"-"`
}

// Validate checks the request before it is sent.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
	)
}

// RegisterRequest contains sign-up data.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Validate checks the request before it is sent.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.Name, validation.Length(0, 100)),
	)
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	// AttemptsPerMinute limits sign-in and sign-up calls. 0 disables the limit.
	AttemptsPerMinute float64

	// Burst is the number of attempts allowed back to back.
	Burst int
}

// DefaultAuthServiceConfig returns the default configuration.
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		AttemptsPerMinute: 10,
		Burst:             3,
	}
}

// AuthService signs users in and up through the backend and hands the
// resulting token to the SessionController.
type AuthService struct {
	backend    AuthBackend
	controller *SessionController
	emails     EmailMemory
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewAuthService creates an AuthService. emails may be nil.
func NewAuthService(backend AuthBackend, controller *SessionController, emails EmailMemory, cfg AuthServiceConfig, l logger.Logger) *AuthService {
	if l == nil {
		l = logger.Nop()
	}
	s := &AuthService{
		backend:    backend,
		controller: controller,
		emails:     emails,
		logger:     l.With("component", "auth"),
	}
	if cfg.AttemptsPerMinute > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AttemptsPerMinute/60), burst)
	}
	return s
}

// Login authenticates with the backend and signs the user in.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (domain.SessionState, error) {
	// 1. Validate input
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return s.controller.State(), domain.ErrValidation.WithDetails(err.Error()).WithCause(err)
	}

	// 2. Throttle
	if err := s.allow(); err != nil {
		return s.controller.State(), err
	}

	// 3. Call backend
	res, err := s.backend.Login(ctx, req)
	if err != nil {
		s.logger.Info("login rejected", "email", req.Email, "error", err)
		return s.controller.State(), err
	}

	// 4. Establish session
	profile := resolveProfile(res, req.Email, "")
	if err := s.controller.Login(ctx, res.AccessToken, profile); err != nil {
		return s.controller.State(), err
	}

	// 5. Remember email (best effort)
	s.rememberEmail(ctx, req.Email, req.Remember)

	return s.controller.State(), nil
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (domain.SessionState, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return s.controller.State(), domain.ErrValidation.WithDetails(err.Error()).WithCause(err)
	}

	if err := s.allow(); err != nil {
		return s.controller.State(), err
	}

	res, err := s.backend.Register(ctx, req)
	if err != nil {
		s.logger.Info("registration rejected", "email", req.Email, "error", err)
		return s.controller.State(), err
	}

	profile := resolveProfile(res, req.Email, req.Name)
	if err := s.controller.Register(ctx, res.AccessToken, profile); err != nil {
		return s.controller.State(), err
	}
	return s.controller.State(), nil
}

// Logout signs the user out.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.controller.Logout(ctx)
}

// RememberedEmail returns the email saved by a previous "remember me" login.
func (s *AuthService) RememberedEmail(ctx context.Context) string {
	if s.emails == nil {
		return ""
	}
	email, err := s.emails.RememberedEmail(ctx)
	if err != nil {
		s.logger.Warn("failed to read remembered email", "error", err)
		return ""
	}
	return email
}

func (s *AuthService) allow() error {
	if s.limiter != nil && !s.limiter.Allow() {
		return domain.ErrRateLimited
	}
	return nil
}

func (s *AuthService) rememberEmail(ctx context.Context, email string, remember bool) {
	if s.emails == nil {
		return
	}
	var err error
	if remember {
		err = s.emails.RememberEmail(ctx, email)
	} else {
		err = s.emails.ForgetEmail(ctx)
	}
	if err != nil {
		s.logger.Warn("failed to update remembered email", "error", err)
	}
}

// resolveProfile prefers the profile returned by the backend and falls back
// to what the user typed.
func resolveProfile(res *AuthResult, email, name string) *domain.UserProfile {
	if res.User != nil && res.User.Validate() == nil {
		p := res.User.Clone()
		if p.Name == "" {
			p.Name = name
		}
		return p
	}
	return &domain.UserProfile{Email: email, Name: name}
}
